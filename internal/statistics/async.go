package statistics

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

// ErrQueueFull is returned when the async recorder cannot accept more work.
var ErrQueueFull = errors.New("statistics queue full")

type record struct {
	playerID string
	counter  Counter
}

// Async hands records to a background worker so game transitions never
// wait on the store.
type Async struct {
	next    Recorder
	queue   chan record
	timeout time.Duration
	logger  *log.Logger
}

// NewAsync creates an async recorder in front of next. Run must be started
// for records to be written.
func NewAsync(next Recorder, size int, logger *log.Logger) *Async {
	return &Async{
		next:    next,
		queue:   make(chan record, size),
		timeout: 5 * time.Second,
		logger:  logger.WithPrefix("stats"),
	}
}

// Record enqueues the increment without blocking.
func (a *Async) Record(_ context.Context, playerID string, c Counter) error {
	select {
	case a.queue <- record{playerID: playerID, counter: c}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run writes queued records until ctx is cancelled, then flushes what is
// already queued.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case r := <-a.queue:
			a.write(ctx, r)
		case <-ctx.Done():
			a.flush()
			return nil
		}
	}
}

func (a *Async) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for {
		select {
		case r := <-a.queue:
			a.write(ctx, r)
		default:
			return
		}
	}
}

func (a *Async) write(ctx context.Context, r record) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.next.Record(ctx, r.playerID, r.counter); err != nil {
		a.logger.Error("Failed to record statistic", "player_id", r.playerID, "counter", r.counter, "error", err)
	}
}
