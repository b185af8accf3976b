package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
)

func TestTimerSlotFires(t *testing.T) {
	ctx := context.Background()
	mClock := quartz.NewMock(t)
	slot := NewTimerSlot(mClock, "turn")

	fired := make(chan uint64, 1)
	gen := slot.Arm(5*time.Second, func(g uint64) { fired <- g })
	assert.True(t, slot.Pending())

	mClock.Advance(5 * time.Second).MustWait(ctx)
	got := <-fired
	assert.Equal(t, gen, got)
	assert.True(t, slot.Claim(got))
	assert.False(t, slot.Pending())
	assert.False(t, slot.Claim(got), "claimed once")
}

func TestTimerSlotStopPreventsFire(t *testing.T) {
	ctx := context.Background()
	mClock := quartz.NewMock(t)
	slot := NewTimerSlot(mClock, "arrange")

	fired := make(chan uint64, 1)
	slot.Arm(time.Second, func(g uint64) { fired <- g })
	slot.Stop()
	assert.False(t, slot.Pending())

	mClock.Advance(time.Second).MustWait(ctx)
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestTimerSlotRearmInvalidatesOldGeneration(t *testing.T) {
	slot := NewTimerSlot(quartz.NewMock(t), "turn")

	first := slot.Arm(time.Second, func(uint64) {})
	second := slot.Arm(time.Second, func(uint64) {})

	assert.NotEqual(t, first, second)
	assert.False(t, slot.Claim(first), "a callback from the first timer is stale")
	assert.True(t, slot.Claim(second))
}
