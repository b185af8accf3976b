package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lox/lantern/internal/randutil"
	"github.com/lox/lantern/internal/server"
	"github.com/lox/lantern/internal/statistics"
)

// ServerCmd runs the game server.
type ServerCmd struct {
	Config   string `short:"c" default:"lantern.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Stats    string `help:"Statistics backend: memory, file or redis (overrides config)"`
	Seed     int64  `help:"Deterministic RNG seed (0 picks one from the clock)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Stats != "" {
		cfg.Stats.Backend = c.Stats
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStats(ctx, cfg.Stats)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close statistics store", "error", err)
		}
	}()
	recorder := statistics.NewAsync(store, 1024, logger)

	rng := randutil.NewSource(c.Seed)
	logger.Info("Starting Lantern server",
		"addr", cfg.Server.Addr,
		"seed", rng.Seed(),
		"stats", cfg.Stats.Backend,
		"deal_interval", cfg.Game.DealInterval(),
		"next_round_delay", cfg.Game.NextRoundDelay())

	srv := server.NewServer(server.Options{
		Addr:          cfg.Server.Addr,
		Game:          *cfg.Game,
		Logger:        logger,
		StatsRecorder: recorder,
		StatsReader:   store,
		Rand:          rng,
	})

	// The recorder outlives the server so records made during shutdown
	// are flushed.
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	var g errgroup.Group
	g.Go(func() error {
		defer stopRecorder()
		return srv.Run(ctx)
	})
	g.Go(func() error { return recorder.Run(recorderCtx) })

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func openStats(ctx context.Context, cfg *server.StatsSettings) (statistics.Store, error) {
	switch cfg.Backend {
	case "file":
		return statistics.OpenFileStore(cfg.File)
	case "redis":
		return statistics.NewRedisStore(ctx, statistics.RedisOptions{Addr: cfg.RedisAddr})
	default:
		return statistics.NewMemoryStore(), nil
	}
}

