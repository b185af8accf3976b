package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lox/lantern/internal/client"
)

// ClientCmd plays from the terminal.
type ClientCmd struct {
	Server   string `default:"http://localhost:8080" help:"Server URL"`
	Name     string `default:"" help:"Display name (defaults to $USER or \"Player\")"`
	PlayerID string `help:"Player id from an earlier session, to rejoin a game"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *ClientCmd) Run() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "Player"
	}
	level := "warn"
	if c.Debug {
		level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return client.Run(ctx, client.Config{
		Server:   strings.TrimSpace(c.Server),
		Name:     name,
		PlayerID: strings.TrimSpace(c.PlayerID),
	}, os.Stdin, os.Stdout, newLogger(level))
}
