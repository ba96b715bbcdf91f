package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-sync/internal/client"
	"github.com/rocketscienceinc/tictactoe-sync/internal/client/termui"
	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
)

// main - is the entry point of the terminal client.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tictactoe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := config.LoadClient()
	if err != nil {
		return err
	}

	logger, closeLog, err := initLogger(conf)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, conf.ServerURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	view, err := termui.Open()
	if err != nil {
		return err
	}
	defer view.Close()

	err = client.New(logger, conn, view).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// the terminal belongs to the view, so logs go to a file or nowhere
func initLogger(conf *config.ClientConfig) (*slog.Logger, func(), error) {
	if conf.LogFile == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}

	file, err := os.OpenFile(conf.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level := slog.LevelInfo
	if conf.LogLevel == "debug" {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))

	return logger, func() { _ = file.Close() }, nil
}
