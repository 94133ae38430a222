package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/emit"
)

const (
	exitCodeOK = iota
	exitCodeInternalErr
	exitCodeInputErr
)

type loggerKey struct{}

var logLevel = new(slog.LevelVar)

func main() {
	ctx := context.Background()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx = context.WithValue(ctx, loggerKey{}, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	err := cmd().Run(ctx, os.Args)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates bad input from everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitCodeOK
	case errors.Is(err, domain.ErrSchema),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, emit.ErrDuplicateSymbol):
		return exitCodeInputErr
	default:
		return exitCodeInternalErr
	}
}

func logger(ctx context.Context) (*slog.Logger, error) {
	log, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok {
		return nil, errors.New("failed to get logger from context")
	}
	return log, nil
}
