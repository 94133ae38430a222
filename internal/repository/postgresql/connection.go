package postgresql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/modbus_map_maker/internal/config"
)

const (
	applicationName = "modbus_map_maker"

	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 10 * time.Second
)

// NewConnection opens the registry pool and waits for the server to answer,
// retrying with a doubling delay up to cfg.ConnectRetries times.
func NewConnection(ctx context.Context, log *slog.Logger, cfg config.PostgreSQL) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	ping := Retry(log, pool.Ping, cfg.ConnectRetries, initialRetryDelay)

	if err := ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	return pool, nil
}

type PingFunction func(context.Context) error

// Retry calls ping until it succeeds or retries are used up. The delay
// doubles after each failure and is capped at maxRetryDelay.
func Retry(log *slog.Logger, ping PingFunction, retries int, delay time.Duration) PingFunction {
	return func(ctx context.Context) error {
		wait := delay

		for attempt := 1; ; attempt++ {
			err := ping(ctx)
			if err == nil || attempt > retries {
				return err
			}

			log.WarnContext(ctx, "registry database is not reachable yet",
				slog.Int("attempt", attempt),
				slog.Int("retries", retries),
				slog.Duration("retry_in", wait),
				slog.String("err", err.Error()),
			)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}

			wait = min(wait*2, maxRetryDelay)
		}
	}
}
