package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/kurochkinivan/modbus_map_maker/internal/config"
	"github.com/urfave/cli/v3"
)

// Schema of the watch service registry: processed files and their registers.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

type loggerKey struct{}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := context.WithValue(context.Background(), loggerKey{}, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	err := cmd().Run(ctx, os.Args)
	stop()

	if err != nil {
		log.Error("migration failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func cmd() *cli.Command {
	var configFile string

	return &cli.Command{
		Name:  "migrator",
		Usage: "Manage the registry schema of the watch service",
		Flags: append([]cli.Flag{config.FileFlag(&configFile)}, config.PostgreSQLFlags(&configFile)...),
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Usage: "Apply at most `N` migrations, 0 applies all"},
				},
				Action: withMigrator(func(ctx context.Context, cmd *cli.Command, m *migrate.Migrate) error {
					if n := cmd.Int("steps"); n > 0 {
						return m.Steps(n)
					}
					return m.Up()
				}),
			},
			{
				Name:  "down",
				Usage: "Revert applied migrations, one by default",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Usage: "Revert `N` migrations", Value: 1},
					&cli.BoolFlag{Name: "all", Usage: "Revert every migration"},
				},
				Action: withMigrator(func(ctx context.Context, cmd *cli.Command, m *migrate.Migrate) error {
					if cmd.Bool("all") {
						return m.Down()
					}

					n := cmd.Int("steps")
					if n < 1 {
						return fmt.Errorf("steps must be positive, got %d", n)
					}
					return m.Steps(-n)
				}),
			},
			{
				Name:  "version",
				Usage: "Print the applied schema version",
				Action: withMigrator(func(ctx context.Context, cmd *cli.Command, m *migrate.Migrate) error {
					return nil
				}),
			},
			{
				Name:      "force",
				Usage:     "Mark the schema as VERSION without running migrations, clearing the dirty flag",
				ArgsUsage: "VERSION",
				Action: withMigrator(func(ctx context.Context, cmd *cli.Command, m *migrate.Migrate) error {
					version, err := strconv.Atoi(cmd.Args().First())
					if err != nil {
						return fmt.Errorf("invalid version %q: %w", cmd.Args().First(), err)
					}
					return m.Force(version)
				}),
			},
		},
	}
}

type migration func(ctx context.Context, cmd *cli.Command, m *migrate.Migrate) error

// withMigrator opens the migrator, runs fn and logs the resulting version.
func withMigrator(fn migration) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		log, ok := ctx.Value(loggerKey{}).(*slog.Logger)
		if !ok {
			return errors.New("failed to get logger from context")
		}

		pg := config.LoadPostgreSQL(cmd)
		if err := pg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		src, err := iofs.New(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("failed to create migrations source: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", src, pg.DSN())
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
		defer func() {
			srcErr, dbErr := m.Close()
			err = errors.Join(err, srcErr, dbErr)
		}()

		if err := fn(ctx, cmd, m); err != nil {
			if !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to run %s: %w", cmd.Name, err)
			}
			log.InfoContext(ctx, "schema is already up to date")
		}

		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.InfoContext(ctx, "no migrations applied", slog.String("command", cmd.Name))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		log.InfoContext(ctx, "schema version",
			slog.String("command", cmd.Name),
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)

		return nil
	}
}
