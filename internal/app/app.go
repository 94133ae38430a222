package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kurochkinivan/modbus_map_maker/internal/config"
	v1 "github.com/kurochkinivan/modbus_map_maker/internal/controller/http/v1"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/report_generator"
	"github.com/kurochkinivan/modbus_map_maker/internal/pipeline"
	"github.com/kurochkinivan/modbus_map_maker/internal/repository/postgresql"
	"golang.org/x/sync/errgroup"
)

const (
	filesBuffer   = 100
	resultsBuffer = 50
	reportsBuffer = 100

	shutdownTimeout = 5 * time.Second
)

// App runs the watch service: the conversion pipeline and the registry API.
type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

// component is one long-running part of the service. run must return when
// its context is done.
type component struct {
	name string
	run  func(ctx context.Context) error
}

func (a *App) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.log.InfoContext(ctx, "starting watch service",
		slog.String("watch_dir", a.cfg.WatchDirectory),
		slog.String("build_dir", a.cfg.BuildDirectory),
		slog.Duration("scan_interval", a.cfg.ScanInterval),
		slog.Int("parser_workers", a.cfg.ParserWorkers),
		slog.Bool("reports", a.cfg.Reports),
	)

	if err := outfile.MkdirAll(a.cfg.BuildDirectory); err != nil {
		return fmt.Errorf("failed to prepare build directory: %w", err)
	}

	a.log.InfoContext(ctx, "connecting to registry database",
		slog.String("postgresql_host", a.cfg.PostgreSQL.Host),
		slog.String("postgresql_port", a.cfg.PostgreSQL.Port),
		slog.String("postgresql_dbname", a.cfg.PostgreSQL.DBName),
	)

	pool, err := postgresql.NewConnection(ctx, a.log, a.cfg.PostgreSQL)
	if err != nil {
		return fmt.Errorf("failed to connect to registry database: %w", err)
	}
	defer pool.Close()

	filesRepo := postgresql.NewFilesRepository(pool)
	registersRepo := postgresql.NewRegistersRepository(pool)
	txManager := postgresql.NewTxManager(pool)

	reset, err := filesRepo.ResetProcessingFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset interrupted files: %w", err)
	}
	if reset > 0 {
		a.log.WarnContext(ctx, "requeued files interrupted by the previous run", slog.Int64("files", reset))
	}

	return a.run(ctx, a.components(filesRepo, registersRepo, txManager))
}

func (a *App) components(
	filesRepo *postgresql.FilesRepository,
	registersRepo *postgresql.RegistersRepository,
	txManager *postgresql.TxManager,
) []component {
	files := make(chan string, filesBuffer)
	results := make(chan *domain.ConversionResult, resultsBuffer)
	reports := make(chan *domain.ConversionResult, reportsBuffer)

	var generator pipeline.ReportGenerator
	if a.cfg.Reports {
		generator = report_generator.New()
	}

	scanner := pipeline.NewScanner(a.log, a.cfg.WatchDirectory, a.cfg.ScanInterval, files, filesRepo, filesRepo)
	parser := pipeline.NewParser(a.log, a.cfg.ParserWorkers, files, results)
	writer := pipeline.NewWriter(a.log, results, reports, filesRepo, registersRepo, txManager)
	reporter := pipeline.NewReporter(a.log, a.cfg.BuildDirectory, reports, generator)
	server := v1.NewServer(a.cfg.HTTP, filesRepo, registersRepo)

	return []component{
		{name: "scanner", run: scanner.Run},
		{name: "parser", run: parser.Run},
		{name: "writer", run: writer.Run},
		{name: "reporter", run: reporter.Run},
		{name: "http server", run: func(ctx context.Context) error {
			return serve(ctx, a.log, server)
		}},
	}
}

func (a *App) run(ctx context.Context, components []component) error {
	erg, ctx := errgroup.WithContext(ctx)

	for _, c := range components {
		erg.Go(func() error {
			a.log.InfoContext(ctx, "component started", slog.String("component", c.name))

			if err := c.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", c.name, err)
			}

			a.log.InfoContext(ctx, "component stopped", slog.String("component", c.name))
			return nil
		})
	}

	if err := erg.Wait(); err != nil {
		a.log.ErrorContext(ctx, "watch service stopped with error", slog.String("err", err.Error()))
		return err
	}

	a.log.InfoContext(ctx, "watch service stopped gracefully")

	return nil
}

func serve(ctx context.Context, log *slog.Logger, server *v1.Server) error {
	errChan := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "listening", slog.String("addr", server.Addr()))
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}
