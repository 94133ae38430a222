package pipeline

import (
	"context"
	"log/slog"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/mapping"
	"golang.org/x/sync/errgroup"
)

// Parser converts queued mapping files into specs using a fixed number of
// workers. A file that fails to load still produces a result carrying the
// error. Results of different files may arrive out of queue order.
type Parser struct {
	log     *slog.Logger
	workers int
	files   <-chan string
	results chan<- *domain.ConversionResult
}

func NewParser(
	log *slog.Logger,
	workers int,
	files <-chan string,
	results chan<- *domain.ConversionResult,
) *Parser {
	return &Parser{
		log:     log,
		workers: max(workers, 1),
		files:   files,
		results: results,
	}
}

// Run returns once files is closed and drained, or ctx is done. results is
// closed after every worker has stopped.
func (p *Parser) Run(ctx context.Context) error {
	defer close(p.results)

	erg, ctx := errgroup.WithContext(ctx)

	for id := range p.workers {
		erg.Go(func() error {
			return p.work(ctx, p.log.With(slog.Int("worker", id)))
		})
	}

	return erg.Wait()
}

func (p *Parser) work(ctx context.Context, log *slog.Logger) error {
	for {
		select {
		case filename, ok := <-p.files:
			if !ok {
				return nil
			}

			result := p.convert(ctx, log.With(slog.String("filename", filename)), filename)

			select {
			case p.results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Parser) convert(ctx context.Context, log *slog.Logger, filename string) *domain.ConversionResult {
	log.DebugContext(ctx, "loading mapping file")

	spec, err := mapping.LoadMapping(filename)
	if err != nil {
		log.ErrorContext(ctx, "failed to load mapping", slog.String("err", err.Error()))
	} else {
		log.DebugContext(ctx, "mapping loaded", slog.Int("entries_count", len(spec.Entries)))
	}

	return &domain.ConversionResult{
		Filename: filename,
		Spec:     spec,
		Error:    err,
	}
}
