package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

// Writer records every conversion result in the registry. Successful
// results replace the file's registers and mark it done in one transaction.
type Writer struct {
	log            *slog.Logger
	results        <-chan *domain.ConversionResult
	reports        chan<- *domain.ConversionResult
	fileUpdater    FileUpdater
	registersSaver RegistersSaver
	transactor     Transactor
	now            func() time.Time
}

func NewWriter(
	log *slog.Logger,
	results <-chan *domain.ConversionResult,
	reports chan<- *domain.ConversionResult,
	fileUpdater FileUpdater,
	registersSaver RegistersSaver,
	transactor Transactor,
) *Writer {
	return &Writer{
		log:            log,
		results:        results,
		reports:        reports,
		fileUpdater:    fileUpdater,
		registersSaver: registersSaver,
		transactor:     transactor,
		now:            time.Now,
	}
}

func (w *Writer) Run(ctx context.Context) error {
	defer close(w.reports)

	for {
		select {
		case result, ok := <-w.results:
			if !ok {
				return nil
			}

			log := w.log.With(
				slog.String("filename", result.Filename),
				slog.Int("entries_count", result.EntriesCount()),
			)

			log.InfoContext(ctx, "received conversion result")

			if err := w.record(ctx, log, result); err != nil {
				log.ErrorContext(ctx, "failed to record conversion result", slog.String("err", err.Error()))
				continue
			}

			select {
			case w.reports <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Writer) record(ctx context.Context, log *slog.Logger, result *domain.ConversionResult) error {
	name := filepath.Base(result.Filename)
	now := w.now()

	if result.Error != nil {
		log.DebugContext(ctx, "marking file as failed")

		err := w.fileUpdater.UpdateOrCreateFile(ctx, &domain.File{
			Name:         name,
			Status:       domain.StatusError,
			ErrorMessage: result.Error.Error(),
			ProcessedAt:  &now,
		})
		if err != nil {
			return fmt.Errorf("failed to update file status: %w", err)
		}

		return nil
	}

	log.DebugContext(ctx, "saving registers")

	err := w.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if err := w.registersSaver.SaveRegisters(ctx, name, result.Spec.Entries...); err != nil {
			return fmt.Errorf("failed to save registers: %w", err)
		}

		err := w.fileUpdater.UpdateOrCreateFile(ctx, &domain.File{
			Name:         name,
			Status:       domain.StatusDone,
			EntriesCount: result.EntriesCount(),
			ProcessedAt:  &now,
		})
		if err != nil {
			return fmt.Errorf("failed to update file status: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	log.DebugContext(ctx, "registers saved")

	return nil
}
