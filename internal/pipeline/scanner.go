package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/mapping"
)

// Scanner polls the watch directory and queues mapping files that are new,
// pending, or edited after they were last converted.
type Scanner struct {
	log           *slog.Logger
	watchDir      string
	scanInterval  time.Duration
	files         chan<- string
	filesProvider FilesProvider
	fileUpdater   FileUpdater
}

func NewScanner(
	log *slog.Logger,
	watchDir string,
	scanInterval time.Duration,
	files chan<- string,
	filesProvider FilesProvider,
	fileUpdater FileUpdater,
) *Scanner {
	return &Scanner{
		log:           log,
		watchDir:      watchDir,
		scanInterval:  scanInterval,
		files:         files,
		filesProvider: filesProvider,
		fileUpdater:   fileUpdater,
	}
}

func (s *Scanner) Run(ctx context.Context) error {
	defer close(s.files)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.log.DebugContext(ctx, "scan cycle started")

			if err := s.scan(ctx); err != nil {
				s.log.ErrorContext(ctx, "failed to scan watch directory", slog.String("err", err.Error()))
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scanner) scan(ctx context.Context) error {
	known, err := s.knownFiles(ctx)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(s.watchDir)
	if err != nil {
		return fmt.Errorf("failed to read directory %q: %w", s.watchDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !mapping.IsMappingFile(entry.Name()) {
			continue
		}

		queue, err := s.shouldQueue(entry, known[entry.Name()])
		if err != nil {
			s.log.ErrorContext(ctx, "failed to inspect mapping file, skipping",
				slog.String("filename", entry.Name()),
				slog.String("err", err.Error()),
			)
			continue
		}
		if !queue {
			continue
		}

		if err := s.queue(ctx, entry.Name()); err != nil {
			s.log.ErrorContext(ctx, "failed to queue mapping file, skipping",
				slog.String("filename", entry.Name()),
				slog.String("err", err.Error()),
			)
		}
	}

	return nil
}

func (s *Scanner) knownFiles(ctx context.Context) (map[string]*domain.File, error) {
	files, err := s.filesProvider.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}

	known := make(map[string]*domain.File, len(files))
	for _, file := range files {
		known[file.Name] = file
	}

	return known, nil
}

func (s *Scanner) shouldQueue(entry os.DirEntry, file *domain.File) (bool, error) {
	if file == nil {
		return true, nil
	}

	switch file.Status {
	case domain.StatusPending:
		return true, nil
	case domain.StatusProcessing:
		return false, nil
	}

	if file.ProcessedAt == nil {
		return false, nil
	}

	info, err := entry.Info()
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return info.ModTime().After(*file.ProcessedAt), nil
}

func (s *Scanner) queue(ctx context.Context, name string) error {
	err := s.fileUpdater.UpdateOrCreateFile(ctx, &domain.File{
		Name:   name,
		Status: domain.StatusProcessing,
	})
	if err != nil {
		return fmt.Errorf("failed to update file status: %w", err)
	}

	s.log.DebugContext(ctx, "queued mapping file", slog.String("filename", name))

	select {
	case s.files <- filepath.Join(s.watchDir, name):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
