package pipeline

import (
	"context"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

// FilesProvider lists the files the registry already knows about.
type FilesProvider interface {
	Files(ctx context.Context) ([]*domain.File, error)
}

type FileUpdater interface {
	UpdateOrCreateFile(ctx context.Context, file *domain.File) error
}

// RegistersSaver replaces every register stored for sourceFile with entries.
type RegistersSaver interface {
	SaveRegisters(ctx context.Context, sourceFile string, entries ...domain.MapEntry) error
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReportGenerator renders the register table of one device to outputPath.
type ReportGenerator interface {
	GenerateReport(outputPath, device, sourceFile string, entries []domain.MapEntry) error
}
