package postgresql

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

const TableFiles = "files"

var fileColumns = []string{
	"name",
	"status",
	"entries_count",
	"error_message",
	"processed_at",
}

// FilesRepository tracks the conversion state of every mapping file seen in
// the watch directory.
type FilesRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewFilesRepository(pool *pgxpool.Pool) *FilesRepository {
	return &FilesRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *FilesRepository) Files(ctx context.Context) ([]*domain.File, error) {
	return r.files(ctx, nil)
}

// FilesByStatus lists the files currently in status.
func (r *FilesRepository) FilesByStatus(ctx context.Context, status domain.Status) ([]*domain.File, error) {
	return r.files(ctx, sq.Eq{"status": status})
}

func (r *FilesRepository) files(ctx context.Context, where sq.Sqlizer) ([]*domain.File, error) {
	query := r.qb.
		Select(fileColumns...).
		From(TableFiles).
		OrderBy("name ASC")
	if where != nil {
		query = query.Where(where)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, buildQueryError(TableFiles, err)
	}

	rows, err := dbFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, execQueryError(TableFiles, err)
	}

	files, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.File])
	if err != nil {
		return nil, collectRowsError(TableFiles, err)
	}

	return files, nil
}

// UpdateOrCreateFile upserts file by name. A nil ProcessedAt keeps the time
// of the previous conversion, so a file being reprocessed still reports when
// it was last converted.
func (r *FilesRepository) UpdateOrCreateFile(ctx context.Context, file *domain.File) error {
	sql, args, err := r.qb.
		Insert(TableFiles).
		Columns(fileColumns...).
		Values(
			file.Name,
			file.Status,
			file.EntriesCount,
			file.ErrorMessage,
			file.ProcessedAt,
		).
		Suffix(`ON CONFLICT (name) DO UPDATE SET
			status = EXCLUDED.status,
			entries_count = EXCLUDED.entries_count,
			error_message = EXCLUDED.error_message,
			processed_at = COALESCE(EXCLUDED.processed_at, files.processed_at)`).
		ToSql()
	if err != nil {
		return buildQueryError(TableFiles, err)
	}

	if _, err := dbFrom(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return execQueryError(TableFiles, err)
	}

	return nil
}

// ResetProcessingFiles puts files left in processing by an interrupted run
// back to pending and returns how many there were.
func (r *FilesRepository) ResetProcessingFiles(ctx context.Context) (int64, error) {
	sql, args, err := r.qb.
		Update(TableFiles).
		Set("status", domain.StatusPending).
		Where(sq.Eq{"status": domain.StatusProcessing}).
		ToSql()
	if err != nil {
		return 0, buildQueryError(TableFiles, err)
	}

	tag, err := dbFrom(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return 0, execQueryError(TableFiles, err)
	}

	return tag.RowsAffected(), nil
}
