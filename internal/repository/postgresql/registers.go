package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

const TableRegisters = "registers"

// registerColumns match the db tags of domain.MapEntry. offset is a reserved
// word, so select lists go through quoted.
var registerColumns = []string{
	"device",
	"name",
	"address",
	"dtype",
	"scale",
	"offset",
	"unit",
	"rw",
	"function",
	"byte_order",
	"word_order",
	"description",
	"meta",
}

type RegistersRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewRegistersRepository(pool *pgxpool.Pool) *RegistersRepository {
	return &RegistersRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Devices summarizes every device that has registers, ordered by name.
func (r *RegistersRepository) Devices(ctx context.Context) ([]*domain.DeviceSummary, error) {
	sql, args, err := r.qb.
		Select(
			"device",
			"COUNT(*) AS registers_count",
			"COUNT(DISTINCT source_file) AS source_files",
		).
		From(TableRegisters).
		GroupBy("device").
		OrderBy("device ASC").
		ToSql()
	if err != nil {
		return nil, buildQueryError(TableRegisters, err)
	}

	rows, err := dbFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, execQueryError(TableRegisters, err)
	}

	devices, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.DeviceSummary])
	if err != nil {
		return nil, collectRowsError(TableRegisters, err)
	}

	return devices, nil
}

// RegistersByDevice pages through the registers of device across all source
// files, ordered by source file and then by position in that file.
func (r *RegistersRepository) RegistersByDevice(
	ctx context.Context,
	device string,
	limit, offset uint64,
) ([]*domain.MapEntry, int, error) {
	db := dbFrom(ctx, r.pool)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableRegisters).
		Where(sq.Eq{"device": device}).
		ToSql()
	if err != nil {
		return nil, -1, buildQueryError(TableRegisters, err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, execQueryError(TableRegisters, err)
	}

	sql, args, err = r.qb.
		Select(quoted(registerColumns)...).
		From(TableRegisters).
		Where(sq.Eq{"device": device}).
		OrderBy("source_file ASC", "position ASC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, -1, buildQueryError(TableRegisters, err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, execQueryError(TableRegisters, err)
	}

	registers, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.MapEntry])
	if err != nil {
		return nil, -1, collectRowsError(TableRegisters, err)
	}

	return registers, total, nil
}

// SaveRegisters replaces every register previously stored for sourceFile.
// Call it inside a transaction to keep the replacement atomic.
func (r *RegistersRepository) SaveRegisters(ctx context.Context, sourceFile string, entries ...domain.MapEntry) error {
	db := dbFrom(ctx, r.pool)

	sql, args, err := r.qb.
		Delete(TableRegisters).
		Where(sq.Eq{"source_file": sourceFile}).
		ToSql()
	if err != nil {
		return buildQueryError(TableRegisters, err)
	}

	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return execQueryError(TableRegisters, err)
	}

	columns := append([]string{"source_file", "position"}, registerColumns...)

	copied, err := db.CopyFrom(ctx, pgx.Identifier{TableRegisters}, columns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]

			meta, err := json.Marshal(e.Meta)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal meta of %s.%s: %w", e.Device, e.Name, err)
			}

			return []any{
				sourceFile,
				i + 1,
				e.Device,
				e.Name,
				e.Address,
				string(e.DType),
				e.Scale,
				e.Offset,
				e.Unit,
				string(e.RW),
				string(e.Function),
				string(e.ByteOrder),
				string(e.WordOrder),
				e.Description,
				meta,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to copy registers: %w", classify(err))
	}

	if copied != int64(len(entries)) {
		return fmt.Errorf("failed to save registers: copied %d rows, expected %d", copied, len(entries))
	}

	return nil
}

func quoted(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = pgx.Identifier{c}.Sanitize()
	}
	return out
}
