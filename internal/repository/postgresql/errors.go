package postgresql

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotMigrated means the registry tables are missing. Run cmd/migrator.
var ErrNotMigrated = errors.New("registry schema is not migrated")

const undefinedTableCode = "42P01"

func buildQueryError(table string, err error) error {
	return fmt.Errorf("failed to build %s query: %w", table, err)
}

func execQueryError(table string, err error) error {
	return fmt.Errorf("failed to query %s: %w", table, classify(err))
}

func collectRowsError(table string, err error) error {
	return fmt.Errorf("failed to collect %s rows: %w", table, classify(err))
}

// classify marks undefined table errors with ErrNotMigrated.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
		return fmt.Errorf("%w: %w", ErrNotMigrated, err)
	}

	return err
}
