package templatestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
	_ "github.com/mattn/go-sqlite3"
)

const (
	EnvTemplateDir = "MODBUS_MAP_MAKER_TEMPLATE_DIR"
	CatalogFile    = "catalog.db"

	defaultDirname = ".modbus_map_maker"
	defaultSlug    = "template"

	tableTemplates = "templates"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	separators = regexp.MustCompile(`[\s_]+`)
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9-]`)
)

type Template struct {
	Slug        string
	DisplayName string
	Path        string
	StoredAt    time.Time
}

type Store struct {
	root string
	db   *sql.DB
	qb   sq.StatementBuilderType
	now  func() time.Time
}

// DefaultRoot resolves the store root from EnvTemplateDir, falling back to
// a directory under the user's home.
func DefaultRoot() (string, error) {
	if dir := os.Getenv(EnvTemplateDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, defaultDirname, "templates"), nil
}

// Open creates root if needed, migrates the catalog and opens it.
func Open(ctx context.Context, root string) (*Store, error) {
	if err := outfile.MkdirAll(root); err != nil {
		return nil, err
	}

	catalog := filepath.Join(root, CatalogFile)

	if err := migrateCatalog(catalog); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping catalog: %w", err), db.Close())
	}

	return &Store{
		root: root,
		db:   db,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:  time.Now,
	}, nil
}

func migrateCatalog(catalog string) (err error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migrations source: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+filepath.ToSlash(catalog))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := migrator.Close()
		err = errors.Join(err, srcErr, dbErr)
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply catalog migrations: %w", err)
	}

	return nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Store copies the workbook at source into the store. The slug comes from
// name, or the file stem when name is blank, and is made unique with a
// numeric suffix.
func (s *Store) Store(ctx context.Context, source, name string) (*Template, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, &domain.FileAccessError{Op: "open", Path: source, Err: err}
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %q is a directory", ErrUnsupportedTemplate, source)
	}

	suffix := strings.ToLower(filepath.Ext(source))
	if suffix != ".xlsx" && suffix != ".xls" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTemplate, source)
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	slug, err := s.uniqueSlug(ctx, Slugify(displayName), suffix)
	if err != nil {
		return nil, err
	}

	tmpl := &Template{
		Slug:        slug,
		DisplayName: displayName,
		Path:        filepath.Join(s.root, slug+suffix),
		StoredAt:    s.now().UTC(),
	}

	if err := copyFile(source, tmpl.Path); err != nil {
		return nil, err
	}

	query, args, err := s.qb.
		Insert(tableTemplates).
		Columns("slug", "display_name", "filename", "stored_at").
		Values(tmpl.Slug, tmpl.DisplayName, filepath.Base(tmpl.Path), tmpl.StoredAt).
		ToSql()
	if err != nil {
		return nil, errors.Join(createQueryError(err), removeIfExists(tmpl.Path))
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, errors.Join(executeQueryError(err), removeIfExists(tmpl.Path))
	}

	return tmpl, nil
}

func (s *Store) uniqueSlug(ctx context.Context, base, suffix string) (string, error) {
	for i := 1; ; i++ {
		slug := base
		if i > 1 {
			slug = base + "-" + strconv.Itoa(i)
		}

		taken, err := s.taken(ctx, slug, suffix)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
}

// taken reports whether slug is in the catalog or its file already exists.
func (s *Store) taken(ctx context.Context, slug, suffix string) (bool, error) {
	if _, err := os.Stat(filepath.Join(s.root, slug+suffix)); err == nil {
		return true, nil
	}

	_, err := s.Find(ctx, slug)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTemplateNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns every stored template ordered by slug, ignoring case.
func (s *Store) List(ctx context.Context) ([]*Template, error) {
	query, args, err := s.selectTemplates().
		OrderBy("slug COLLATE NOCASE ASC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		tmpl, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return templates, nil
}

func (s *Store) Find(ctx context.Context, slug string) (*Template, error) {
	query, args, err := s.selectTemplates().
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	tmpl, err := s.scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, slug)
	}
	if err != nil {
		return nil, err
	}

	return tmpl, nil
}

func (s *Store) Remove(ctx context.Context, slug string) error {
	tmpl, err := s.Find(ctx, slug)
	if err != nil {
		return err
	}

	query, args, err := s.qb.
		Delete(tableTemplates).
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return executeQueryError(err)
	}

	if err := removeIfExists(tmpl.Path); err != nil {
		return &domain.FileAccessError{Op: "remove", Path: tmpl.Path, Err: err}
	}

	return nil
}

// Clone copies a stored template to dest and returns the written path.
//
// An existing directory, or a path without an extension, receives the
// template under its stored file name. Anything else is the target file
// itself. An existing target is only replaced when overwrite is set.
func (s *Store) Clone(ctx context.Context, slug, dest string, overwrite bool) (string, error) {
	tmpl, err := s.Find(ctx, slug)
	if err != nil {
		return "", err
	}

	target := dest
	info, err := os.Stat(dest)
	switch {
	case err == nil && info.IsDir():
		target = filepath.Join(dest, filepath.Base(tmpl.Path))
	case err == nil:
	case !errors.Is(err, os.ErrNotExist):
		return "", &domain.FileAccessError{Op: "stat", Path: dest, Err: err}
	case filepath.Ext(dest) == "":
		target = filepath.Join(dest, filepath.Base(tmpl.Path))
	}

	if err := outfile.MkdirAll(filepath.Dir(target)); err != nil {
		return "", err
	}

	if _, err := os.Stat(target); err == nil && !overwrite {
		return "", fmt.Errorf("%w: %q", ErrTemplateExists, target)
	}

	if err := copyFile(tmpl.Path, target); err != nil {
		return "", err
	}

	return target, nil
}

func (s *Store) selectTemplates() sq.SelectBuilder {
	return s.qb.
		Select("slug", "display_name", "filename", "stored_at").
		From(tableTemplates)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner) (*Template, error) {
	var (
		tmpl     Template
		filename string
	)

	if err := row.Scan(&tmpl.Slug, &tmpl.DisplayName, &filename, &tmpl.StoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	tmpl.Path = filepath.Join(s.root, filename)

	return &tmpl, nil
}

// Slugify turns a display name into a lower-case, dash separated slug.
func Slugify(text string) string {
	text = strings.TrimSpace(text)
	text = separators.ReplaceAllString(text, "-")
	text = disallowed.ReplaceAllString(text, "")
	text = strings.ToLower(strings.Trim(text, "-"))

	if text == "" {
		return defaultSlug
	}
	return text
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &domain.FileAccessError{Op: "read", Path: src, Err: err}
	}
	return outfile.Write(dst, data)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func createQueryError(err error) error {
	return fmt.Errorf("failed to create query: %w", err)
}

func executeQueryError(err error) error {
	return fmt.Errorf("failed to execute query: %w", err)
}
