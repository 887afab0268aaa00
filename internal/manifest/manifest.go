package manifest

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/torfstack/bust/internal/logging"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNoRuns is returned by Latest when nothing has been recorded yet.
var ErrNoRuns = errors.New("no runs recorded")

// Run is one build together with the mapping table it produced.
type Run struct {
	ID         string
	CreatedAt  time.Time
	HashType   string
	Production bool
	Mappings   map[string]string
}

// Store keeps past runs in a SQLite database.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create directory for database '%s': %w", path, err)
	}
	sqlDb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	s := &Store{sqlDb}
	err = s.runMigrations(ctx)
	if err != nil {
		_ = sqlDb.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	err := goose.SetDialect("sqlite")
	if err != nil {
		return fmt.Errorf("could not set dialect 'sqlite': %w", err)
	}
	goose.SetLogger(logging.MigrationLogger{})
	goose.SetBaseFS(embedMigrations)

	if err = goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores run and its mappings. An empty ID or creation time is
// filled in before writing.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = ulid.Make().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		"INSERT INTO runs (id, created_at, hash_type, production) VALUES (?, ?, ?, ?)",
		run.ID, run.CreatedAt.UnixMilli(), run.HashType, run.Production,
	)
	if err != nil {
		return fmt.Errorf("could not insert run '%s': %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO mappings (run_id, original, busted) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("could not prepare mapping insert: %w", err)
	}
	defer stmt.Close()
	for original, busted := range run.Mappings {
		if _, err = stmt.ExecContext(ctx, run.ID, original, busted); err != nil {
			return fmt.Errorf("could not insert mapping '%s': %w", original, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit run '%s': %w", run.ID, err)
	}
	logging.Debugf("Recorded run %s with %d mappings", run.ID, len(run.Mappings))
	return nil
}

// Latest returns the most recently recorded run.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	run := &Run{Mappings: make(map[string]string)}
	var createdAt int64
	err := s.db.QueryRowContext(
		ctx,
		"SELECT id, created_at, hash_type, production FROM runs ORDER BY id DESC LIMIT 1",
	).Scan(&run.ID, &createdAt, &run.HashType, &run.Production)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNoRuns
	case err != nil:
		return nil, fmt.Errorf("could not query latest run: %w", err)
	}
	run.CreatedAt = time.UnixMilli(createdAt)

	rows, err := s.db.QueryContext(ctx, "SELECT original, busted FROM mappings WHERE run_id = ?", run.ID)
	if err != nil {
		return nil, fmt.Errorf("could not query mappings of run '%s': %w", run.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var original, busted string
		if err = rows.Scan(&original, &busted); err != nil {
			return nil, fmt.Errorf("could not scan mapping: %w", err)
		}
		run.Mappings[original] = busted
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read mappings of run '%s': %w", run.ID, err)
	}
	return run, nil
}
