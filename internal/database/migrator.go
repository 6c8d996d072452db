package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"skyroute-backend/pkg/logger"
)

// Migrator applies *.sql files from a filesystem in name order and records
// each applied file in schema_migrations.
type Migrator struct {
	pool *pgxpool.Pool
	fsys fs.FS
	dir  string
	log  logger.Logger
}

// NewMigrator creates a migration runner over fsys (usually migrations.FS).
//
// Parameters:
//   - pool: PostgreSQL connection pool
//   - fsys: filesystem holding the migration files
//   - dir: directory inside fsys, "." for the root
func NewMigrator(pool *pgxpool.Pool, fsys fs.FS, dir string, log logger.Logger) *Migrator {
	return &Migrator{pool: pool, fsys: fsys, dir: dir, log: log}
}

// RunMigrations executes all pending migrations.
//
// Files containing "reset" in their name are never run. Each file is
// executed in its own transaction together with its schema_migrations row,
// so a failed file leaves no partial record.
//
// Returns the number of files applied.
func (m *Migrator) RunMigrations(ctx context.Context) (int, error) {
	m.log.Info("starting database migrations")

	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := m.pending(applied)
	if err != nil {
		return 0, err
	}

	for _, filename := range files {
		content, err := fs.ReadFile(m.fsys, m.path(filename))
		if err != nil {
			return 0, fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		m.log.Info("running migration", "file", filename)
		if err := m.apply(ctx, filename, string(content)); err != nil {
			return 0, fmt.Errorf("failed to run migration %s: %w", filename, err)
		}
	}

	if len(files) > 0 {
		m.log.Info("migrations applied", "count", len(files))
	} else {
		m.log.Info("database is up to date")
	}
	return len(files), nil
}

// pending lists unapplied, non-reset .sql files in name order.
func (m *Migrator) pending(applied map[string]bool) ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if strings.Contains(name, "reset") {
			m.log.Warn("skipping reset script", "file", name)
			continue
		}
		if applied[name] {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) path(filename string) string {
	if m.dir == "" || m.dir == "." {
		return filename
	}
	return m.dir + "/" + filename
}

func (m *Migrator) apply(ctx context.Context, filename, sql string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`,
		filename,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}

	return applied, rows.Err()
}
