package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/wordday/schemas"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version VARCHAR(255) NOT NULL PRIMARY KEY
)`

// Migrate applies the embedded migrations of the connection's driver that have
// not been applied yet, in file name order. Each migration runs in its own
// transaction together with its version record.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) ([]string, error) {
	return migrate(ctx, db, schemas.Migrations, logger)
}

func migrate(ctx context.Context, db *sqlx.DB, files fs.FS, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := path.Join("migrations", db.DriverName())
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations for %s: %w", db.DriverName(), err)
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Strings(versions)

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	var applied []string
	if err := db.SelectContext(ctx, &applied, "SELECT version FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}

	var ran []string
	for _, version := range versions {
		if done[version] {
			continue
		}
		content, err := fs.ReadFile(files, path.Join(dir, version))
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", version, err)
		}

		err = RunInTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("apply migration %s: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
				return fmt.Errorf("record migration %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return ran, err
		}
		logger.Info("applied migration", "version", version)
		ran = append(ran, version)
	}
	return ran, nil
}
