// Package migrate applies versioned SQL migrations before the server starts.
// Applied versions are tracked in a schema_migrations table; each migration
// file runs inside its own transaction.
package migrate

import (
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"gorm.io/gorm"
)

type migration struct {
	version string
	name    string
	sql     string
}

// Up applies every pending *.up.sql file from dir, in version order.
func Up(db *gorm.DB, dir fs.FS) error {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`).Error; err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	migrations, err := load(dir)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var count int64
		if err := db.Table("schema_migrations").Where("version = ?", m.version).Count(&count).Error; err != nil {
			return fmt.Errorf("migrate: check version %s: %w", m.version, err)
		}
		if count > 0 {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.sql).Error; err != nil {
				return err
			}
			return tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version).Error
		})
		if err != nil {
			return fmt.Errorf("migrate: apply %s: %w", m.name, err)
		}

		log.Printf("applied migration %s", m.name)
	}

	return nil
}

func load(dir fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("migrate: read dir: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		version, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migrate: bad migration filename %q", name)
		}

		sql, err := fs.ReadFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", name, err)
		}

		migrations = append(migrations, migration{
			version: version,
			name:    name,
			sql:     string(sql),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations, nil
}
