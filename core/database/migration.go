package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

type Migrator struct {
	pool       *Pool
	migrations []Migration
}

func NewMigrator(pool *Pool, migrations []Migration) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	return &Migrator{
		pool:       pool,
		migrations: sorted,
	}
}

// Migrate applies all pending migrations in version order. Each
// migration runs in its own transaction together with the version bump.
func (m *Migrator) Migrate(ctx context.Context) error {
	currentVersion, err := m.pool.Version()
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Description, err)
		}
	}

	return nil
}

func (m *Migrator) applyMigration(ctx context.Context, migration Migration) error {
	return m.pool.Transaction(ctx, func(tx *sql.Tx) error {
		if err := migration.Up(tx); err != nil {
			return err
		}

		_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version))
		return err
	})
}

func (m *Migrator) CurrentVersion() (int, error) {
	return m.pool.Version()
}

func (m *Migrator) PendingMigrations() ([]Migration, error) {
	currentVersion, err := m.pool.Version()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}
