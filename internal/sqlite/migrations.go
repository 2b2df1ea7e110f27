package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Migration is one versioned schema step. Up runs inside the migration's
// transaction.
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db types.Database) error
}

// Migrations returns the compiled-in migration list in ascending order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Description: "Initial schema", Up: statements(schemaV1)},
	}
}

// statements returns an Up func running each statement in order.
func statements(stmts []string) func(ctx context.Context, db types.Database) error {
	return func(ctx context.Context, db types.Database) error {
		for _, stmt := range stmts {
			if err := db.Run(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// LatestVersion returns the highest version in the compiled-in list.
func LatestVersion() int {
	latest := 0
	for _, m := range Migrations() {
		latest = max(latest, m.Version)
	}
	return latest
}

// Migrate applies every compiled-in migration newer than the recorded schema
// version and returns how many were applied.
func Migrate(ctx context.Context, db types.Database) (int, error) {
	return migrate(ctx, db, Migrations(), slog.Default())
}

func migrate(ctx context.Context, db types.Database, list []Migration, logger *slog.Logger) (int, error) {
	if err := db.Run(ctx, createSchemaVersion); err != nil {
		return 0, fmt.Errorf("creating schema_version: %w", err)
	}
	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range list {
		if m.Version <= current {
			continue
		}
		logger.Info("applying migration", "version", m.Version, "description", m.Description)
		err := db.Transaction(ctx, func(ctx context.Context) error {
			if err := m.Up(ctx, db); err != nil {
				return err
			}
			return db.Run(ctx,
				"INSERT INTO schema_version (version, description) VALUES (?, ?)",
				m.Version, m.Description)
		})
		if err != nil {
			return applied, fmt.Errorf("applying migration %d (%s): %w", m.Version, m.Description, err)
		}
		current = m.Version
		applied++
	}
	return applied, nil
}

// Getter is the single-row read that CurrentVersion needs.
type Getter interface {
	Get(ctx context.Context, query string, args ...any) (types.Row, error)
}

// CurrentVersion returns the highest applied migration version, or 0 when
// none has been applied.
func CurrentVersion(ctx context.Context, db Getter) (int, error) {
	row, err := db.Get(ctx, "SELECT MAX(version) AS version FROM schema_version")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if row == nil {
		return 0, nil
	}
	v, _ := row["version"].(int64)
	return int(v), nil
}
