// Package sqlite provides the public API for the landmark storage
// backends. It exposes the factory and the schema version helpers while
// keeping the engine and block store internal.
//
// Example:
//
//	db, err := sqlite.NewDatabase(types.Config{
//	    Platform: types.PlatformNative,
//	    DataDir:  "/var/lib/landmark",
//	})
//	if err != nil { ... }
//	if err := db.Initialize(ctx); err != nil { ... }
//	defer db.Close()
package sqlite

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
	"github.com/mesh-intelligence/landmark/internal/sqlite"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Option configures a backend created by NewDatabase.
type Option = sqlite.Option

// WithLogger sets the logger for SQL errors and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return sqlite.WithLogger(l)
}

// WithRegisterer counts storage activity in collectors registered with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return sqlite.WithMetrics(sqlite.NewMetrics(reg))
}

// WithMemoryBlocks keeps the web backend's image in process memory
// instead of under DataDir/blocks.
func WithMemoryBlocks() Option {
	return sqlite.WithBlockStore(blockstore.NewMemory())
}

// NewDatabase creates the backend for cfg's platform. The backend is not
// initialized; call Initialize before use.
func NewDatabase(cfg types.Config, opts ...Option) (types.Database, error) {
	return sqlite.NewDatabase(cfg, opts...)
}

// CurrentVersion returns the highest schema migration applied to db.
func CurrentVersion(ctx context.Context, db types.Database) (int, error) {
	return sqlite.CurrentVersion(ctx, db)
}

// LatestVersion returns the schema version this build migrates to.
func LatestVersion() int {
	return sqlite.LatestVersion()
}
