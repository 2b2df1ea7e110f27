package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// ErrConnectionConflict is returned when a connection name is already open
// against a different file.
var ErrConnectionConflict = errors.New("connection name already open at another path")

// registry shares open connections by name across the process, the way a
// platform SQLite plugin keeps named connections alive between callers.
var registry = struct {
	mu    sync.Mutex
	conns map[string]*sharedConn
}{conns: make(map[string]*sharedConn)}

type sharedConn struct {
	db   *sql.DB
	path string
	refs int
}

// acquire returns the named connection, opening it on first use. The second
// result reports whether an existing connection was reused.
func acquire(ctx context.Context, name, path string) (*sql.DB, bool, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if c, ok := registry.conns[name]; ok {
		if c.path != path {
			return nil, false, fmt.Errorf("%w: %s is open at %s", ErrConnectionConflict, name, c.path)
		}
		c.refs++
		return c.db, true, nil
	}

	db, err := openFile(ctx, path)
	if err != nil {
		return nil, false, err
	}
	registry.conns[name] = &sharedConn{db: db, path: path, refs: 1}
	return db, false, nil
}

// release drops one reference and closes the connection with the last one.
func release(name string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	c, ok := registry.conns[name]
	if !ok {
		return nil
	}
	c.refs--
	if c.refs > 0 {
		return nil
	}
	delete(registry.conns, name)
	return c.db.Close()
}

// isConnection reports whether a named connection is open.
func isConnection(name string) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	_, ok := registry.conns[name]
	return ok
}

// NativeDatabase stores data in <DataDir>/<DatabaseName>.db. Instances with
// the same DatabaseName share one connection.
type NativeDatabase struct {
	engine
	lifecycle sync.Mutex
	cfg       types.Config
}

// NewNativeDatabase returns an uninitialized native backend.
func NewNativeDatabase(cfg types.Config, opts ...Option) *NativeDatabase {
	o := applyOptions(opts)
	return &NativeDatabase{
		engine: engine{
			kind:    types.BackendNative,
			logger:  o.logger,
			metrics: o.metrics,
		},
		cfg: cfg.WithDefaults(),
	}
}

// Path returns the database file location.
func (n *NativeDatabase) Path() string {
	return filepath.Join(n.cfg.DataDir, n.cfg.DatabaseName+".db")
}

// Initialize implements types.Database.
func (n *NativeDatabase) Initialize(ctx context.Context) error {
	n.lifecycle.Lock()
	defer n.lifecycle.Unlock()

	if n.initialized() {
		return nil
	}
	if DetectPlatform(n.cfg.Platform) == types.PlatformWeb {
		return fmt.Errorf("native database: %w", types.ErrPlatformMismatch)
	}
	if err := n.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if n.cfg.DataDir != "" {
		if err := os.MkdirAll(n.cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, reused, err := acquire(ctx, n.cfg.DatabaseName, n.Path())
	if err != nil {
		return err
	}
	if reused {
		n.logger.Debug("reusing connection", "name", n.cfg.DatabaseName)
	}
	n.attach(db)

	if _, err := migrate(ctx, n, Migrations(), n.logger); err != nil {
		n.detach()
		release(n.cfg.DatabaseName)
		return err
	}
	n.logger.Info("database initialized", "backend", n.kind, "path", n.Path())
	return nil
}

// Close implements types.Database.
func (n *NativeDatabase) Close() error {
	n.lifecycle.Lock()
	defer n.lifecycle.Unlock()

	if n.detach() == nil {
		return nil
	}
	if err := release(n.cfg.DatabaseName); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// ExportDatabase implements types.Database. The snapshot is a JSON dump of
// every table.
func (n *NativeDatabase) ExportDatabase(ctx context.Context) ([]byte, error) {
	if _, err := n.handle(); err != nil {
		return nil, err
	}
	return exportDump(ctx, &n.engine, n.cfg.DatabaseName)
}

// ImportDatabase implements types.Database. Every table present in the dump
// is replaced by the dump's rows, then pending migrations run.
func (n *NativeDatabase) ImportDatabase(ctx context.Context, data []byte) error {
	if _, err := n.handle(); err != nil {
		return err
	}
	d, err := decodeDump(data)
	if err != nil {
		return err
	}
	if err := importDump(ctx, &n.engine, d); err != nil {
		return err
	}
	if _, err := migrate(ctx, n, Migrations(), n.logger); err != nil {
		return err
	}
	return nil
}
