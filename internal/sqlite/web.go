package sqlite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Web backend storage layout.
const (
	imageKey        = "data"
	keyspaceVersion = 1
)

// imageHeader starts every SQLite database file.
var imageHeader = []byte("SQLite format 3\x00")

// ErrNoBlockStore is returned when a web backend has no block store.
var ErrNoBlockStore = errors.New("web database requires a block store")

// WebDatabase keeps its working copy in a private scratch file and writes
// the whole database image to a block store after every change. Nothing
// survives Close except the persisted image.
type WebDatabase struct {
	engine
	lifecycle sync.Mutex
	cfg       types.Config
	blocks    blockstore.Store
	keyspace  blockstore.Keyspace
	scratch   string
}

// NewWebDatabase returns an uninitialized web backend persisting to the
// block store set with WithBlockStore.
func NewWebDatabase(cfg types.Config, opts ...Option) *WebDatabase {
	o := applyOptions(opts)
	w := &WebDatabase{
		engine: engine{
			kind:    types.BackendWeb,
			logger:  o.logger,
			metrics: o.metrics,
		},
		cfg:    cfg.WithDefaults(),
		blocks: o.blocks,
	}
	w.persist = w.save
	return w
}

// Initialize implements types.Database. It loads the persisted image when
// one exists, applies pending migrations and persists the result.
func (w *WebDatabase) Initialize(ctx context.Context) error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.initialized() {
		return nil
	}
	if w.blocks == nil {
		return ErrNoBlockStore
	}

	ks, err := w.blocks.Open(ctx, w.cfg.Keyspace, keyspaceVersion)
	if err != nil {
		return fmt.Errorf("opening block store: %w", err)
	}
	w.keyspace = ks

	image, ok, err := ks.Get(ctx, imageKey)
	if err != nil {
		return fmt.Errorf("loading database image: %w", err)
	}
	if ok && len(image) > 0 {
		if err := checkImage(image); err != nil {
			return err
		}
	} else {
		image = nil
	}

	if err := w.open(ctx, image); err != nil {
		return err
	}
	if _, err := migrate(ctx, w, Migrations(), w.logger); err != nil {
		w.teardown()
		return err
	}
	if err := w.save(ctx); err != nil {
		w.teardown()
		return err
	}
	w.logger.Info("database initialized", "backend", w.kind, "keyspace", w.cfg.Keyspace, "restored", ok)
	return nil
}

// open writes image (if any) to a fresh scratch file and attaches to it.
func (w *WebDatabase) open(ctx context.Context, image []byte) error {
	dir, err := os.MkdirTemp(w.cfg.ScratchDir, "landmark-web-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	path := filepath.Join(dir, w.cfg.DatabaseName+".db")
	if image != nil {
		if err := os.WriteFile(path, image, 0o600); err != nil {
			os.RemoveAll(dir)
			return fmt.Errorf("writing scratch image: %w", err)
		}
	}
	db, err := openFile(ctx, path)
	if err != nil {
		os.RemoveAll(dir)
		return err
	}
	w.scratch = path
	w.attach(db)
	return nil
}

// teardown closes the handle and removes the scratch directory without
// persisting.
func (w *WebDatabase) teardown() error {
	var err error
	if db := w.detach(); db != nil {
		err = db.Close()
	}
	if w.scratch != "" {
		os.RemoveAll(filepath.Dir(w.scratch))
		w.scratch = ""
	}
	return err
}

// save writes the current image to the block store.
func (w *WebDatabase) save(ctx context.Context) error {
	if w.keyspace == nil || w.scratch == "" {
		return nil
	}
	image, err := os.ReadFile(w.scratch)
	if err != nil {
		return fmt.Errorf("reading database image: %w", err)
	}
	if err := w.keyspace.Put(ctx, imageKey, image); err != nil {
		return fmt.Errorf("persisting database image: %w", err)
	}
	w.metrics.persisted(len(image))
	return nil
}

// ExportDatabase implements types.Database. The snapshot is the raw SQLite
// image.
func (w *WebDatabase) ExportDatabase(ctx context.Context) ([]byte, error) {
	if _, err := w.handle(); err != nil {
		return nil, err
	}
	if w.inTransaction() {
		return nil, types.ErrNestedTransaction
	}
	image, err := os.ReadFile(w.scratch)
	if err != nil {
		return nil, fmt.Errorf("reading database image: %w", err)
	}
	return image, nil
}

// ImportDatabase implements types.Database. The image replaces the working
// copy and is persisted.
func (w *WebDatabase) ImportDatabase(ctx context.Context, data []byte) error {
	if err := checkImage(data); err != nil {
		return err
	}

	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if _, err := w.handle(); err != nil {
		return err
	}
	if w.inTransaction() {
		return types.ErrNestedTransaction
	}
	if err := w.teardown(); err != nil {
		w.logger.Warn("closing previous image failed", "error", err)
	}
	if err := w.open(ctx, data); err != nil {
		return err
	}
	if _, err := migrate(ctx, w, Migrations(), w.logger); err != nil {
		w.teardown()
		return err
	}
	return w.save(ctx)
}

// Close implements types.Database. The image is persisted before the
// scratch copy is removed.
func (w *WebDatabase) Close() error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if !w.initialized() {
		return nil
	}
	saveErr := w.save(context.Background())
	closeErr := w.teardown()
	if saveErr != nil {
		return saveErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing database: %w", closeErr)
	}
	return nil
}

// checkImage rejects data that is not a SQLite database file.
func checkImage(data []byte) error {
	if !bytes.HasPrefix(data, imageHeader) {
		return fmt.Errorf("%w: missing SQLite header", types.ErrInvalidImage)
	}
	return nil
}
