package blockstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const versionFile = "VERSION"

// Dir is a Store backed by a directory. Each keyspace is a subdirectory with
// a VERSION marker; each key is a file written atomically.
type Dir struct {
	root string
}

// NewDir returns a directory-backed store rooted at root, creating it if
// needed.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating block store root: %w", err)
	}
	return &Dir{root: root}, nil
}

// Open implements Store.
func (d *Dir) Open(ctx context.Context, keyspace string, version int) (Keyspace, error) {
	if err := checkName(keyspace); err != nil {
		return nil, err
	}
	dir := filepath.Join(d.root, keyspace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating keyspace %s: %w", keyspace, err)
	}

	stored, err := readVersion(filepath.Join(dir, versionFile))
	if err != nil {
		return nil, fmt.Errorf("reading keyspace %s version: %w", keyspace, err)
	}
	v, err := resolveVersion(stored, version)
	if err != nil {
		return nil, fmt.Errorf("opening keyspace %s: %w", keyspace, err)
	}
	if v != stored {
		if err := writeFileAtomic(filepath.Join(dir, versionFile), []byte(strconv.Itoa(v))); err != nil {
			return nil, fmt.Errorf("writing keyspace %s version: %w", keyspace, err)
		}
	}
	return &dirKeyspace{dir: dir, version: v}, nil
}

// readVersion returns 0 when the marker does not exist.
func readVersion(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

type dirKeyspace struct {
	dir     string
	version int
}

func (k *dirKeyspace) Version() int { return k.version }

func (k *dirKeyspace) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(filepath.Join(k.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading block %s: %w", key, err)
	}
	return data, true, nil
}

func (k *dirKeyspace) Put(_ context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(k.dir, key), data); err != nil {
		return fmt.Errorf("writing block %s: %w", key, err)
	}
	return nil
}

func (k *dirKeyspace) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(k.dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting block %s: %w", key, err)
	}
	return nil
}

// checkKey additionally reserves the version marker name.
func checkKey(key string) error {
	if err := checkName(key); err != nil {
		return err
	}
	if key == versionFile {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidKey, key)
	}
	return nil
}

// writeFileAtomic writes data using the temp-file, fsync, rename pattern.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".block-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
