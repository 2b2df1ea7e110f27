package blockstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a Store held in process memory. Intended for tests.
type Memory struct {
	mu        sync.Mutex
	keyspaces map[string]*memoryKeyspace
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{keyspaces: make(map[string]*memoryKeyspace)}
}

// Open implements Store.
func (m *Memory) Open(_ context.Context, keyspace string, version int) (Keyspace, error) {
	if err := checkName(keyspace); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ks, ok := m.keyspaces[keyspace]
	stored := 0
	if ok {
		stored = ks.Version()
	}
	v, err := resolveVersion(stored, version)
	if err != nil {
		return nil, fmt.Errorf("opening keyspace %s: %w", keyspace, err)
	}
	if !ok {
		ks = &memoryKeyspace{blocks: make(map[string][]byte)}
		m.keyspaces[keyspace] = ks
	}
	ks.mu.Lock()
	ks.version = v
	ks.mu.Unlock()
	return ks, nil
}

type memoryKeyspace struct {
	mu      sync.RWMutex
	version int
	blocks  map[string][]byte
}

func (k *memoryKeyspace) Version() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.version
}

func (k *memoryKeyspace) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkName(key); err != nil {
		return nil, false, err
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	data, ok := k.blocks[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (k *memoryKeyspace) Put(_ context.Context, key string, data []byte) error {
	if err := checkName(key); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.blocks[key] = append([]byte(nil), data...)
	return nil
}

func (k *memoryKeyspace) Delete(_ context.Context, key string) error {
	if err := checkName(key); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.blocks, key)
	return nil
}
