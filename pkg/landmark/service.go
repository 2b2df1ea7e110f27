// Package landmark is the composition root of the local data layer. A
// Service owns the database handle: the first call to Database picks the
// storage variant for the platform, initializes it and installs the builtin
// templates; later calls reuse the handle until Close.
package landmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/landmark/internal/repository"
	"github.com/mesh-intelligence/landmark/internal/sqlite"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Version is the application version recorded in project archives.
const Version = "0.1.0"

// Service lazily opens and caches the database.
type Service struct {
	cfg    types.Config
	logger *slog.Logger
	reg    prometheus.Registerer

	mu      sync.Mutex
	metrics *sqlite.Metrics
	db      types.Database
	store   *repository.Store
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger handed to the storage and repository layers.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRegisterer registers storage metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) { s.reg = reg }
}

// NewService returns a Service for cfg. Nothing is opened until Database.
func NewService(cfg types.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the initialized database, opening it on first use.
// Concurrent first calls share one initialization. A failed attempt leaves
// the Service closed so the next call retries.
func (s *Service) Database(ctx context.Context) (types.Database, error) {
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db, nil
}

// Store returns the repository store over the database, opening it on
// first use.
func (s *Service) Store(ctx context.Context) (*repository.Store, error) {
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store, nil
}

// Peek returns the database only if it is already initialized, and nil
// otherwise. It never opens anything.
func (s *Service) Peek() types.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Close releases the database. The next Database call initializes afresh.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.store = nil, nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (s *Service) open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	if s.metrics == nil && s.reg != nil {
		s.metrics = sqlite.NewMetrics(s.reg)
	}
	db, err := sqlite.NewDatabase(s.cfg, sqlite.WithLogger(s.logger), sqlite.WithMetrics(s.metrics))
	if err != nil {
		return err
	}
	if err := db.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing %s database: %w", db.Kind(), err)
	}

	store := repository.New(db, repository.WithLogger(s.logger))
	n, err := store.SeedBuiltinTemplates(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("seeding builtin templates: %w", err)
	}
	if n > 0 {
		s.logger.Info("installed builtin templates", "count", n)
	}

	s.db, s.store = db, store
	return nil
}
