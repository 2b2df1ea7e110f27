// Package repository maps domain entities onto the landmark schema. Each
// table accessor issues plain SQL through types.Database, so the same code
// runs against the native and web backends.
package repository

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Store groups one accessor per table.
type Store struct {
	db     types.Database
	logger *slog.Logger

	Features     *FeaturesTable
	Observations *ObservationsTable
	Measurements *MeasurementsTable
	Tasks        *TasksTable
	Templates    *TemplatesTable
	Media        *MediaTable
	Settings     *SettingsTable
}

// Option configures a Store.
type Option func(*env)

// env is the state every table accessor shares.
type env struct {
	db     types.Database
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// WithLogger sets the logger used for skipped records.
func WithLogger(l *slog.Logger) Option {
	return func(e *env) { e.logger = l }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithIDGenerator replaces UUID v7 generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *env) { e.newID = gen }
}

// New returns a Store over an initialized database.
func New(db types.Database, opts ...Option) *Store {
	e := &env{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  generateUUID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return &Store{
		db:           db,
		logger:       e.logger,
		Features:     &FeaturesTable{e},
		Observations: &ObservationsTable{e},
		Measurements: &MeasurementsTable{e},
		Tasks:        &TasksTable{e},
		Templates:    &TemplatesTable{e},
		Media:        &MediaTable{e},
		Settings:     &SettingsTable{e},
	}
}

// DB returns the underlying database.
func (s *Store) DB() types.Database { return s.db }

// stamp returns the current time formatted for storage.
func (e *env) stamp() string {
	return formatTime(e.now())
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
