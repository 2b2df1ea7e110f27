package sqlite

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
)

// Option configures a backend.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
	blocks  blockstore.Store
}

// WithLogger sets the logger used for SQL errors and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the collector that counts storage activity.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBlockStore sets the block store the web backend persists to.
func WithBlockStore(s blockstore.Store) Option {
	return func(o *options) { o.blocks = s }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
