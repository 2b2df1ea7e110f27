package types

import "context"

// Backend identifies a storage variant.
type Backend string

// Storage variants.
const (
	BackendNative Backend = "native"
	BackendWeb    Backend = "web"
)

// QueryResult is the uniform column/row shape returned by Execute regardless
// of the engine behind it.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Row is a single result row keyed by column name. Values are nil, int64,
// float64, string or []byte.
type Row map[string]any

// Objects projects every row of the result into a Row keyed by column name.
func (r QueryResult) Objects() []Row {
	out := make([]Row, 0, len(r.Rows))
	for _, values := range r.Rows {
		row := make(Row, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out
}

// Database is the storage capability shared by the native and web backends.
// Callers initialize once, issue statements, and close when done. After
// Close every method except Initialize and Close returns ErrNotInitialized.
type Database interface {
	// Initialize opens or reattaches to the store and applies pending
	// migrations. A second call while initialized is a no-op.
	Initialize(ctx context.Context) error

	// Execute runs a query and returns its columns and row tuples.
	Execute(ctx context.Context, query string, args ...any) (QueryResult, error)

	// Run executes a statement without rows. Changes are durable when Run
	// returns (outside a transaction).
	Run(ctx context.Context, query string, args ...any) error

	// Get returns the first row of the query, or nil when there is none.
	Get(ctx context.Context, query string, args ...any) (Row, error)

	// All returns every row of the query.
	All(ctx context.Context, query string, args ...any) ([]Row, error)

	// Transaction brackets fn with BEGIN and COMMIT, rolling back and
	// returning the error when fn fails. Transactions do not nest.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// ExportDatabase returns a whole-store snapshot in the backend's own
	// encoding.
	ExportDatabase(ctx context.Context) ([]byte, error)

	// ImportDatabase restores a snapshot produced by ExportDatabase.
	ImportDatabase(ctx context.Context, data []byte) error

	// Close releases the underlying resources. Close is idempotent.
	Close() error

	// Kind reports which storage variant this is.
	Kind() Backend
}
