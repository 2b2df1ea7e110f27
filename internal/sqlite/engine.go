// Package sqlite implements the two storage backends behind types.Database:
// a native file-backed database that shares connections by name, and a web
// database that hydrates from and persists to a block store image. Both run
// on the pure-Go modernc.org/sqlite driver and share the engine in this
// file, the migration runner, and the metrics collector.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const driverName = "sqlite"

// engine holds the state shared by both backends: the open handle, the
// transaction flag and the persistence hook the web backend installs.
type engine struct {
	mu      sync.RWMutex
	kind    types.Backend
	db      *sql.DB
	inTx    bool
	logger  *slog.Logger
	metrics *Metrics

	// persist runs after every mutating statement outside a transaction and
	// after every commit. Nil for the native backend.
	persist func(ctx context.Context) error
}

// openFile opens a SQLite file with foreign keys enforced. The pool is
// limited to one connection so BEGIN/COMMIT issued through Run and the
// statements between them share a connection.
func openFile(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}
	return db, nil
}

// handle returns the open database or ErrNotInitialized.
func (e *engine) handle() (*sql.DB, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.db == nil {
		return nil, types.ErrNotInitialized
	}
	return e.db, nil
}

func (e *engine) initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db != nil
}

func (e *engine) inTransaction() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inTx
}

// Kind implements types.Database.
func (e *engine) Kind() types.Backend { return e.kind }

// Execute implements types.Database.
func (e *engine) Execute(ctx context.Context, query string, args ...any) (types.QueryResult, error) {
	db, err := e.handle()
	if err != nil {
		return types.QueryResult{}, err
	}
	e.metrics.statement(e.kind, opExecute)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.QueryResult{}, e.fail(opExecute, query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return types.QueryResult{}, e.fail(opExecute, query, err)
	}
	res := types.QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return types.QueryResult{}, e.fail(opExecute, query, err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return types.QueryResult{}, e.fail(opExecute, query, err)
	}
	return res, nil
}

// Run implements types.Database. Outside a transaction the persistence hook
// runs before Run returns.
func (e *engine) Run(ctx context.Context, query string, args ...any) error {
	if err := e.exec(ctx, query, args...); err != nil {
		return err
	}
	if e.persist != nil && !e.inTransaction() {
		return e.persist(ctx)
	}
	return nil
}

// exec runs a statement without the persistence hook.
func (e *engine) exec(ctx context.Context, query string, args ...any) error {
	db, err := e.handle()
	if err != nil {
		return err
	}
	e.metrics.statement(e.kind, opRun)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return e.fail(opRun, query, err)
	}
	return nil
}

// Get implements types.Database.
func (e *engine) Get(ctx context.Context, query string, args ...any) (types.Row, error) {
	res, err := e.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rows := res.Objects()
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// All implements types.Database.
func (e *engine) All(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	res, err := e.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return res.Objects(), nil
}

// Transaction implements types.Database. The error returned by fn is
// returned unchanged after the rollback. A panic in fn rolls back and is
// re-raised.
func (e *engine) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := e.beginTx(); err != nil {
		return err
	}
	defer e.endTx()

	if err := e.exec(ctx, "BEGIN"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			e.rollback(ctx)
			panic(r)
		}
	}()
	if err := fn(ctx); err != nil {
		e.rollback(ctx)
		return err
	}
	if err := e.exec(ctx, "COMMIT"); err != nil {
		e.rollback(ctx)
		return fmt.Errorf("committing transaction: %w", err)
	}
	e.metrics.transaction(e.kind, outcomeCommit)

	if e.persist != nil {
		e.endTx()
		return e.persist(ctx)
	}
	return nil
}

func (e *engine) beginTx() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return types.ErrNotInitialized
	}
	if e.inTx {
		return types.ErrNestedTransaction
	}
	e.inTx = true
	return nil
}

func (e *engine) endTx() {
	e.mu.Lock()
	e.inTx = false
	e.mu.Unlock()
}

func (e *engine) rollback(ctx context.Context) {
	e.metrics.transaction(e.kind, outcomeRollback)
	if err := e.exec(context.WithoutCancel(ctx), "ROLLBACK"); err != nil {
		e.logger.Warn("rollback failed", "backend", e.kind, "error", err)
	}
}

// fail records and logs a failed statement and wraps the driver error. The
// driver's message is kept so constraint violations stay recognisable.
func (e *engine) fail(op, query string, err error) error {
	e.metrics.failure(e.kind, op)
	e.logger.Error("sql error", "backend", e.kind, "op", op, "query", compact(query), "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

// detach closes and forgets the handle under the write lock.
func (e *engine) detach() *sql.DB {
	e.mu.Lock()
	defer e.mu.Unlock()
	db := e.db
	e.db = nil
	e.inTx = false
	return db
}

func (e *engine) attach(db *sql.DB) {
	e.mu.Lock()
	e.db = db
	e.mu.Unlock()
}

// normalize maps driver values onto the Row value set.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, string:
		return x
	case []byte:
		return append([]byte(nil), x...)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// compact squeezes whitespace so statements log on one line.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
