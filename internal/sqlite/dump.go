package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Dump is the native backend's snapshot encoding.
type Dump struct {
	Database   string      `json:"database"`
	Version    int         `json:"version"`
	ExportedAt string      `json:"exportedAt"`
	Tables     []DumpTable `json:"tables"`
}

// DumpTable holds one table's rows as positional tuples.
type DumpTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// userTables lists the application tables in creation order so parents are
// written before children.
func userTables(ctx context.Context, e *engine) ([]string, error) {
	rows, err := e.All(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if name, ok := r["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func exportDump(ctx context.Context, e *engine, database string) ([]byte, error) {
	version, err := CurrentVersion(ctx, e)
	if err != nil {
		return nil, err
	}
	names, err := userTables(ctx, e)
	if err != nil {
		return nil, err
	}

	d := Dump{
		Database:   database,
		Version:    version,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Tables:     make([]DumpTable, 0, len(names)),
	}
	for _, name := range names {
		res, err := e.Execute(ctx, "SELECT * FROM "+quoteIdent(name))
		if err != nil {
			return nil, fmt.Errorf("dumping %s: %w", name, err)
		}
		rows := res.Rows
		if rows == nil {
			rows = [][]any{}
		}
		d.Tables = append(d.Tables, DumpTable{Name: name, Columns: res.Columns, Rows: rows})
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding dump: %w", err)
	}
	return data, nil
}

// decodeDump parses and validates a dump. Numbers decode as int64 when
// integral and float64 otherwise.
func decodeDump(data []byte) (*Dump, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var d Dump
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDump, err)
	}
	if d.Tables == nil {
		return nil, fmt.Errorf("%w: no tables", types.ErrInvalidDump)
	}
	for _, t := range d.Tables {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: table without name", types.ErrInvalidDump)
		}
		for _, row := range t.Rows {
			if len(row) != len(t.Columns) {
				return nil, fmt.Errorf("%w: table %s has a row of %d values for %d columns",
					types.ErrInvalidDump, t.Name, len(row), len(t.Columns))
			}
			for i, v := range row {
				row[i] = fromJSON(v)
			}
		}
	}
	return &d, nil
}

func fromJSON(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// importDump replaces the contents of every table named in the dump that
// exists in the open database. Foreign keys are suspended for the rewrite;
// the pragma has no effect inside a transaction so it is set around it.
func importDump(ctx context.Context, e *engine, d *Dump) error {
	existing, err := userTables(ctx, e)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	if err := e.exec(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return err
	}
	defer func() {
		if err := e.exec(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); err != nil {
			e.logger.Warn("re-enabling foreign keys failed", "error", err)
		}
	}()

	return e.Transaction(ctx, func(ctx context.Context) error {
		for _, t := range d.Tables {
			if !known[t.Name] {
				e.logger.Warn("skipping unknown table in dump", "table", t.Name)
				continue
			}
			if err := e.exec(ctx, "DELETE FROM "+quoteIdent(t.Name)); err != nil {
				return fmt.Errorf("clearing %s: %w", t.Name, err)
			}
			if len(t.Rows) == 0 {
				continue
			}
			stmt := insertStatement(t.Name, t.Columns)
			for _, row := range t.Rows {
				if err := e.exec(ctx, stmt, row...); err != nil {
					return fmt.Errorf("restoring %s: %w", t.Name, err)
				}
			}
		}
		return nil
	})
}

func insertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), placeholders)
}
