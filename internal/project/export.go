package project

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/landmark/internal/repository"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Exporter writes project archives.
type Exporter struct {
	store *repository.Store
	opts  options
}

// NewExporter returns an Exporter reading from store.
func NewExporter(store *repository.Store, opts ...Option) *Exporter {
	return &Exporter{store: store, opts: applyOptions(opts)}
}

// Gather reads every collection concurrently. Builtin templates are left
// out; the returned count includes them.
func (e *Exporter) Gather(ctx context.Context) (*Data, int, error) {
	var (
		data      Data
		templates []types.Template
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Features, err = e.store.Features.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Observations, err = e.store.Observations.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Measurements, err = e.store.Measurements.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Tasks, err = e.store.Tasks.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		templates, err = e.store.Templates.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Media, err = e.store.Media.GetAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("gathering project data: %w", err)
	}

	data.Templates = make([]types.Template, 0, len(templates))
	for _, t := range templates {
		if !t.IsBuiltin {
			data.Templates = append(data.Templates, t)
		}
	}
	return &data, len(templates), nil
}

// Export writes a zip archive of the whole project to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (*Manifest, error) {
	data, templateCount, err := e.Gather(ctx)
	if err != nil {
		return nil, err
	}
	manifest := &Manifest{
		Version:    FormatVersion,
		ExportedAt: e.opts.now().UTC(),
		AppVersion: e.opts.appVersion,
		Statistics: Statistics{
			FeatureCount:     len(data.Features),
			ObservationCount: len(data.Observations),
			MeasurementCount: len(data.Measurements),
			TaskCount:        len(data.Tasks),
			MediaCount:       len(data.Media),
			TemplateCount:    templateCount,
		},
	}

	zw := zip.NewWriter(w)
	for _, entry := range []struct {
		name string
		v    any
	}{
		{manifestEntry, manifest},
		{dataEntry, data},
	} {
		f, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", entry.name, err)
		}
		if err := writeJSON(f, entry.v); err != nil {
			return nil, fmt.Errorf("writing %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}

	e.opts.logger.Info("project exported",
		"features", manifest.Statistics.FeatureCount,
		"observations", manifest.Statistics.ObservationCount,
		"tasks", manifest.Statistics.TaskCount)
	return manifest, nil
}

// ExportBytes returns the archive in memory.
func (e *Exporter) ExportBytes(ctx context.Context) ([]byte, *Manifest, error) {
	var buf bytes.Buffer
	m, err := e.Export(ctx, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), m, nil
}
