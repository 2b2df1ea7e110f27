package project

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/mesh-intelligence/landmark/internal/repository"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Importer reads project archives into a store.
type Importer struct {
	store *repository.Store
	opts  options
}

// NewImporter returns an Importer writing to store.
func NewImporter(store *repository.Store, opts ...Option) *Importer {
	return &Importer{store: store, opts: applyOptions(opts)}
}

// rawData keeps every record undecoded so one bad record cannot reject the
// archive.
type rawData struct {
	Features     []json.RawMessage `json:"features"`
	Observations []json.RawMessage `json:"observations"`
	Measurements []json.RawMessage `json:"measurements"`
	Tasks        []json.RawMessage `json:"tasks"`
	Templates    []json.RawMessage `json:"templates"`
	Media        []json.RawMessage `json:"media"`
}

// ImportBytes imports an archive held in memory.
func (i *Importer) ImportBytes(ctx context.Context, archive []byte, mode Mode) (*Result, error) {
	return i.Import(ctx, bytes.NewReader(archive), int64(len(archive)), mode)
}

// Import reads the archive and creates its records in dependency order:
// templates, features, observations, measurements, tasks and media.
// Features and observations get fresh ids and the records that reference
// them are rewritten to match. The archive is fully checked before the
// first write; after that a record that fails is logged and skipped.
func (i *Importer) Import(ctx context.Context, r io.ReaderAt, size int64, mode Mode) (*Result, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrImportFormat, err)
	}

	var manifest Manifest
	if err := readEntry(zr, manifestEntry, &manifest); err != nil {
		return nil, err
	}
	if manifest.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedVersion, manifest.Version)
	}
	var raw rawData
	if err := readEntry(zr, dataEntry, &raw); err != nil {
		return nil, err
	}

	result := &Result{}
	batch := i.decode(&raw, result)

	err = i.store.DB().Transaction(ctx, func(ctx context.Context) error {
		if mode == ModeReplace {
			if err := i.store.Features.DeleteAll(ctx); err != nil {
				return err
			}
		}
		i.write(ctx, batch, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing project: %w", err)
	}

	i.opts.logger.Info("project imported",
		"mode", string(mode),
		"features", result.Features,
		"observations", result.Observations,
		"measurements", result.Measurements,
		"tasks", result.Tasks,
		"templates", result.Templates,
		"media", result.Media,
		"skipped", result.Skipped)
	return result, nil
}

func readEntry(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: missing %s", types.ErrImportFormat, name)
	}
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", types.ErrImportFormat, name, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", types.ErrImportFormat, name, err)
	}
	return nil
}

type batch struct {
	templates    []types.Template
	features     []types.Feature
	observations []types.Observation
	measurements []types.Measurement
	tasks        []types.Task
	media        []types.Media
}

func (i *Importer) decode(raw *rawData, result *Result) *batch {
	b := &batch{}
	b.templates = decodeAll[types.Template](i, "template", raw.Templates, result)
	b.features = decodeAll[types.Feature](i, "feature", raw.Features, result)
	b.observations = decodeAll[types.Observation](i, "observation", raw.Observations, result)
	b.measurements = decodeAll[types.Measurement](i, "measurement", raw.Measurements, result)
	b.tasks = decodeAll[types.Task](i, "task", raw.Tasks, result)
	b.media = decodeAll[types.Media](i, "media", raw.Media, result)
	return b
}

func decodeAll[T any](i *Importer, kind string, raws []json.RawMessage, result *Result) []T {
	out := make([]T, 0, len(raws))
	for n, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			i.skip(kind, fmt.Sprintf("#%d", n), err, result)
			continue
		}
		out = append(out, v)
	}
	return out
}

func (i *Importer) skip(kind, id string, err error, result *Result) {
	result.Skipped++
	i.opts.logger.Warn("skipping record", "kind", kind, "id", id, "error", err)
}

func (i *Importer) write(ctx context.Context, b *batch, result *Result) {
	s := i.store

	for _, t := range b.templates {
		_, err := s.Templates.Create(ctx, types.CreateTemplateInput{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Icon:        t.Icon,
			Schema:      t.Schema,
		}, false)
		if err != nil {
			i.skip("template", t.ID, err, result)
			continue
		}
		result.Templates++
	}

	features := remap{}
	for _, f := range b.features {
		created, err := s.Features.Create(ctx, types.CreateFeatureInput{
			Name:         f.Name,
			Description:  f.Description,
			GeometryType: f.GeometryType,
			Geometry:     f.Geometry,
			TemplateID:   f.TemplateID,
			Tags:         f.Tags,
			Properties:   f.Properties,
		})
		if err != nil {
			i.skip("feature", f.ID, err, result)
			continue
		}
		features[f.ID] = created.ID
		result.Features++
	}

	observations := remap{}
	for _, o := range b.observations {
		created, err := s.Observations.Create(ctx, types.CreateObservationInput{
			FeatureID:         features.id(o.FeatureID),
			Notes:             o.Notes,
			Tags:              o.Tags,
			RecordedAt:        timePtr(o.RecordedAt),
			ObserverLatitude:  o.ObserverLatitude,
			ObserverLongitude: o.ObserverLongitude,
			ObserverAccuracy:  o.ObserverAccuracy,
		})
		if err != nil {
			i.skip("observation", o.ID, err, result)
			continue
		}
		observations[o.ID] = created.ID
		result.Observations++
	}

	for _, m := range b.measurements {
		_, err := s.Measurements.Create(ctx, types.CreateMeasurementInput{
			FeatureID:  features.id(m.FeatureID),
			Metric:     m.Metric,
			Value:      m.Value,
			Unit:       m.Unit,
			Method:     m.Method,
			Accuracy:   m.Accuracy,
			Confidence: m.Confidence,
			Notes:      m.Notes,
			RecordedAt: timePtr(m.RecordedAt),
		})
		if err != nil {
			i.skip("measurement", m.ID, err, result)
			continue
		}
		result.Measurements++
	}

	for _, t := range b.tasks {
		_, err := s.Tasks.Create(ctx, types.CreateTaskInput{
			FeatureID:   features.id(t.FeatureID),
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
			Tags:        t.Tags,
		})
		if err != nil {
			i.skip("task", t.ID, err, result)
			continue
		}
		result.Tasks++
	}

	for _, m := range b.media {
		_, err := s.Media.Create(ctx, types.CreateMediaInput{
			FeatureID:       features.ref(m.FeatureID),
			ObservationID:   observations.ref(m.ObservationID),
			Type:            m.Type,
			Filename:        m.Filename,
			StoragePath:     m.StoragePath,
			MimeType:        m.MimeType,
			SizeBytes:       m.SizeBytes,
			Width:           m.Width,
			Height:          m.Height,
			DurationSeconds: m.DurationSeconds,
			Caption:         m.Caption,
			RecordedAt:      timePtr(m.RecordedAt),
			Latitude:        m.Latitude,
			Longitude:       m.Longitude,
			Accuracy:        m.Accuracy,
		})
		if err != nil {
			i.skip("media", m.ID, err, result)
			continue
		}
		result.Media++
	}
}

// remap maps archive ids to the ids created on import. Ids that were not
// imported pass through so records can attach to data already in the store.
type remap map[string]string

func (r remap) id(old string) string {
	if id, ok := r[old]; ok {
		return id
	}
	return old
}

func (r remap) ref(old *string) *string {
	if old == nil {
		return nil
	}
	id := r.id(*old)
	return &id
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
