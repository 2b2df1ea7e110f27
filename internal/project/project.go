// Package project moves a whole landmark project in and out of a zip
// archive holding manifest.json and data.json. Media binaries stay where
// they are; only their metadata travels.
package project

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// FormatVersion is the archive layout written by Export and the only one
// Import accepts.
const FormatVersion = "1.0"

const (
	manifestEntry = "manifest.json"
	dataEntry     = "data.json"
)

// Statistics counts the records in an archive. TemplateCount includes the
// builtin templates even though data.json does not carry them.
type Statistics struct {
	FeatureCount     int `json:"featureCount"`
	ObservationCount int `json:"observationCount"`
	MeasurementCount int `json:"measurementCount"`
	TaskCount        int `json:"taskCount"`
	MediaCount       int `json:"mediaCount"`
	TemplateCount    int `json:"templateCount"`
}

// Manifest describes an archive.
type Manifest struct {
	Version    string     `json:"version"`
	ExportedAt time.Time  `json:"exportedAt"`
	AppVersion string     `json:"appVersion"`
	Statistics Statistics `json:"statistics"`
}

// Data is the content of data.json.
type Data struct {
	Features     []types.Feature     `json:"features"`
	Observations []types.Observation `json:"observations"`
	Measurements []types.Measurement `json:"measurements"`
	Tasks        []types.Task        `json:"tasks"`
	Templates    []types.Template    `json:"templates"`
	Media        []types.Media       `json:"media"`
}

// Mode selects how Import treats existing data.
type Mode string

// Import modes.
const (
	// ModeReplace deletes every feature, and with it the dependent
	// records, before importing.
	ModeReplace Mode = "replace"
	// ModeMerge imports alongside the existing data.
	ModeMerge Mode = "merge"
)

// ParseMode validates an import mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReplace, ModeMerge:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q (want replace or merge)", types.ErrInvalidMode, s)
}

// Result counts the records Import created.
type Result struct {
	Features     int `json:"featuresImported"`
	Observations int `json:"observationsImported"`
	Measurements int `json:"measurementsImported"`
	Tasks        int `json:"tasksImported"`
	Templates    int `json:"templatesImported"`
	Media        int `json:"mediaImported"`
	Skipped      int `json:"skipped"`
}

// Option configures an Exporter or Importer.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	appVersion string
	now        func() time.Time
}

// WithLogger sets the logger for per-record warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAppVersion sets the version recorded in the manifest.
func WithAppVersion(v string) Option {
	return func(o *options) { o.appVersion = v }
}

// WithClock replaces time.Now for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func applyOptions(opts []Option) options {
	o := options{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		appVersion: "dev",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
