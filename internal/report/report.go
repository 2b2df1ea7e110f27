// Package report renders a project as a spreadsheet workbook with one sheet
// per collection and a summary sheet first.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/landmark/internal/geo"
	"github.com/mesh-intelligence/landmark/internal/project"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Sheet names in workbook order.
const (
	SheetSummary      = "Summary"
	SheetFeatures     = "Features"
	SheetObservations = "Observations"
	SheetMeasurements = "Measurements"
	SheetTasks        = "Tasks"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04"
)

// WriteWorkbook writes data as an xlsx workbook to w. Sizes on the Features
// sheet are formatted in the given unit system.
func WriteWorkbook(w io.Writer, data *project.Data, units geo.Units) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{SheetFeatures, SheetObservations, SheetMeasurements, SheetTasks} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("adding sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	names := make(map[string]string, len(data.Features))
	for _, ft := range data.Features {
		names[ft.ID] = ft.Name
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetSummary, []any{"Collection", "Count"}, summaryRows(data, units)},
		{SheetFeatures, []any{"Name", "Type", "Template", "Tags", "Size", "Area (m²)", "Length (m)", "Latitude", "Longitude", "Created"}, featureRows(data.Features, units)},
		{SheetObservations, []any{"Feature", "Recorded", "Notes", "Tags"}, observationRows(data.Observations, names)},
		{SheetMeasurements, []any{"Feature", "Metric", "Value", "Unit", "Method", "Confidence", "Recorded"}, measurementRows(data.Measurements, names)},
		{SheetTasks, []any{"Feature", "Title", "Status", "Priority", "Due", "Completed", "Tags"}, taskRows(data.Tasks, names)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func summaryRows(data *project.Data, units geo.Units) [][]any {
	var area, length float64
	for _, ft := range data.Features {
		area += geo.Area(ft.Geometry)
		length += geo.Length(ft.Geometry)
	}
	return [][]any{
		{"Features", len(data.Features)},
		{"Observations", len(data.Observations)},
		{"Measurements", len(data.Measurements)},
		{"Tasks", len(data.Tasks)},
		{"Media", len(data.Media)},
		{"Custom templates", len(data.Templates)},
		{"Total area", geo.FormatArea(area, units)},
		{"Total line length", geo.FormatDistance(length, units)},
	}
}

func featureRows(features []types.Feature, units geo.Units) [][]any {
	rows := make([][]any, 0, len(features))
	for _, ft := range features {
		center := geo.Center(ft.Geometry)
		rows = append(rows, []any{
			ft.Name,
			string(ft.GeometryType),
			deref(ft.TemplateID),
			strings.Join(ft.Tags, ", "),
			geo.Size(ft.Geometry, units),
			geo.Area(ft.Geometry),
			geo.Length(ft.Geometry),
			center[0],
			center[1],
			ft.CreatedAt.Format(timeLayout),
		})
	}
	return rows
}

func observationRows(obs []types.Observation, names map[string]string) [][]any {
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []any{
			featureName(names, o.FeatureID),
			o.RecordedAt.Format(timeLayout),
			deref(o.Notes),
			strings.Join(o.Tags, ", "),
		})
	}
	return rows
}

func measurementRows(ms []types.Measurement, names map[string]string) [][]any {
	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		var confidence string
		if m.Confidence != nil {
			confidence = string(*m.Confidence)
		}
		rows = append(rows, []any{
			featureName(names, m.FeatureID),
			m.Metric,
			m.Value,
			m.Unit,
			string(m.Method),
			confidence,
			m.RecordedAt.Format(timeLayout),
		})
	}
	return rows
}

func taskRows(tasks []types.Task, names map[string]string) [][]any {
	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		var priority any = ""
		if t.Priority != nil {
			priority = *t.Priority
		}
		rows = append(rows, []any{
			featureName(names, t.FeatureID),
			t.Title,
			string(t.Status),
			priority,
			formatOpt(t.DueDate, dateLayout),
			formatOpt(t.CompletedAt, timeLayout),
			strings.Join(t.Tags, ", "),
		})
	}
	return rows
}

// featureName falls back to the id for records whose feature is not in the
// data set.
func featureName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatOpt(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}
