package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/internal/geo"
	"github.com/mesh-intelligence/landmark/internal/project"
	"github.com/mesh-intelligence/landmark/internal/report"
	"github.com/mesh-intelligence/landmark/pkg/landmark"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// writeFile creates path and hands it to fn. The file is removed when fn
// fails. A path of "-" writes to stdout.
func writeFile(cmd *cobra.Command, path string, fn func(w io.Writer) error) error {
	if path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (a *app) projectOptions() []project.Option {
	return []project.Option{
		project.WithLogger(a.logger),
		project.WithAppVersion(landmark.Version),
	}
}

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.zip>",
		Short: "Export the project to a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			exporter := project.NewExporter(store, a.projectOptions()...)
			var manifest *project.Manifest
			err = writeFile(cmd, args[0], func(w io.Writer) error {
				manifest, err = exporter.Export(cmd.Context(), w)
				return err
			})
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), manifest)
			}
			s := manifest.Statistics
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d features, %d observations, %d measurements, %d tasks, %d media to %s\n",
				s.FeatureCount, s.ObservationCount, s.MeasurementCount, s.TaskCount, s.MediaCount, args[0])
			return nil
		}),
	}
}

func (a *app) newImportCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "import <file.zip>",
		Short: "Import a project archive",
		Long: "Import a project archive. Replace mode deletes every feature and its\n" +
			"records first; merge mode adds the archive alongside existing data.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			m, err := project.ParseMode(mode)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrImportFormat, err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", args[0], err)
			}

			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			importer := project.NewImporter(store, a.projectOptions()...)
			result, err := importer.Import(cmd.Context(), f, info.Size(), m)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d features, %d observations, %d measurements, %d tasks, %d templates, %d media (%d skipped)\n",
				result.Features, result.Observations, result.Measurements, result.Tasks, result.Templates, result.Media, result.Skipped)
			return nil
		}),
	}
	cmd.Flags().StringVar(&mode, "mode", string(project.ModeMerge), "import mode: replace or merge")
	return cmd
}

func (a *app) newGeoJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geojson <file>",
		Short: "Write every feature as a GeoJSON FeatureCollection (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			features, err := store.Features.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			data, err := geo.FeatureCollection(features).MarshalJSON()
			if err != nil {
				return fmt.Errorf("encode geojson: %w", err)
			}
			return writeFile(cmd, args[0], func(w io.Writer) error {
				_, err := w.Write(append(data, '\n'))
				return err
			})
		}),
	}
}

func (a *app) newReportCmd() *cobra.Command {
	var units string
	cmd := &cobra.Command{
		Use:   "report <file.xlsx>",
		Short: "Write a spreadsheet report of the project",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			u := a.units(ctx, store)
			if units != "" {
				u = geo.Units(units)
				if u != geo.Metric && u != geo.Imperial {
					return fmt.Errorf("%w: units %q (want metric or imperial)", types.ErrInvalidValue, units)
				}
			}
			data, _, err := project.NewExporter(store, a.projectOptions()...).Gather(ctx)
			if err != nil {
				return err
			}
			if err := writeFile(cmd, args[0], func(w io.Writer) error {
				return report.WriteWorkbook(w, data, u)
			}); err != nil {
				return err
			}
			if !a.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote report for %d features to %s\n", len(data.Features), args[0])
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&units, "units", "", "metric or imperial (default: units_system setting)")
	return cmd
}
