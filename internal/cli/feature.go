package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/internal/geo"
	"github.com/mesh-intelligence/landmark/internal/repository"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

func (a *app) newFeatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Manage map features",
	}
	cmd.AddCommand(
		a.newFeatureListCmd(),
		a.newFeatureShowCmd(),
		a.newFeatureCreateCmd(),
		a.newFeatureDeleteCmd(),
		a.newFeatureTagsCmd(),
	)
	return cmd
}

func (a *app) newFeatureListCmd() *cobra.Command {
	var geometryType, tag, template, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List features, newest first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var features []types.Feature
			switch {
			case geometryType != "":
				gt, perr := parseGeometryType(geometryType)
				if perr != nil {
					return perr
				}
				features, err = store.Features.GetByType(ctx, gt)
			case tag != "":
				features, err = store.Features.GetByTag(ctx, tag)
			case template != "":
				features, err = store.Features.GetByTemplateID(ctx, template)
			case search != "":
				features, err = store.Features.Search(ctx, search)
			default:
				features, err = store.Features.GetAll(ctx)
			}
			if err != nil {
				return err
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), features)
			}
			units := a.units(ctx, store)
			t := newTable(cmd.OutOrStdout(), "ID", "NAME", "TYPE", "TAGS", "SIZE")
			for _, f := range features {
				t.row(f.ID, f.Name, string(f.GeometryType), joinTags(f.Tags), geo.Size(f.Geometry, units))
			}
			return t.flush()
		}),
	}
	cmd.Flags().StringVar(&geometryType, "type", "", "only features of this geometry type (point, line, polygon)")
	cmd.Flags().StringVar(&tag, "tag", "", "only features carrying this tag")
	cmd.Flags().StringVar(&template, "template", "", "only features of this template")
	cmd.Flags().StringVar(&search, "search", "", "match name or description")
	cmd.MarkFlagsMutuallyExclusive("type", "tag", "template", "search")
	return cmd
}

func (a *app) newFeatureShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a feature with its activity summary",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tl, err := store.Features.Timeline(ctx, args[0])
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), tl)
			}

			units := a.units(ctx, store)
			center := geo.Center(tl.Geometry)
			out := cmd.OutOrStdout()
			field(out, "ID", tl.ID)
			field(out, "Name", tl.Name)
			field(out, "Description", deref(tl.Description))
			field(out, "Type", string(tl.GeometryType))
			field(out, "Size", geo.Size(tl.Geometry, units))
			field(out, "Center", fmt.Sprintf("%.6f, %.6f", center[0], center[1]))
			field(out, "Template", deref(tl.TemplateID))
			field(out, "Tags", joinTags(tl.Tags))
			for _, key := range slices.Sorted(maps.Keys(tl.Properties)) {
				field(out, key, fmt.Sprint(tl.Properties[key]))
			}
			field(out, "Observations", strconv.Itoa(tl.ObservationCount))
			field(out, "Measurements", strconv.Itoa(tl.MeasurementCount))
			field(out, "Tasks", strconv.Itoa(tl.TaskCount))
			field(out, "Last activity", formatOpt(tl.LastActivity, dateTimeLayout))
			field(out, "Created", tl.CreatedAt.Local().Format(dateTimeLayout))
			return nil
		}),
	}
}

func (a *app) newFeatureCreateCmd() *cobra.Command {
	var (
		name, description, geometryType, coords, template string
		tags, props                                       []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a feature",
		Long: "Create a feature from --coords \"lng,lat;lng,lat;...\". One coordinate\n" +
			"makes a point and several make a line unless --type says polygon.\n" +
			"Properties are key=value pairs; values are parsed as JSON when they can be.",
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			points, err := parseCoords(coords)
			if err != nil {
				return err
			}
			geometry, gt, err := buildGeometry(geometryType, points)
			if err != nil {
				return err
			}
			properties, err := parseProps(props)
			if err != nil {
				return err
			}

			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			in := types.CreateFeatureInput{
				Name:         name,
				GeometryType: gt,
				Geometry:     geometry,
				Tags:         tags,
				Properties:   properties,
			}
			if description != "" {
				in.Description = &description
			}
			if template != "" {
				if err := applyTemplate(ctx, store, template, &in); err != nil {
					return err
				}
			}

			f, err := store.Features.Create(ctx, in)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), f)
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "feature name")
	cmd.Flags().StringVar(&description, "description", "", "feature description")
	cmd.Flags().StringVar(&geometryType, "type", "", "geometry type (point, line, polygon)")
	cmd.Flags().StringVar(&coords, "coords", "", "coordinates as lng,lat;lng,lat;...")
	cmd.Flags().StringVar(&template, "template", "", "template id")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringArrayVar(&props, "prop", nil, "custom property key=value (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("coords")
	return cmd
}

// applyTemplate checks the geometry against the template and fills in its
// default tags and property values.
func applyTemplate(ctx context.Context, store *repository.Store, id string, in *types.CreateFeatureInput) error {
	tpl, err := store.Templates.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !tpl.Schema.Allows(in.GeometryType) {
		return fmt.Errorf("%w: template %s does not allow %s", types.ErrGeometryMismatch, tpl.ID, in.GeometryType)
	}
	in.TemplateID = &tpl.ID
	if len(in.Tags) == 0 {
		in.Tags = append([]string(nil), tpl.Schema.DefaultTags...)
	}
	for key, def := range tpl.Schema.Properties {
		if _, ok := in.Properties[key]; ok || def.DefaultValue == nil {
			continue
		}
		if in.Properties == nil {
			in.Properties = map[string]any{}
		}
		in.Properties[key] = def.DefaultValue
	}
	return nil
}

func (a *app) newFeatureDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a feature with its observations, measurements and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			if err := store.Features.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}
}

func (a *app) newFeatureTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag used by a feature",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			tags, err := store.Features.AllTags(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), tags)
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		}),
	}
}

// units returns the unit system from settings, falling back to metric.
func (a *app) units(ctx context.Context, store *repository.Store) geo.Units {
	s, err := store.Settings.Get(ctx, repository.SettingUnitsSystem)
	if err != nil || s.Value != string(geo.Imperial) {
		return geo.Metric
	}
	return geo.Imperial
}
