package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

func (a *app) newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect feature templates",
	}
	cmd.AddCommand(a.newTemplateListCmd(), a.newTemplateShowCmd())
	return cmd
}

func (a *app) newTemplateListCmd() *cobra.Command {
	var custom bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates, builtins first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			var templates []types.Template
			if custom {
				templates, err = store.Templates.GetCustom(cmd.Context())
			} else {
				templates, err = store.Templates.GetAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), templates)
			}
			t := newTable(cmd.OutOrStdout(), "ID", "NAME", "GEOMETRY", "BUILTIN")
			for _, tpl := range templates {
				t.row(tpl.ID, tpl.Name, geometryTypes(tpl.Schema.GeometryTypes), fmt.Sprint(tpl.IsBuiltin))
			}
			return t.flush()
		}),
	}
	cmd.Flags().BoolVar(&custom, "custom", false, "only user templates")
	return cmd
}

func (a *app) newTemplateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template schema",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			tpl, err := store.Templates.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), tpl)
			}

			out := cmd.OutOrStdout()
			field(out, "ID", tpl.ID)
			field(out, "Name", tpl.Name)
			field(out, "Description", deref(tpl.Description))
			field(out, "Builtin", fmt.Sprint(tpl.IsBuiltin))
			field(out, "Geometry", geometryTypes(tpl.Schema.GeometryTypes))
			field(out, "Default tags", joinTags(tpl.Schema.DefaultTags))
			if len(tpl.Schema.Measurements) > 0 {
				fmt.Fprintln(out, "Measurements:")
				for _, m := range tpl.Schema.Measurements {
					fmt.Fprintf(out, "  %s (%s) %s\n", m.Metric, m.Unit, m.Label)
				}
			}
			if len(tpl.Schema.Properties) > 0 {
				fmt.Fprintln(out, "Properties:")
				for _, key := range slices.Sorted(maps.Keys(tpl.Schema.Properties)) {
					p := tpl.Schema.Properties[key]
					line := fmt.Sprintf("  %s: %s", key, p.Type)
					if p.Required {
						line += " (required)"
					}
					if len(p.Options) > 0 {
						line += " [" + strings.Join(p.Options, "|") + "]"
					}
					fmt.Fprintln(out, line)
				}
			}
			if len(tpl.Schema.SuggestedTasks) > 0 {
				fmt.Fprintln(out, "Suggested tasks:")
				for _, task := range tpl.Schema.SuggestedTasks {
					fmt.Fprintf(out, "  %s\n", task)
				}
			}
			return nil
		}),
	}
}

func geometryTypes(gts []types.GeometryType) string {
	names := make([]string, len(gts))
	for i, gt := range gts {
		names[i] = string(gt)
	}
	return strings.Join(names, ", ")
}
