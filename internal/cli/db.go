package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/internal/sqlite"
)

func (a *app) newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Whole-database snapshots and schema version",
	}
	cmd.AddCommand(a.newDBDumpCmd(), a.newDBRestoreCmd(), a.newDBVersionCmd())
	return cmd
}

func (a *app) newDBDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Write a snapshot of the database (- for stdout)",
		Long: "Write a snapshot in the backend's own encoding: a JSON table dump for\n" +
			"the native backend, a SQLite image for the web backend.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			db, err := a.svc.Database(cmd.Context())
			if err != nil {
				return err
			}
			data, err := db.ExportDatabase(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeFile(cmd, args[0], func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}); err != nil {
				return err
			}
			if args[0] != "-" && !a.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes (%s) to %s\n", len(data), db.Kind(), args[0])
			}
			return nil
		}),
	}
}

func (a *app) newDBRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the database contents with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if err := a.setup(cmd); err != nil {
				return err
			}
			db, err := a.svc.Database(cmd.Context())
			if err != nil {
				return err
			}
			if err := db.ImportDatabase(cmd.Context(), data); err != nil {
				return err
			}
			if !a.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			}
			return nil
		}),
	}
}

func (a *app) newDBVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied and latest schema versions",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			db, err := a.svc.Database(cmd.Context())
			if err != nil {
				return err
			}
			current, err := sqlite.CurrentVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			latest := sqlite.LatestVersion()
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"backend": db.Kind(),
					"current": current,
					"latest":  latest,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend: %s\nschema:  v%d (latest v%d)\n", db.Kind(), current, latest)
			return nil
		}),
	}
}
