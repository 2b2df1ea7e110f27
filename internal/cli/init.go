package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/internal/sqlite"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize landmark storage",
		Long: "Write config.yaml if it is missing, then create the database, apply\n" +
			"migrations and install the builtin templates.",
		Args: cobra.NoArgs,
		RunE: a.run(a.runInit),
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	created, err := writeConfigIfMissing(a.resolvedConfigDir, configFile{
		Platform:     a.cfg.Platform,
		DataDir:      a.cfg.DataDir,
		DatabaseName: a.cfg.DatabaseName,
		Keyspace:     a.cfg.Keyspace,
		LogLevel:     defaultLogLevel,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := a.svc.Database(ctx)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	version, err := sqlite.CurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.jsonMode {
		return printJSON(out, map[string]any{
			"configDir":     a.resolvedConfigDir,
			"configCreated": created,
			"dataDir":       a.cfg.DataDir,
			"backend":       db.Kind(),
			"schemaVersion": version,
		})
	}
	fmt.Fprintf(out, "Landmark initialized (%s backend, schema v%d)\n", db.Kind(), version)
	fmt.Fprintf(out, "config: %s\ndata:   %s\n", a.resolvedConfigDir, a.cfg.DataDir)
	return nil
}
