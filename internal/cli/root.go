// Package cli implements the landmark command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/internal/paths"
	"github.com/mesh-intelligence/landmark/internal/repository"
	"github.com/mesh-intelligence/landmark/pkg/landmark"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// userErrors are the failures caused by bad input rather than by the
// environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidValue,
	types.ErrInvalidGeometry,
	types.ErrGeometryMismatch,
	types.ErrBuiltinTemplate,
	types.ErrInvalidMode,
	types.ErrImportFormat,
	types.ErrUnsupportedVersion,
	types.ErrInvalidDump,
	types.ErrInvalidImage,
	types.ErrPlatformUnknown,
	types.ErrDatabaseNameEmpty,
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func classify(err error) int {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// app holds the global flag values and the lazily built service for one
// invocation of the root command.
type app struct {
	configDir string
	dataDir   string
	platform  string
	jsonMode  bool

	resolvedConfigDir string
	cfg               types.Config
	logger            *slog.Logger
	svc               *landmark.Service
}

// NewRootCmd creates the top-level "landmark" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return new(app).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "landmark",
		Short: "Offline field data for mapped features",
		Long: "Landmark records map features with their observations, measurements\n" +
			"and tasks in a local SQLite database, and moves them between devices\n" +
			"as project archives.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&a.platform, "platform", "", "storage variant: native or web (default: detect)")
	pf.BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		a.newVersionCmd(),
		a.newInitCmd(),
		a.newFeatureCmd(),
		a.newTaskCmd(),
		a.newTemplateCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newGeoJSONCmd(),
		a.newReportCmd(),
		a.newDBCmd(),
		a.newStatsCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors never reach a RunE.
	return exitUserError
}

// run wraps a command body: the service opened by the body is closed when
// it returns, and failures are tagged with their exit code.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if a.svc != nil {
			if cerr := a.svc.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if err != nil {
			return &exitError{code: classify(err), err: err}
		}
		return nil
	}
}

// setup resolves directories and configuration and builds the service.
// Nothing is opened yet.
func (a *app) setup(cmd *cobra.Command) error {
	if a.svc != nil {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), v.GetString(cfgKeyLogLevel))
	if err != nil {
		return err
	}

	platform := a.platform
	if platform == "" {
		platform = v.GetString(cfgKeyPlatform)
	}
	a.resolvedConfigDir = configDir
	a.cfg = types.Config{
		Platform:     platform,
		DataDir:      dataDir,
		DatabaseName: v.GetString(cfgKeyDatabaseName),
		Keyspace:     v.GetString(cfgKeyKeyspace),
	}
	a.logger = logger
	a.svc = landmark.NewService(a.cfg, landmark.WithLogger(logger))
	return nil
}

// store opens the database and returns its repository store.
func (a *app) store(cmd *cobra.Command) (*repository.Store, error) {
	if err := a.setup(cmd); err != nil {
		return nil, err
	}
	return a.svc.Store(cmd.Context())
}
