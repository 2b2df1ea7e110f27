package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "LANDMARK"

	cfgKeyPlatform     = "platform"
	cfgKeyDataDir      = "data_dir"
	cfgKeyDatabaseName = "database_name"
	cfgKeyKeyspace     = "keyspace"
	cfgKeyLogLevel     = "log_level"

	defaultLogLevel = "warn"
)

// envKeys are the config keys that LANDMARK_* variables override. data_dir
// is absent: LANDMARK_DATA_DIR ranks below config.yaml and is handled by
// paths.ResolveDataDir.
var envKeys = []string{cfgKeyPlatform, cfgKeyDatabaseName, cfgKeyKeyspace, cfgKeyLogLevel}

// configFile is the structure written to config.yaml.
type configFile struct {
	Platform     string `yaml:"platform,omitempty"`
	DataDir      string `yaml:"data_dir,omitempty"`
	DatabaseName string `yaml:"database_name"`
	Keyspace     string `yaml:"keyspace"`
	LogLevel     string `yaml:"log_level"`
}

const configHeader = `# Landmark CLI configuration.
# LANDMARK_PLATFORM, LANDMARK_DATABASE_NAME, LANDMARK_KEYSPACE and
# LANDMARK_LOG_LEVEL override the values below.
`

// loadEnvFiles loads .env from the working directory and then from the
// config directory. Variables already set in the environment win.
func loadEnvFiles(configDir string) error {
	for _, path := range []string{envFileName, filepath.Join(configDir, envFileName)} {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// loadConfig reads config.yaml from configDir using Viper. A missing file
// is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := loadEnvFiles(configDir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyDatabaseName, types.DefaultDatabaseName)
	v.SetDefault(cfgKeyKeyspace, types.DefaultKeyspace)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with cfg. An existing file is
// left untouched.
func writeConfigIfMissing(configDir string, cfg configFile) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

// newLogger returns a text logger on w at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: log_level %q", types.ErrInvalidValue, level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
