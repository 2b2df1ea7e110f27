package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range envKeys {
		unsetEnv(t, "LANDMARK_"+key)
	}
	v, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultDatabaseName, v.GetString(cfgKeyDatabaseName))
	assert.Equal(t, types.DefaultKeyspace, v.GetString(cfgKeyKeyspace))
	assert.Equal(t, defaultLogLevel, v.GetString(cfgKeyLogLevel))
	assert.Empty(t, v.GetString(cfgKeyPlatform))
}

func TestLoadConfigPrecedence(t *testing.T) {
	for _, key := range envKeys {
		unsetEnv(t, "LANDMARK_"+key)
	}
	dir := t.TempDir()
	created, err := writeConfigIfMissing(dir, configFile{
		Platform:     types.PlatformWeb,
		DataDir:      "/srv/landmark",
		DatabaseName: "farm",
		Keyspace:     "farm-db",
		LogLevel:     "info",
	})
	require.NoError(t, err)
	assert.True(t, created)

	t.Setenv("LANDMARK_DATABASE_NAME", "orchard")

	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, types.PlatformWeb, v.GetString(cfgKeyPlatform))
	assert.Equal(t, "/srv/landmark", v.GetString(cfgKeyDataDir))
	assert.Equal(t, "orchard", v.GetString(cfgKeyDatabaseName), "env overrides config.yaml")
	assert.Equal(t, "farm-db", v.GetString(cfgKeyKeyspace))
	assert.Equal(t, "info", v.GetString(cfgKeyLogLevel))

	created, err = writeConfigIfMissing(dir, configFile{DatabaseName: "other"})
	require.NoError(t, err)
	assert.False(t, created, "existing config is kept")
}

func TestLoadConfigEnvFile(t *testing.T) {
	unsetEnv(t, "LANDMARK_KEYSPACE")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, envFileName), []byte("LANDMARK_KEYSPACE=from-dotenv\n"), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", v.GetString(cfgKeyKeyspace))
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("platform: [unclosed"), 0o644))
	_, err := loadConfig(dir)
	assert.ErrorContains(t, err, "read config")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown key=value")

	_, err = newLogger(&buf, "loud")
	assert.ErrorIs(t, err, types.ErrInvalidValue)
}
