package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform swaps the platform probes for the duration of a test.
func fakePlatform(t *testing.T, goos, home, userConfig string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })
	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return userConfig, nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		xdgConfig  string
		xdgData    string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG",
			goos:       "linux",
			xdgConfig:  "/tmp/xdg-config",
			xdgData:    "/tmp/xdg-data",
			wantConfig: "/tmp/xdg-config/landmark",
			wantData:   "/tmp/xdg-data/landmark",
		},
		{
			name:       "linux without XDG",
			goos:       "linux",
			wantConfig: "/home/ana/.config/landmark",
			wantData:   "/home/ana/.local/share/landmark",
		},
		{
			name:       "darwin",
			goos:       "darwin",
			xdgConfig:  "/ignored",
			wantConfig: "/Users/ana/Library/Application Support/landmark",
			wantData:   "/Users/ana/Library/Application Support/landmark",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := "/home/ana"
			if tt.goos == "darwin" {
				home = "/Users/ana"
			}
			fakePlatform(t, tt.goos, home, "/Users/ana/Library/Application Support")
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)
			t.Setenv("XDG_DATA_HOME", tt.xdgData)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantConfig), got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantData), got)
		})
	}
}

func TestDefaultDirHomeError(t *testing.T) {
	fakePlatform(t, "linux", "", "")
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_DATA_HOME", "")

	_, err := DefaultDataDir()
	assert.EqualError(t, err, "no home")
}

func TestResolveConfigDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ana", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name   string
		flag   string
		envVal string
		want   string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", "/env/config"},
		{"platform default when both empty", "", "", "/home/ana/.config/landmark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ana", "")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config.yaml wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env wins when flag and config empty", "", "", "/env/data", "/env/data"},
		{"platform default when all empty", "", "", "", "/home/ana/.local/share/landmark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestRelativePathsBecomeAbsolute(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "relative/env")

	got, err := ResolveConfigDir("relative/path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "relative", "path"), got)

	got, err = ResolveDataDir("", "relative/config")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "relative", "config"), got)

	got, err = ResolveDataDir("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "relative", "env"), got)
}
