package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

func TestDetectPlatform(t *testing.T) {
	orig := goos
	t.Cleanup(func() { goos = orig })

	tests := []struct {
		name     string
		explicit string
		env      string
		goos     string
		want     string
	}{
		{"explicit wins", types.PlatformWeb, types.PlatformNative, "linux", types.PlatformWeb},
		{"env override", "", types.PlatformWeb, "linux", types.PlatformWeb},
		{"unknown env ignored", "", "android", "linux", types.PlatformNative},
		{"js build", "", "", "js", types.PlatformWeb},
		{"default native", "", "", "darwin", types.PlatformNative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PlatformEnv, tt.env)
			goos = tt.goos
			assert.Equal(t, tt.want, DetectPlatform(tt.explicit))
		})
	}
}

func TestNewDatabaseSelectsBackend(t *testing.T) {
	t.Setenv(PlatformEnv, "")

	native, err := NewDatabase(types.Config{Platform: types.PlatformNative, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, types.BackendNative, native.Kind())

	web, err := NewDatabase(types.Config{Platform: types.PlatformWeb, DataDir: t.TempDir()},
		WithBlockStore(blockstore.NewMemory()))
	require.NoError(t, err)
	assert.Equal(t, types.BackendWeb, web.Kind())

	dirBacked, err := NewDatabase(types.Config{Platform: types.PlatformWeb, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &WebDatabase{}, dirBacked)
	assert.NotNil(t, dirBacked.(*WebDatabase).blocks, "defaults to a directory block store")

	_, err = NewDatabase(types.Config{Platform: "windows-phone"})
	assert.ErrorIs(t, err, types.ErrPlatformUnknown)
}
