package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// PlatformEnv overrides platform detection when Config.Platform is empty.
const PlatformEnv = "LANDMARK_PLATFORM"

// goos is replaced in tests.
var goos = runtime.GOOS

// DetectPlatform resolves the runtime platform. An explicit value wins,
// then LANDMARK_PLATFORM, then js/wasm builds report web. Everything else
// is native.
func DetectPlatform(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(PlatformEnv); env == types.PlatformNative || env == types.PlatformWeb {
		return env
	}
	if goos == "js" {
		return types.PlatformWeb
	}
	return types.PlatformNative
}

// NewDatabase constructs the backend matching the detected platform. It
// does not initialize it. The web backend uses the block store from
// WithBlockStore, or a directory store under DataDir/blocks.
func NewDatabase(cfg types.Config, opts ...Option) (types.Database, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	platform := DetectPlatform(cfg.Platform)
	cfg.Platform = platform
	if platform != types.PlatformWeb {
		return NewNativeDatabase(cfg, opts...), nil
	}

	o := applyOptions(opts)
	if o.blocks == nil {
		dir, err := blockstore.NewDir(filepath.Join(cfg.DataDir, "blocks"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBlockStore(dir))
	}
	return NewWebDatabase(cfg, opts...), nil
}
