package types

import "errors"

// Config holds backend selection and storage locations for the database
// service.
type Config struct {
	Platform     string `json:"platform" yaml:"platform"`           // native or web; empty means detect
	DataDir      string `json:"data_dir" yaml:"data_dir"`           // native file location and web block store root
	DatabaseName string `json:"database_name" yaml:"database_name"` // native connection name and file stem
	Keyspace     string `json:"keyspace" yaml:"keyspace"`           // web block store keyspace
	ScratchDir   string `json:"scratch_dir" yaml:"scratch_dir"`     // web working copy location; empty means os.TempDir
}

// Supported platforms.
const (
	PlatformNative = "native"
	PlatformWeb    = "web"
)

// Default storage names.
const (
	DefaultDatabaseName = "landmark"
	DefaultKeyspace     = "landmark-db"
)

// Config validation errors.
var (
	ErrPlatformUnknown   = errors.New("unknown platform")
	ErrDatabaseNameEmpty = errors.New("database name must not be empty")
)

// knownPlatforms lists the platforms that Validate accepts.
var knownPlatforms = map[string]bool{
	PlatformNative: true,
	PlatformWeb:    true,
}

// WithDefaults returns a copy of c with empty names filled in.
func (c Config) WithDefaults() Config {
	if c.DatabaseName == "" {
		c.DatabaseName = DefaultDatabaseName
	}
	if c.Keyspace == "" {
		c.Keyspace = DefaultKeyspace
	}
	return c
}

// Validate checks that the Config is well-formed. An empty Platform is valid
// and means the platform is detected at startup.
func (c Config) Validate() error {
	if c.Platform != "" && !knownPlatforms[c.Platform] {
		return ErrPlatformUnknown
	}
	if c.DatabaseName == "" {
		return ErrDatabaseNameEmpty
	}
	return nil
}
