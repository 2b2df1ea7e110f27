package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "unknown platform returns ErrPlatformUnknown",
			config:  Config{Platform: "android", DatabaseName: "landmark"},
			wantErr: ErrPlatformUnknown,
		},
		{
			name:    "empty database name returns ErrDatabaseNameEmpty",
			config:  Config{Platform: PlatformNative},
			wantErr: ErrDatabaseNameEmpty,
		},
		{
			name:    "valid native config",
			config:  Config{Platform: PlatformNative, DataDir: "/tmp/data", DatabaseName: "landmark"},
			wantErr: nil,
		},
		{
			name:    "empty platform is valid and detected later",
			config:  Config{DatabaseName: "landmark"},
			wantErr: nil,
		},
		{
			name:    "defaults fill the database name",
			config:  Config{Platform: PlatformWeb}.WithDefaults(),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.DatabaseName != DefaultDatabaseName {
		t.Fatalf("expected database name %q, got %q", DefaultDatabaseName, cfg.DatabaseName)
	}
	if cfg.Keyspace != DefaultKeyspace {
		t.Fatalf("expected keyspace %q, got %q", DefaultKeyspace, cfg.Keyspace)
	}

	custom := Config{DatabaseName: "survey", Keyspace: "survey-db"}.WithDefaults()
	if custom.DatabaseName != "survey" || custom.Keyspace != "survey-db" {
		t.Fatalf("defaults overwrote explicit values: %+v", custom)
	}
}
