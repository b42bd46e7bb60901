// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"

	"github.com/invowk/assetctl/internal/issue"
)

func memOptions(t *testing.T, files map[string]string) LoadOptions {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return LoadOptions{ConfigDirPath: "/cfg", BaseDir: "/work", Fs: fs}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(t.Context(), memOptions(t, nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_LookupOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      map[string]string
		explicit   string
		wantPath   string
		wantLedger string
	}{
		{
			name: "config dir wins over local file",
			files: map[string]string{
				"/cfg/config.toml":    `ledger_path = "from-dir.yaml"`,
				"/work/assetctl.toml": `ledger_path = "from-local.yaml"`,
				"/elsewhere/cfg.toml": `ledger_path = "from-flag.yaml"`,
			},
			wantPath:   "/cfg/config.toml",
			wantLedger: "from-dir.yaml",
		},
		{
			name:       "local file",
			files:      map[string]string{"/work/assetctl.toml": `ledger_path = "from-local.yaml"`},
			wantPath:   filepath.Join("/work", "assetctl.toml"),
			wantLedger: "from-local.yaml",
		},
		{
			name: "explicit path is exclusive",
			files: map[string]string{
				"/cfg/config.toml":    `ledger_path = "from-dir.yaml"`,
				"/elsewhere/cfg.toml": `ledger_path = "from-flag.yaml"`,
			},
			explicit:   "/elsewhere/cfg.toml",
			wantPath:   "/elsewhere/cfg.toml",
			wantLedger: "from-flag.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := memOptions(t, tt.files)
			opts.ConfigFilePath = tt.explicit
			cfg, path, err := loadWithOptions(t.Context(), opts)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if path != tt.wantPath || cfg.Source != tt.wantPath {
				t.Errorf("resolved path = %q (Source %q), want %q", path, cfg.Source, tt.wantPath)
			}
			if cfg.LedgerPath != tt.wantLedger {
				t.Errorf("LedgerPath = %q, want %q", cfg.LedgerPath, tt.wantLedger)
			}
			if cfg.PluginsDir != DefaultPluginsDir {
				t.Errorf("PluginsDir = %q, defaults should fill unset keys", cfg.PluginsDir)
			}
		})
	}
}

func TestLoad_NestedTables(t *testing.T) {
	t.Parallel()

	opts := memOptions(t, map[string]string{"/cfg/config.toml": `
root = "/srv/app"
max_target_size = 4096

[log]
level = "debug"

[ui]
color_scheme = "light"
assume_yes = true
`})
	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "/srv/app" || cfg.MaxTargetSize != 4096 {
		t.Errorf("Root = %q, MaxTargetSize = %d", cfg.Root, cfg.MaxTargetSize)
	}
	if cfg.Log.Level != LogLevelDebug || cfg.UI.ColorScheme != ColorSchemeLight || !cfg.UI.AssumeYes {
		t.Errorf("nested tables not applied: %+v %+v", cfg.Log, cfg.UI)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		explicit string
		wantIs   error
	}{
		{name: "explicit path missing", explicit: "/nope.toml"},
		{name: "broken toml", files: map[string]string{"/cfg/config.toml": `ledger_path = "unterminated`}},
		{
			name:   "bad log level",
			files:  map[string]string{"/cfg/config.toml": "[log]\nlevel = \"loud\""},
			wantIs: ErrInvalidLogLevel,
		},
		{
			name:   "bad color scheme",
			files:  map[string]string{"/cfg/config.toml": "[ui]\ncolor_scheme = \"neon\""},
			wantIs: ErrInvalidColorScheme,
		},
		{
			name:   "non-positive size",
			files:  map[string]string{"/cfg/config.toml": "max_target_size = 0"},
			wantIs: ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := memOptions(t, tt.files)
			opts.ConfigFilePath = tt.explicit
			_, _, err := loadWithOptions(t.Context(), opts)
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not actionable: %v", err, err)
			}
			if ae.IssueId() != issue.ConfigLoadFailedId {
				t.Errorf("IssueId() = %d, want ConfigLoadFailedId", ae.IssueId())
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ASSETCTL_LEDGER_PATH", "env-ledger.yaml")
	t.Setenv("ASSETCTL_LOG_LEVEL", "warn")

	opts := memOptions(t, map[string]string{"/cfg/config.toml": `ledger_path = "file-ledger.yaml"`})
	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerPath != "env-ledger.yaml" {
		t.Errorf("LedgerPath = %q, environment should win over the file", cfg.LedgerPath)
	}
	if cfg.Log.Level != LogLevelWarn {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, _, err := loadWithOptions(ctx, memOptions(t, nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	t.Parallel()

	opts := memOptions(t, nil)
	path, err := DefaultConfigPath(opts.ConfigDirPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(opts.Fs, path, false); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(opts.Fs, path, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second WriteDefault err = %v, want ErrConfigExists", err)
	}
	if err := WriteDefault(opts.Fs, path, true); err != nil {
		t.Errorf("forced WriteDefault: %v", err)
	}

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg, cmpopts.IgnoreFields(Config{}, "Source")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
}

func TestConfig_Path(t *testing.T) {
	t.Parallel()

	cfg := &Config{Root: "/srv/app"}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"config/app.php", filepath.Join("/srv/app", "config", "app.php")},
		{"/abs/file", "/abs/file"},
	}
	for _, tt := range tests {
		if got := cfg.Path(tt.in); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := (&Config{}).Path("x"); got != "x" {
		t.Errorf("empty root Path(x) = %q, want x", got)
	}
}

func TestProviderFunc(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Root = "/srv/app"
	var got LoadOptions
	p := ProviderFunc(func(_ context.Context, opts LoadOptions) (*Config, error) {
		got = opts
		return want, nil
	})

	cfg, err := p.Load(t.Context(), LoadOptions{ConfigFilePath: "/x.toml"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != want || got.ConfigFilePath != "/x.toml" {
		t.Errorf("Load() = %+v with opts %+v", cfg, got)
	}
}
