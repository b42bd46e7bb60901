// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/spf13/afero"
)

// LoadOptions selects where configuration comes from. The zero value reads
// the real filesystem using the standard lookup order.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only file consulted; it must exist.
	ConfigFilePath string
	// ConfigDirPath replaces ConfigDir() in the lookup.
	ConfigDirPath string
	// BaseDir holds the local assetctl.toml; empty is the working directory.
	BaseDir string
	Fs      afero.Fs
}

func (o LoadOptions) fs() afero.Fs {
	if o.Fs != nil {
		return o.Fs
	}
	return afero.NewOsFs()
}

// Provider supplies the effective configuration to the CLI. Tests substitute
// their own to skip the filesystem.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, opts LoadOptions) (*Config, error)

func (f ProviderFunc) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return f(ctx, opts)
}

// NewProvider returns the viper-backed Provider.
func NewProvider() Provider {
	return ProviderFunc(func(ctx context.Context, opts LoadOptions) (*Config, error) {
		cfg, _, err := loadWithOptions(ctx, opts)
		return cfg, err
	})
}
