package storage

import (
	"strings"

	"github.com/kbukum/abcompare/errors"
)

// Provider names.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "comparisons"
	DefaultRegion   = "us-east-1"
)

// Config selects and configures a backend.
type Config struct {
	// Enabled gates optional stores such as the archive mirror.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Provider is "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// Prefix is prepended to every path.
	Prefix string `mapstructure:"prefix" json:"prefix,omitempty"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path,omitempty"`

	// S3 settings.
	Bucket         string `mapstructure:"bucket" json:"bucket,omitempty"`
	Region         string `mapstructure:"region" json:"region,omitempty"`
	Endpoint       string `mapstructure:"endpoint" json:"endpoint,omitempty"`
	AccessKey      string `mapstructure:"access_key" json:"-"`
	SecretKey      string `mapstructure:"secret_key" json:"-"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style,omitempty"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			c.BasePath = DefaultBasePath
		}
	case ProviderS3:
		if c.Region == "" {
			c.Region = DefaultRegion
		}
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
}

// Validate checks the settings required by the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.InvalidInput("storage.base_path", "required for the local provider")
		}
	case ProviderS3:
		if c.Bucket == "" {
			return errors.InvalidInput("storage.bucket", "required for the s3 provider")
		}
		if c.Region == "" {
			return errors.InvalidInput("storage.region", "required for the s3 provider")
		}
	default:
		return errors.InvalidInput("storage.provider", "unsupported provider "+c.Provider)
	}
	return nil
}
