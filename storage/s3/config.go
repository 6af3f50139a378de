package s3

import (
	"github.com/kbukum/abcompare/storage"
)

// Config holds S3 connection settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// ForcePathStyle is implied by a custom Endpoint.
	ForcePathStyle bool
}

// FromStorage extracts the S3 settings of cfg.
func FromStorage(cfg storage.Config) *Config {
	return &Config{
		Bucket:         cfg.Bucket,
		Region:         cfg.Region,
		Endpoint:       cfg.Endpoint,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		ForcePathStyle: cfg.ForcePathStyle,
	}
}

// pathStyle reports whether path-style addressing is needed.
func (c *Config) pathStyle() bool {
	return c.ForcePathStyle || c.Endpoint != ""
}
