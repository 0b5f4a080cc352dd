package gcs

import (
	"errors"

	"github.com/kbukum/drivekit/drive"
)

// Config holds GCS driver configuration.
type Config struct {
	// Bucket is the GCS bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// CredentialsFile is a service account JSON key file. Empty falls back
	// to application default credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`

	// Visibility is the default visibility for new objects. It is also the
	// static value reported for every object when UsesUniformACL is true.
	Visibility drive.ObjectVisibility `mapstructure:"visibility" json:"visibility"`

	// UsesUniformACL reports whether the bucket uses uniform bucket-level
	// access. Uniform buckets have no per-object ACLs, so GetVisibility
	// returns Visibility and SetVisibility is a no-op.
	UsesUniformACL bool `mapstructure:"uses_uniform_acl" json:"uses_uniform_acl"`

	// URLBuilder overrides public URL generation, e.g. to point at a CDN.
	URLBuilder func(key string) (string, error) `mapstructure:"-" json:"-"`

	// SignedURLBuilder overrides signed URL generation. Without it the
	// driver signs V4 URLs through the SDK.
	SignedURLBuilder func(key string, opts *drive.SignedURLOptions) (string, error) `mapstructure:"-" json:"-"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Visibility == "" {
		c.Visibility = drive.DefaultVisibility
	}
}

// Validate checks that the GCS configuration is valid.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("gcs: bucket is required")
	}
	return nil
}
