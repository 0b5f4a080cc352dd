package s3

import (
	"errors"
	"fmt"

	"github.com/kbukum/drivekit/drive"
)

// DefaultRegion is the default AWS region.
const DefaultRegion = "us-east-1"

// Config holds S3 driver configuration.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID. Empty falls back to the default
	// credential chain.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`

	// Visibility is the default visibility for new objects. It is also the
	// static value reported for every object when SupportsACL is false.
	Visibility drive.ObjectVisibility `mapstructure:"visibility" json:"visibility"`

	// SupportsACL reports whether the bucket allows per-object ACLs. When
	// false, GetVisibility returns Visibility and SetVisibility is a no-op.
	SupportsACL bool `mapstructure:"supports_acl" json:"supports_acl"`

	// URLBuilder overrides public URL generation, e.g. to point at a CDN.
	URLBuilder func(key string) (string, error) `mapstructure:"-" json:"-"`

	// SignedURLBuilder overrides signed URL generation. Without it the
	// driver presigns through the SDK.
	SignedURLBuilder func(key string, opts *drive.SignedURLOptions) (string, error) `mapstructure:"-" json:"-"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Visibility == "" {
		c.Visibility = drive.DefaultVisibility
	}
}

// Validate checks that the S3 configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("s3: bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("s3: region is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("s3: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
