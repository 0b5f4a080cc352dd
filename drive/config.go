package drive

import (
	"errors"
	"fmt"
)

// Driver name constants for the built-in backends.
const (
	DriverFS     = "fs"
	DriverS3     = "s3"
	DriverGCS    = "gcs"
	DriverMemory = "memory"
)

// Default configuration values.
const (
	DefaultDriver     = DriverFS
	DefaultLocation   = "/tmp/drivekit"
	DefaultRegion     = "us-east-1"
	DefaultVisibility = VisibilityPrivate
)

// Config holds the configuration for one disk. It is flat on purpose so a
// services map can be unmarshalled straight from YAML; each driver reads the
// fields it cares about and driver packages accept richer typed configs for
// programmatic construction.
type Config struct {
	// Driver selects the storage backend: "fs", "s3", "gcs" or "memory".
	Driver string `mapstructure:"driver" json:"driver"`

	// Visibility is the default visibility for new objects.
	Visibility ObjectVisibility `mapstructure:"visibility" json:"visibility"`

	// Location is the root directory for the fs driver.
	Location string `mapstructure:"location" json:"location"`

	// Bucket is the bucket name for the s3 and gcs drivers.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the region for the s3 driver.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the access key ID for the s3 driver.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the secret access key for the s3 driver.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// CredentialsFile is the service account credentials file for the gcs
	// driver. Empty falls back to application default credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`

	// SupportsACL reports whether the s3 bucket allows per-object ACLs.
	// When false, visibility collapses to the configured static value.
	SupportsACL bool `mapstructure:"supports_acl" json:"supports_acl"`

	// UsesUniformACL reports whether the gcs bucket uses uniform
	// bucket-level access, which disables per-object ACLs.
	UsesUniformACL bool `mapstructure:"uses_uniform_acl" json:"uses_uniform_acl"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Visibility == "" {
		c.Visibility = DefaultVisibility
	}
	if c.Driver == DriverFS && c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.Driver == DriverS3 && c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected driver.
func (c *Config) Validate() error {
	if c.Visibility != VisibilityPublic && c.Visibility != VisibilityPrivate {
		return fmt.Errorf("drive: visibility must be %q or %q (got: %q)",
			VisibilityPublic, VisibilityPrivate, c.Visibility)
	}
	switch c.Driver {
	case DriverFS:
		if c.Location == "" {
			return errors.New("drive: location is required for the fs driver")
		}
	case DriverS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("drive: bucket is required for the s3 driver"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("drive: region is required for the s3 driver"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("drive: invalid s3 config: %w", errors.Join(errs...))
		}
	case DriverGCS:
		if c.Bucket == "" {
			return errors.New("drive: bucket is required for the gcs driver")
		}
	case DriverMemory:
		// nothing to validate
	default:
		return fmt.Errorf("drive: unsupported driver %q", c.Driver)
	}
	return nil
}
