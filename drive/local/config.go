package local

import (
	"errors"

	"github.com/kbukum/drivekit/drive"
	"github.com/kbukum/drivekit/resilience"
)

// Config holds local filesystem driver configuration.
type Config struct {
	// Location is the root directory objects live under. Keys map to paths
	// below it.
	Location string `mapstructure:"location" json:"location"`

	// Visibility is reported for every object. The filesystem has no
	// per-file ACLs, so this is a static passthrough value.
	Visibility drive.ObjectVisibility `mapstructure:"visibility" json:"visibility"`

	// URLBuilder supplies public URLs. Without it GetURL fails, since the
	// filesystem has no native URL concept.
	URLBuilder func(key string) (string, error) `mapstructure:"-" json:"-"`

	// SignedURLBuilder supplies time-limited URLs. Without it GetSignedURL
	// fails.
	SignedURLBuilder func(key string, opts *drive.SignedURLOptions) (string, error) `mapstructure:"-" json:"-"`

	// Retry bounds the retries applied to descriptor-allocating calls when
	// the OS reports file-table exhaustion. Zero values use the driver
	// defaults.
	Retry resilience.RetryConfig `mapstructure:"-" json:"-"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Visibility == "" {
		c.Visibility = drive.DefaultVisibility
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 5
	}
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = defaultInitialBackoff
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = defaultMaxBackoff
	}
	if c.Retry.RetryIf == nil {
		c.Retry.RetryIf = isFileTableExhausted
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.Location == "" {
		return errors.New("local: location is required")
	}
	return nil
}
