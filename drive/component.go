package drive

import (
	"context"
	"fmt"

	"github.com/kbukum/drivekit/component"
	"github.com/kbukum/drivekit/logger"
)

// Component wraps a configured Disk and implements component.Component for
// lifecycle management.
type Component struct {
	cfg  Config
	log  *logger.Logger
	disk *Disk
}

// NewComponent creates a drive component for use with a component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("drive")}
}

// Disk returns the underlying Disk, or nil if not started.
func (c *Component) Disk() *Disk { return c.disk }

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// Name returns the component name.
func (c *Component) Name() string { return "drive" }

// Start initializes the storage backend.
func (c *Component) Start(_ context.Context) error {
	disk, err := NewDisk(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("drive start: %w", err)
	}
	c.disk = disk
	return nil
}

// Stop releases the storage backend.
func (c *Component) Stop(_ context.Context) error {
	c.disk = nil
	return nil
}

// Health returns the current health status of the component.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.disk == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "drive not initialized"}
	}
	// Probe the backend with a cheap existence check.
	if _, err := c.disk.Exists(ctx, "health-check"); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("driver=%s", c.cfg.Driver)
	if c.cfg.Bucket != "" {
		details += fmt.Sprintf(" bucket=%s", c.cfg.Bucket)
	}
	if c.cfg.Driver == DriverFS {
		details += fmt.Sprintf(" location=%s", c.cfg.Location)
	}
	return component.Description{Name: "Drive", Type: "storage", Details: details}
}
