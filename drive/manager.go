package drive

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/drivekit/logger"
)

// FakesConfig enables swapping services for filesystem-backed fakes during
// tests. Location is the directory fakes materialize under.
type FakesConfig struct {
	Location string `mapstructure:"location" json:"location"`
}

// ManagerConfig configures a Manager: the named services it can hand out,
// the default service, and (optionally) where fakes live.
type ManagerConfig struct {
	// Default is the service Use() resolves when called without a name.
	Default string `mapstructure:"default" json:"default"`

	// Services maps logical service names to disk configurations.
	Services map[string]Config `mapstructure:"services" json:"services"`

	// Fakes must be set before Fake() can be used.
	Fakes *FakesConfig `mapstructure:"fakes" json:"fakes,omitempty"`
}

// Validate checks the manager configuration.
func (c *ManagerConfig) Validate() error {
	if len(c.Services) == 0 {
		return errors.New("drive: at least one service must be configured")
	}
	if c.Default == "" {
		return errors.New("drive: a default service is required")
	}
	if _, ok := c.Services[c.Default]; !ok {
		return fmt.Errorf("drive: default service %q is not configured", c.Default)
	}
	for name, svc := range c.Services {
		svc.ApplyDefaults()
		if err := svc.Validate(); err != nil {
			return fmt.Errorf("drive: service %q: %w", name, err)
		}
	}
	return nil
}

// Manager maps logical service names to lazily-constructed, cached Disk
// instances, and can swap any of them for an isolated filesystem-backed fake.
// The instance cache is mutex-guarded so each service constructs at most one
// Disk even under concurrent first access.
type Manager struct {
	mu    sync.Mutex
	cfg   ManagerConfig
	log   *logger.Logger
	disks map[string]*Disk
	fakes map[string]*Fake
}

// NewManager creates a Manager from the given configuration. log may be nil.
func NewManager(cfg ManagerConfig, log *logger.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		cfg:   cfg,
		log:   log.WithComponent("drive-manager"),
		disks: make(map[string]*Disk),
		fakes: make(map[string]*Fake),
	}, nil
}

// Use returns the Disk for the named service, constructing it on first
// access and reusing it thereafter. Called without arguments it resolves the
// default service. When the service is currently faked, the fake's disk is
// returned instead.
func (m *Manager) Use(service ...string) (*Disk, error) {
	name := m.cfg.Default
	if len(service) > 0 && service[0] != "" {
		name = service[0]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if fake, ok := m.fakes[name]; ok {
		return fake.Disk(), nil
	}
	if disk, ok := m.disks[name]; ok {
		return disk, nil
	}

	cfg, ok := m.cfg.Services[name]
	if !ok {
		return nil, fmt.Errorf("drive: unknown service %q", name)
	}
	disk, err := NewDisk(cfg, m.log)
	if err != nil {
		return nil, fmt.Errorf("drive: construct service %q: %w", name, err)
	}
	m.disks[name] = disk
	m.log.Debug("constructed disk", map[string]interface{}{
		logger.FieldService: name,
		logger.FieldDriver:  cfg.Driver,
	})
	return disk, nil
}

// Fake swaps the named service for an isolated filesystem-backed fake and
// returns it. Subsequent Use calls for the service observe the fake until
// Restore is called. Requesting a fake without fakes configured is a
// programmer error reported immediately.
func (m *Manager) Fake(service string) (*Fake, error) {
	if m.cfg.Fakes == nil || m.cfg.Fakes.Location == "" {
		return nil, errors.New("drive: cannot use fakes: configure ManagerConfig.Fakes first")
	}
	if _, ok := m.cfg.Services[service]; !ok {
		return nil, fmt.Errorf("drive: unknown service %q", service)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A repeated Fake call replaces the previous fake and clears its
	// backing storage.
	if old, ok := m.fakes[service]; ok {
		if err := old.cleanup(); err != nil {
			return nil, fmt.Errorf("drive: replace fake for %q: %w", service, err)
		}
		delete(m.fakes, service)
	}

	fake, err := newFake(service, m.cfg.Fakes.Location, m.log)
	if err != nil {
		return nil, err
	}
	m.fakes[service] = fake
	m.log.Debug("faked service", map[string]interface{}{logger.FieldService: service})
	return fake, nil
}

// Restore removes the fake for the named service, clears its backing
// storage and falls back to the real driver. Restoring a service that is
// not faked is a no-op.
func (m *Manager) Restore(service string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fake, ok := m.fakes[service]
	if !ok {
		return nil
	}
	delete(m.fakes, service)
	if err := fake.cleanup(); err != nil {
		return fmt.Errorf("drive: restore service %q: %w", service, err)
	}
	m.log.Debug("restored service", map[string]interface{}{logger.FieldService: service})
	return nil
}

// RestoreAll removes every active fake.
func (m *Manager) RestoreAll() error {
	m.mu.Lock()
	names := make([]string, 0, len(m.fakes))
	for name := range m.fakes {
		names = append(names, name)
	}
	m.mu.Unlock()

	var errs []error
	for _, name := range names {
		if err := m.Restore(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
