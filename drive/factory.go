package drive

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/drivekit/logger"
)

// DriverFactory creates a Driver from a flat disk configuration.
type DriverFactory func(cfg Config, log *logger.Logger) (Driver, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]DriverFactory)
)

// RegisterDriver registers a driver factory for the given name. Driver
// packages call this from an init function to make themselves available to
// NewDriver and the Manager.
func RegisterDriver(name string, f DriverFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// RegisteredDrivers returns the names of all registered driver factories.
func RegisteredDrivers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDriver creates a Driver based on cfg.Driver. Ensure the desired driver
// package has been imported (e.g. _ "github.com/kbukum/drivekit/drive/local")
// so its factory is registered.
func NewDriver(cfg Config, log *logger.Logger) (Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Driver]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("drive: unsupported driver %q: %w", cfg.Driver, ErrDriverNotRegistered)
	}

	log.WithComponent("drive").Debug("initializing driver",
		map[string]interface{}{logger.FieldDriver: cfg.Driver})
	return f(cfg, log)
}

// NewDisk creates a Disk backed by the driver named in cfg.
func NewDisk(cfg Config, log *logger.Logger) (*Disk, error) {
	driver, err := NewDriver(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(driver, log), nil
}
