package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kbukum/drivekit/logger"
)

// Fake is a stand-in Disk backed by an isolated local-filesystem root,
// handed out by Manager.Fake. Its backing directory is removed when the
// fake is restored.
type Fake struct {
	service string
	root    string
	disk    *Disk
}

// newFake builds a fake on the fs driver under its own unique directory.
// The fs driver package must be imported for its factory to be registered.
func newFake(service, location string, log *logger.Logger) (*Fake, error) {
	root := filepath.Join(location, fmt.Sprintf("%s-%s", service, uuid.NewString()))
	disk, err := NewDisk(Config{
		Driver:     DriverFS,
		Location:   root,
		Visibility: VisibilityPrivate,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("drive: construct fake for %q: %w", service, err)
	}
	return &Fake{service: service, root: root, disk: disk}, nil
}

// Disk returns the fake's disk.
func (f *Fake) Disk() *Disk { return f.disk }

// Service returns the name of the faked service.
func (f *Fake) Service() string { return f.service }

// Root returns the fake's backing directory.
func (f *Fake) Root() string { return f.root }

// Exists reports whether an object was written to the fake.
func (f *Fake) Exists(ctx context.Context, key string) (bool, error) {
	return f.disk.Exists(ctx, key)
}

// Missing reports whether an object is absent from the fake.
func (f *Fake) Missing(ctx context.Context, key string) (bool, error) {
	exists, err := f.disk.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// cleanup removes the fake's backing storage.
func (f *Fake) cleanup() error {
	return os.RemoveAll(f.root)
}
