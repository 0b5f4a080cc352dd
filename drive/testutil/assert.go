package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/drivekit/drive"
)

// AssertExists fails the test if any of the given keys is missing from the
// fake's backing disk.
func AssertExists(t testing.TB, fake *drive.Fake, keys ...string) {
	t.Helper()
	ctx := context.Background()
	for _, key := range keys {
		ok, err := fake.Exists(ctx, key)
		if err != nil {
			t.Fatalf("check existence of %q on fake %q: %v", key, fake.Service(), err)
		}
		if !ok {
			t.Errorf("expected %q to exist on fake %q", key, fake.Service())
		}
	}
}

// AssertMissing fails the test if any of the given keys is present on the
// fake's backing disk.
func AssertMissing(t testing.TB, fake *drive.Fake, keys ...string) {
	t.Helper()
	ctx := context.Background()
	for _, key := range keys {
		ok, err := fake.Missing(ctx, key)
		if err != nil {
			t.Fatalf("check existence of %q on fake %q: %v", key, fake.Service(), err)
		}
		if !ok {
			t.Errorf("expected %q to be missing on fake %q", key, fake.Service())
		}
	}
}
