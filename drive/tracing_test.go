package drive

import (
	"context"
	"errors"
	"testing"
)

// The global tracer provider defaults to a no-op, so these tests verify the
// decorator delegates and preserves errors rather than span contents.
func TestTracingDriverDelegates(t *testing.T) {
	ctx := context.Background()
	inner := newMockDriver()
	traced := WithTracing(inner)

	if err := traced.Put(ctx, "a.txt", []byte("hello"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := traced.Get(ctx, "a.txt")
	if err != nil || string(got) != "hello" {
		t.Errorf("Get = (%q, %v)", got, err)
	}
	if err := traced.Copy(ctx, "a.txt", "b.txt", nil); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	ok, err := traced.Exists(ctx, "b.txt")
	if err != nil || !ok {
		t.Errorf("Exists = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestTracingDriverPreservesErrors(t *testing.T) {
	ctx := context.Background()
	inner := newMockDriver()
	inner.failOn = "get"
	traced := WithTracing(inner)

	if _, err := traced.Get(ctx, "a.txt"); !errors.Is(err, inner.failErr) {
		t.Errorf("Get = %v, want the driver error unchanged", err)
	}
}

func TestTracingDriverWorksUnderDisk(t *testing.T) {
	ctx := context.Background()
	inner := newMockDriver()
	disk := New(WithTracing(inner), nil)

	if err := disk.PutString(ctx, "a.txt", "x", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, _ := disk.Get(ctx, "a.txt"); got != "x" {
		t.Errorf("Get = %q, want x", got)
	}
}
