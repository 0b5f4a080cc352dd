package drive

import (
	"errors"
	"strings"
	"testing"
)

func TestDriveErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := CannotWriteFile("foo/bar.txt", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is must reach the cause through Unwrap")
	}
	if err.Key != "foo/bar.txt" {
		t.Errorf("Key = %q, want foo/bar.txt", err.Key)
	}
	if !strings.Contains(err.Error(), "E_CANNOT_WRITE_FILE") {
		t.Errorf("Error() must name the code, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() must include the cause, got %q", err.Error())
	}
}

func TestDriveErrorWithoutCause(t *testing.T) {
	err := InvalidKey(" ")
	if err.Unwrap() != nil {
		t.Error("normalization errors have no cause")
	}
	if strings.Contains(err.Error(), "cause") {
		t.Errorf("Error() must not mention a cause when there is none: %q", err.Error())
	}
}

func TestCopyErrorCarriesDestination(t *testing.T) {
	err := CannotCopyFile("a.txt", "b.txt", errors.New("boom"))
	if err.Key != "a.txt" {
		t.Errorf("Key = %q, want source a.txt", err.Key)
	}
	if got := err.Details["destination"]; got != "b.txt" {
		t.Errorf("destination detail = %v, want b.txt", got)
	}
}

func TestIsCodeAndCodeOf(t *testing.T) {
	err := CannotReadFile("k.txt", errors.New("nope"))

	if !IsCode(err, ErrCodeCannotReadFile) {
		t.Error("IsCode must match the error's own code")
	}
	if IsCode(err, ErrCodeCannotWriteFile) {
		t.Error("IsCode must not match a different code")
	}
	if got := CodeOf(err); got != ErrCodeCannotReadFile {
		t.Errorf("CodeOf = %q, want %q", got, ErrCodeCannotReadFile)
	}

	plain := errors.New("plain")
	if IsCode(plain, ErrCodeCannotReadFile) {
		t.Error("IsCode must be false for non-DriveError values")
	}
	if got := CodeOf(plain); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}

	// Codes survive an extra layer of wrapping.
	wrapped := CannotCheckExistence("k.txt", err)
	if got := CodeOf(wrapped); got != ErrCodeCannotCheckExistence {
		t.Errorf("CodeOf(wrapped) = %q, want outermost code", got)
	}
}

func TestWithDetailInitializesMap(t *testing.T) {
	err := InvalidKey("x").WithDetail("attempt", 2)
	if got := err.Details["attempt"]; got != 2 {
		t.Errorf("Details[attempt] = %v, want 2", got)
	}
}
