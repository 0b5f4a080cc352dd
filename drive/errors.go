package drive

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Key normalization failures. These always carry the original,
// un-normalized key and are never retried.
const (
	ErrCodeUnallowedCharacters ErrorCode = "E_UNALLOWED_CHARACTERS"
	ErrCodePathTraversal       ErrorCode = "E_PATH_TRAVERSAL_DETECTED"
	ErrCodeInvalidKey          ErrorCode = "E_INVALID_KEY"
)

// Storage operation failures. These wrap the driver's native error and carry
// the normalized key(s) involved.
const (
	ErrCodeCannotReadFile        ErrorCode = "E_CANNOT_READ_FILE"
	ErrCodeCannotWriteFile       ErrorCode = "E_CANNOT_WRITE_FILE"
	ErrCodeCannotCopyFile        ErrorCode = "E_CANNOT_COPY_FILE"
	ErrCodeCannotMoveFile        ErrorCode = "E_CANNOT_MOVE_FILE"
	ErrCodeCannotDeleteFile      ErrorCode = "E_CANNOT_DELETE_FILE"
	ErrCodeCannotDeleteDirectory ErrorCode = "E_CANNOT_DELETE_DIRECTORY"
	ErrCodeCannotGetMetaData     ErrorCode = "E_CANNOT_GET_METADATA"
	ErrCodeCannotSetVisibility   ErrorCode = "E_CANNOT_SET_VISIBILITY"
	ErrCodeCannotGenerateURL     ErrorCode = "E_CANNOT_GENERATE_URL"
	ErrCodeCannotCheckExistence  ErrorCode = "E_CANNOT_CHECK_FILE_EXISTENCE"
	ErrCodeCannotListObjects     ErrorCode = "E_CANNOT_LIST_OBJECTS"
)

// ErrUnsupported is returned by drivers for capabilities the backend lacks,
// such as public URLs on the local filesystem without a configured builder.
var ErrUnsupported = errors.New("operation not supported by driver")

// ErrDriverNotRegistered is returned by NewDriver when no factory is
// registered for the requested driver name.
var ErrDriverNotRegistered = errors.New("driver not registered")

// DriveError is the unified error type for drive operations.
type DriveError struct {
	// Code is a machine-readable error code.
	Code ErrorCode
	// Message is a human-readable error message naming the operation and key.
	Message string
	// Key is the key involved. Normalization errors carry the original
	// caller-supplied key; operation errors carry the normalized key.
	Key string
	// Details contains additional context, e.g. the destination key of a copy.
	Details map[string]any
	// Cause is the underlying driver error, if any.
	Cause error
}

// Error returns the string representation of the error.
func (e *DriveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *DriveError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *DriveError) WithCause(cause error) *DriveError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *DriveError) WithDetail(key string, value any) *DriveError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// IsCode reports whether err is (or wraps) a DriveError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *DriveError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the error code of err, or "" if err is not a DriveError.
func CodeOf(err error) ErrorCode {
	var de *DriveError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// --- Normalization error constructors ---

// UnallowedCharacters creates an error for a key containing characters
// outside the allowed set. key is the original, un-normalized input.
func UnallowedCharacters(key string) *DriveError {
	return &DriveError{
		Code:    ErrCodeUnallowedCharacters,
		Message: fmt.Sprintf("the key %q has unallowed set of characters", key),
		Key:     key,
	}
}

// PathTraversal creates an error for a key containing a ".." segment.
// key is the original, un-normalized input.
func PathTraversal(key string) *DriveError {
	return &DriveError{
		Code:    ErrCodePathTraversal,
		Message: fmt.Sprintf("path traversal segment detected in key %q", key),
		Key:     key,
	}
}

// InvalidKey creates an error for a key that is empty after normalization.
// key is the original, un-normalized input.
func InvalidKey(key string) *DriveError {
	return &DriveError{
		Code:    ErrCodeInvalidKey,
		Message: fmt.Sprintf("invalid key %q: empty after normalization", key),
		Key:     key,
	}
}

// --- Operation error constructors ---

// CannotReadFile wraps a driver read failure.
func CannotReadFile(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotReadFile,
		Message: fmt.Sprintf("cannot read file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotWriteFile wraps a driver write failure.
func CannotWriteFile(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotWriteFile,
		Message: fmt.Sprintf("cannot write file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotCopyFile wraps a driver copy failure.
func CannotCopyFile(source, destination string, cause error) *DriveError {
	return (&DriveError{
		Code:    ErrCodeCannotCopyFile,
		Message: fmt.Sprintf("cannot copy file from %q to %q", source, destination),
		Key:     source,
		Cause:   cause,
	}).WithDetail("destination", destination)
}

// CannotMoveFile wraps a driver move failure.
func CannotMoveFile(source, destination string, cause error) *DriveError {
	return (&DriveError{
		Code:    ErrCodeCannotMoveFile,
		Message: fmt.Sprintf("cannot move file from %q to %q", source, destination),
		Key:     source,
		Cause:   cause,
	}).WithDetail("destination", destination)
}

// CannotDeleteFile wraps a driver delete failure.
func CannotDeleteFile(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotDeleteFile,
		Message: fmt.Sprintf("cannot delete file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotDeleteDirectory wraps a recursive prefix delete failure.
func CannotDeleteDirectory(prefix string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotDeleteDirectory,
		Message: fmt.Sprintf("cannot delete directory at location %q", prefix),
		Key:     prefix,
		Cause:   cause,
	}
}

// CannotGetMetaData wraps a metadata fetch failure.
func CannotGetMetaData(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotGetMetaData,
		Message: fmt.Sprintf("unable to retrieve metadata of file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotSetVisibility wraps a visibility update failure.
func CannotSetVisibility(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotSetVisibility,
		Message: fmt.Sprintf("unable to set visibility of file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotGenerateURL wraps a URL generation failure.
func CannotGenerateURL(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotGenerateURL,
		Message: fmt.Sprintf("cannot generate URL for file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotCheckExistence wraps an existence check failure.
func CannotCheckExistence(key string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotCheckExistence,
		Message: fmt.Sprintf("unable to check existence of file at location %q", key),
		Key:     key,
		Cause:   cause,
	}
}

// CannotListObjects wraps a listing failure.
func CannotListObjects(prefix string, cause error) *DriveError {
	return &DriveError{
		Code:    ErrCodeCannotListObjects,
		Message: fmt.Sprintf("cannot list objects under prefix %q", prefix),
		Key:     prefix,
		Cause:   cause,
	}
}
