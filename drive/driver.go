package drive

import (
	"context"
	"io"
	"time"
)

// ObjectVisibility controls whether an object is publicly readable.
type ObjectVisibility string

const (
	VisibilityPublic  ObjectVisibility = "public"
	VisibilityPrivate ObjectVisibility = "private"
)

// ObjectMetaData contains metadata about a stored object.
type ObjectMetaData struct {
	// ContentType is the MIME type, if the backend knows it.
	ContentType string
	// ContentLength is the object size in bytes.
	ContentLength int64
	// ETag is an opaque content-identity string.
	ETag string
	// LastModified is the time of the last write.
	LastModified time.Time
}

// WriteOptions carries optional attributes for Put, PutStream, Copy and Move.
// The zero value is valid everywhere a *WriteOptions is accepted; nil means
// "all defaults".
type WriteOptions struct {
	// Visibility overrides the disk's default visibility. On backends
	// without per-object ACL support an explicit override is ignored, since
	// the backend has nowhere to persist it.
	Visibility ObjectVisibility

	ContentType        string
	ContentEncoding    string
	ContentLanguage    string
	ContentDisposition string
	CacheControl       string
	// ContentLength hints the object size for streaming writes. Zero means
	// unknown.
	ContentLength int64

	// Extra carries provider-specific passthrough values the well-known
	// fields do not cover.
	Extra map[string]string
}

// SignedURLOptions carries options for time-limited URL generation.
type SignedURLOptions struct {
	// ExpiresIn is how long the URL stays valid. Drivers apply their own
	// default when zero.
	ExpiresIn time.Duration

	ContentType        string
	ContentDisposition string

	// Extra carries provider-specific passthrough values.
	Extra map[string]string
}

// ListOptions controls ListAll behavior.
type ListOptions struct {
	// Recursive lists every object under the prefix. When false, the
	// listing groups by one path segment and reports common prefixes as
	// directory entries.
	Recursive bool
	// ContinuationToken resumes a paginated listing. Pass the token from
	// the previous page.
	ContinuationToken string
	// MaxResults caps the page size. Zero lets the backend pick.
	MaxResults int
}

// ObjectEntry is one raw listing result from a driver: a full object key, or
// a common prefix when IsDirectory is set. Meta may be pre-populated from
// the listing response.
type ObjectEntry struct {
	Key         string
	IsDirectory bool
	Meta        *ObjectMetaData
}

// ListPage is one page of driver listing results plus the token to fetch the
// next page. An empty ContinuationToken means the listing is exhausted.
type ListPage struct {
	ContinuationToken string
	Entries           []ObjectEntry
}

// Driver is the capability set every storage backend implements. Drivers
// receive already-normalized keys and perform no normalization or error
// translation themselves; both are the Disk's responsibility. Every method
// surfaces the backend's native error, or ErrUnsupported for capabilities
// the backend lacks.
type Driver interface {
	// Exists reports whether an object exists. A missing object is
	// (false, nil), never an error; errors indicate transport or auth
	// failure.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the full object contents.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetStream returns the object contents as a stream. The caller closes
	// the returned ReadCloser. Read failures after a successful return
	// surface on the stream, not through the drive error taxonomy.
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)

	// GetMetaData returns object metadata. Fails if key does not name a
	// real object (e.g. it is a directory-like prefix).
	GetMetaData(ctx context.Context, key string) (*ObjectMetaData, error)

	// GetVisibility returns the object's visibility. Backends without
	// per-object ACLs return the configured static value.
	GetVisibility(ctx context.Context, key string) (ObjectVisibility, error)

	// SetVisibility updates the object's visibility. A no-op on backends
	// without per-object ACLs.
	SetVisibility(ctx context.Context, key string, visibility ObjectVisibility) error

	// GetURL returns a public URL for the object.
	GetURL(ctx context.Context, key string) (string, error)

	// GetSignedURL returns a time-limited URL for the object.
	GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error)

	// Put creates or overwrites an object, creating intermediate
	// "directories" transparently.
	Put(ctx context.Context, key string, contents []byte, opts *WriteOptions) error

	// PutStream creates or overwrites an object from a stream.
	PutStream(ctx context.Context, key string, reader io.Reader, opts *WriteOptions) error

	// Copy duplicates an object within the same backend, propagating the
	// source's visibility unless opts overrides it. Fails when the source
	// does not exist.
	Copy(ctx context.Context, source, destination string, opts *WriteOptions) error

	// Move relocates an object within the same backend with the same
	// visibility semantics as Copy. Fails when the source does not exist.
	Move(ctx context.Context, source, destination string, opts *WriteOptions) error

	// Delete removes an object. Deleting a missing key is a silent no-op.
	Delete(ctx context.Context, key string) error

	// DeleteAll removes every object under prefix. A missing prefix is a
	// silent no-op.
	DeleteAll(ctx context.Context, prefix string) error

	// ListAll fetches one page of objects under prefix.
	ListAll(ctx context.Context, prefix string, opts *ListOptions) (*ListPage, error)
}
