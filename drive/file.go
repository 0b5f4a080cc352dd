package drive

import (
	"context"
	"io"
	"path"
	"time"
)

// File is a lightweight, lazily-evaluated handle to a single object. The key
// is normalized once at construction; every accessor delegates to the driver
// on demand and translates failures the same way the Disk does. A File
// created from a listing or a snapshot carries pre-fetched metadata.
type File struct {
	key    string
	driver Driver
	// meta is snapshot metadata known at construction. GetMetaData returns
	// it when present; fresh fetches are not cached, so repeat calls observe
	// changing remote state.
	meta *ObjectMetaData
}

func newFile(key string, driver Driver, meta *ObjectMetaData) *File {
	return &File{key: key, driver: driver, meta: meta}
}

// NewFile returns a handle to the object at the given (not yet validated)
// key.
func NewFile(key string, driver Driver) (*File, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	return newFile(k, driver, nil), nil
}

// Key returns the normalized object key.
func (f *File) Key() string { return f.key }

// Name returns the basename of the key.
func (f *File) Name() string { return path.Base(f.key) }

// EntryKey implements Entry.
func (f *File) EntryKey() string { return f.key }

// IsFile implements Entry.
func (f *File) IsFile() bool { return true }

// Exists reports whether the object exists.
func (f *File) Exists(ctx context.Context) (bool, error) {
	exists, err := f.driver.Exists(ctx, f.key)
	if err != nil {
		return false, CannotCheckExistence(f.key, err)
	}
	return exists, nil
}

// Get returns the object contents as text.
func (f *File) Get(ctx context.Context) (string, error) {
	contents, err := f.GetBytes(ctx)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

// GetBytes returns the raw object contents.
func (f *File) GetBytes(ctx context.Context) ([]byte, error) {
	contents, err := f.driver.Get(ctx, f.key)
	if err != nil {
		return nil, CannotReadFile(f.key, err)
	}
	return contents, nil
}

// GetStream returns the object contents as a stream. The caller closes the
// returned ReadCloser.
func (f *File) GetStream(ctx context.Context) (io.ReadCloser, error) {
	rc, err := f.driver.GetStream(ctx, f.key)
	if err != nil {
		return nil, CannotReadFile(f.key, err)
	}
	return rc, nil
}

// GetMetaData returns the object metadata. When the handle carries snapshot
// metadata it is returned without I/O; otherwise the driver is asked every
// time, intentionally uncached.
func (f *File) GetMetaData(ctx context.Context) (*ObjectMetaData, error) {
	if f.meta != nil {
		return f.meta, nil
	}
	meta, err := f.driver.GetMetaData(ctx, f.key)
	if err != nil {
		return nil, CannotGetMetaData(f.key, err)
	}
	return meta, nil
}

// GetVisibility returns the object's visibility.
func (f *File) GetVisibility(ctx context.Context) (ObjectVisibility, error) {
	visibility, err := f.driver.GetVisibility(ctx, f.key)
	if err != nil {
		return "", CannotGetMetaData(f.key, err)
	}
	return visibility, nil
}

// GetURL returns a public URL for the object.
func (f *File) GetURL(ctx context.Context) (string, error) {
	url, err := f.driver.GetURL(ctx, f.key)
	if err != nil {
		return "", CannotGenerateURL(f.key, err)
	}
	return url, nil
}

// GetSignedURL returns a time-limited URL for the object.
func (f *File) GetSignedURL(ctx context.Context, opts *SignedURLOptions) (string, error) {
	url, err := f.driver.GetSignedURL(ctx, f.key, opts)
	if err != nil {
		return "", CannotGenerateURL(f.key, err)
	}
	return url, nil
}

// FileSnapshot is a serializable projection of a File and its metadata,
// suitable for persistence and later reconstruction via Disk.FromSnapshot
// without a round-trip fetch.
type FileSnapshot struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	ContentLength int64  `json:"contentLength"`
	ETag          string `json:"etag"`
	LastModified  string `json:"lastModified"`
	ContentType   string `json:"contentType,omitempty"`
}

// ToSnapshot forces a metadata fetch and projects the handle into a
// persistable snapshot.
func (f *File) ToSnapshot(ctx context.Context) (*FileSnapshot, error) {
	meta, err := f.GetMetaData(ctx)
	if err != nil {
		return nil, err
	}
	return &FileSnapshot{
		Key:           f.key,
		Name:          f.Name(),
		ContentLength: meta.ContentLength,
		ETag:          meta.ETag,
		LastModified:  meta.LastModified.Format(time.RFC3339Nano),
		ContentType:   meta.ContentType,
	}, nil
}

func fileFromSnapshot(snapshot *FileSnapshot, driver Driver) (*File, error) {
	k, err := NormalizeKey(snapshot.Key)
	if err != nil {
		return nil, err
	}
	lastModified, err := time.Parse(time.RFC3339Nano, snapshot.LastModified)
	if err != nil {
		return nil, InvalidKey(snapshot.Key).WithCause(err).
			WithDetail("lastModified", snapshot.LastModified)
	}
	meta := &ObjectMetaData{
		ContentType:   snapshot.ContentType,
		ContentLength: snapshot.ContentLength,
		ETag:          snapshot.ETag,
		LastModified:  lastModified,
	}
	return newFile(k, driver, meta), nil
}
