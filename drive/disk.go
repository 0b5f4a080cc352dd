package drive

import (
	"context"
	"io"

	"github.com/kbukum/drivekit/logger"
)

// Disk is the single entry point applications use for storage operations.
// Every call normalizes its key(s), delegates to the configured driver and
// translates any driver failure into the typed error taxonomy. The Disk is
// stateless per call and safe for concurrent use.
type Disk struct {
	driver Driver
	log    *logger.Logger
}

// New creates a Disk over the given driver. log may be nil.
func New(driver Driver, log *logger.Logger) *Disk {
	if log == nil {
		log = logger.Nop()
	}
	return &Disk{driver: driver, log: log.WithComponent("drive")}
}

// Driver returns the underlying driver.
func (d *Disk) Driver() Driver { return d.driver }

// Exists reports whether an object exists at key. A missing object is
// (false, nil); errors indicate the check itself failed.
func (d *Disk) Exists(ctx context.Context, key string) (bool, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return false, err
	}
	exists, err := d.driver.Exists(ctx, k)
	if err != nil {
		return false, CannotCheckExistence(k, err)
	}
	return exists, nil
}

// Get returns the object contents at key as text.
func (d *Disk) Get(ctx context.Context, key string) (string, error) {
	contents, err := d.GetBytes(ctx, key)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

// GetBytes returns the raw object contents at key.
func (d *Disk) GetBytes(ctx context.Context, key string) ([]byte, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	contents, err := d.driver.Get(ctx, k)
	if err != nil {
		return nil, CannotReadFile(k, err)
	}
	return contents, nil
}

// GetStream returns the object contents at key as a stream. The caller
// closes the returned ReadCloser. Only the initiating call is translated
// into the error taxonomy; read failures after a successful return surface
// on the stream untranslated.
func (d *Disk) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	rc, err := d.driver.GetStream(ctx, k)
	if err != nil {
		return nil, CannotReadFile(k, err)
	}
	return rc, nil
}

// GetMetaData returns the metadata of the object at key.
func (d *Disk) GetMetaData(ctx context.Context, key string) (*ObjectMetaData, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	meta, err := d.driver.GetMetaData(ctx, k)
	if err != nil {
		return nil, CannotGetMetaData(k, err)
	}
	return meta, nil
}

// GetVisibility returns the visibility of the object at key.
func (d *Disk) GetVisibility(ctx context.Context, key string) (ObjectVisibility, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return "", err
	}
	visibility, err := d.driver.GetVisibility(ctx, k)
	if err != nil {
		return "", CannotGetMetaData(k, err)
	}
	return visibility, nil
}

// SetVisibility updates the visibility of the object at key. A no-op on
// backends without per-object ACL support.
func (d *Disk) SetVisibility(ctx context.Context, key string, visibility ObjectVisibility) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := d.driver.SetVisibility(ctx, k, visibility); err != nil {
		return CannotSetVisibility(k, err)
	}
	return nil
}

// GetURL returns a public URL for the object at key.
func (d *Disk) GetURL(ctx context.Context, key string) (string, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return "", err
	}
	url, err := d.driver.GetURL(ctx, k)
	if err != nil {
		return "", CannotGenerateURL(k, err)
	}
	return url, nil
}

// GetSignedURL returns a time-limited URL for the object at key.
func (d *Disk) GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return "", err
	}
	url, err := d.driver.GetSignedURL(ctx, k, opts)
	if err != nil {
		return "", CannotGenerateURL(k, err)
	}
	return url, nil
}

// Put creates or overwrites the object at key with contents.
func (d *Disk) Put(ctx context.Context, key string, contents []byte, opts *WriteOptions) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := d.driver.Put(ctx, k, contents, opts); err != nil {
		return CannotWriteFile(k, err)
	}
	return nil
}

// PutString creates or overwrites the object at key with text contents.
func (d *Disk) PutString(ctx context.Context, key string, contents string, opts *WriteOptions) error {
	return d.Put(ctx, key, []byte(contents), opts)
}

// PutStream creates or overwrites the object at key from reader. Failures
// setting up the write are translated; failures originating from reader are
// surfaced as-is by the driver.
func (d *Disk) PutStream(ctx context.Context, key string, reader io.Reader, opts *WriteOptions) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := d.driver.PutStream(ctx, k, reader, opts); err != nil {
		return CannotWriteFile(k, err)
	}
	return nil
}

// Copy duplicates the object at source to destination within the same
// backend. The source is left in place.
func (d *Disk) Copy(ctx context.Context, source, destination string, opts *WriteOptions) error {
	src, err := NormalizeKey(source)
	if err != nil {
		return err
	}
	dst, err := NormalizeKey(destination)
	if err != nil {
		return err
	}
	if err := d.driver.Copy(ctx, src, dst, opts); err != nil {
		return CannotCopyFile(src, dst, err)
	}
	return nil
}

// Move relocates the object at source to destination within the same
// backend.
func (d *Disk) Move(ctx context.Context, source, destination string, opts *WriteOptions) error {
	src, err := NormalizeKey(source)
	if err != nil {
		return err
	}
	dst, err := NormalizeKey(destination)
	if err != nil {
		return err
	}
	if err := d.driver.Move(ctx, src, dst, opts); err != nil {
		return CannotMoveFile(src, dst, err)
	}
	return nil
}

// Delete removes the object at key. Deleting a missing key is a silent
// no-op.
func (d *Disk) Delete(ctx context.Context, key string) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := d.driver.Delete(ctx, k); err != nil {
		return CannotDeleteFile(k, err)
	}
	return nil
}

// DeleteAll removes every object under prefix. An empty or "/" prefix
// addresses the root. A missing prefix is a silent no-op.
func (d *Disk) DeleteAll(ctx context.Context, prefix string) error {
	p, err := normalizePrefix(prefix)
	if err != nil {
		return err
	}
	if err := d.driver.DeleteAll(ctx, p); err != nil {
		return CannotDeleteDirectory(p, err)
	}
	return nil
}

// Entry is one listing result: a *File or a *Directory.
type Entry interface {
	// EntryKey returns the object key for files, or the prefix for
	// directories.
	EntryKey() string
	// IsFile reports whether the entry is a file.
	IsFile() bool
}

// ListedObjects is one page of listing results. It is a lazy, single-pass,
// non-restartable iterator: it mirrors a one-shot remote page fetch, so
// re-listing requires a fresh ListAll call. Resume pagination by passing
// ContinuationToken back through ListOptions.
type ListedObjects struct {
	// ContinuationToken resumes the listing on the next page. Empty when
	// the listing is exhausted.
	ContinuationToken string

	iter Iterator[Entry]
}

// Next returns the next entry. Returns (nil, false, nil) when the page is
// exhausted.
func (l *ListedObjects) Next(ctx context.Context) (Entry, bool, error) {
	return l.iter.Next(ctx)
}

// Close releases the iterator.
func (l *ListedObjects) Close() error { return l.iter.Close() }

// ListAll lists objects under prefix. An empty or "/" prefix addresses the
// root. Non-recursive listings group by one path segment, yielding Directory
// entries for common prefixes and File entries for leaves; recursive
// listings yield only File entries with full keys.
func (d *Disk) ListAll(ctx context.Context, prefix string, opts *ListOptions) (*ListedObjects, error) {
	p, err := normalizePrefix(prefix)
	if err != nil {
		return nil, err
	}
	page, err := d.driver.ListAll(ctx, p, opts)
	if err != nil {
		return nil, CannotListObjects(p, err)
	}

	entries := make([]Entry, 0, len(page.Entries))
	for _, e := range page.Entries {
		if e.IsDirectory {
			entries = append(entries, newDirectory(e.Key))
			continue
		}
		entries = append(entries, newFile(e.Key, d.driver, e.Meta))
	}

	return &ListedObjects{
		ContinuationToken: page.ContinuationToken,
		iter:              newSliceIterator(entries),
	}, nil
}

// File returns a handle to the object at key. No I/O happens until a method
// on the handle is called.
func (d *Disk) File(key string) (*File, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	return newFile(k, d.driver, nil), nil
}

// FromSnapshot reconstructs a File handle from a previously persisted
// snapshot, pre-populated with the snapshot's metadata so accessors avoid a
// round-trip fetch.
func (d *Disk) FromSnapshot(snapshot *FileSnapshot) (*File, error) {
	return fileFromSnapshot(snapshot, d.driver)
}
