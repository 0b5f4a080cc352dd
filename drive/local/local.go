// Package local implements the drive.Driver contract on the local
// filesystem. It is the backend behind manager fakes and suits development
// and single-host deployments.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/kbukum/drivekit/drive"
	"github.com/kbukum/drivekit/logger"
	"github.com/kbukum/drivekit/resilience"
)

const (
	defaultInitialBackoff = 50 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

func init() {
	drive.RegisterDriver(drive.DriverFS, func(cfg drive.Config, _ *logger.Logger) (drive.Driver, error) {
		return New(&Config{
			Location:   cfg.Location,
			Visibility: cfg.Visibility,
		})
	})
}

// Driver implements drive.Driver using the local filesystem.
type Driver struct {
	root             string
	visibility       drive.ObjectVisibility
	urlBuilder       func(key string) (string, error)
	signedURLBuilder func(key string, opts *drive.SignedURLOptions) (string, error)
	retry            resilience.RetryConfig
}

var _ drive.Driver = (*Driver)(nil)

// New creates a local filesystem driver rooted at cfg.Location, creating the
// root directory if needed.
func New(cfg *Config) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("local: resolve root: %w", err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("local: create root directory: %w", err)
	}
	return &Driver{
		root:             root,
		visibility:       cfg.Visibility,
		urlBuilder:       cfg.URLBuilder,
		signedURLBuilder: cfg.SignedURLBuilder,
		retry:            cfg.Retry,
	}, nil
}

// isFileTableExhausted reports whether err is the OS running out of file
// descriptors, the only failure class this driver retries.
func isFileTableExhausted(err error) bool {
	return errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE)
}

func (d *Driver) resolve(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

// openFile allocates a descriptor with bounded retry on file-table
// exhaustion.
func (d *Driver) openFile(ctx context.Context, name string) (*os.File, error) {
	return resilience.Retry(ctx, d.retry, func() (*os.File, error) {
		return os.Open(name)
	})
}

func (d *Driver) createFile(ctx context.Context, name string) (*os.File, error) {
	return resilience.Retry(ctx, d.retry, func() (*os.File, error) {
		return os.Create(name)
	})
}

func (d *Driver) Exists(_ context.Context, key string) (bool, error) {
	info, err := os.Stat(d.resolve(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("local: stat %q: %w", key, err)
	}
	return !info.IsDir(), nil
}

func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := d.GetStream(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	contents, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("local: read %q: %w", key, err)
	}
	return contents, nil
}

func (d *Driver) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	full := d.resolve(key)
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("local: open %q: %w", key, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local: %q is a directory", key)
	}
	f, err := d.openFile(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("local: open %q: %w", key, err)
	}
	return f, nil
}

func (d *Driver) GetMetaData(_ context.Context, key string) (*drive.ObjectMetaData, error) {
	info, err := os.Stat(d.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("local: stat %q: %w", key, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local: %q is a directory, not a file", key)
	}
	return fileMetaData(key, info), nil
}

func (d *Driver) GetVisibility(_ context.Context, _ string) (drive.ObjectVisibility, error) {
	return d.visibility, nil
}

// SetVisibility is a no-op: the filesystem has no per-file ACLs.
func (d *Driver) SetVisibility(_ context.Context, _ string, _ drive.ObjectVisibility) error {
	return nil
}

func (d *Driver) GetURL(_ context.Context, key string) (string, error) {
	if d.urlBuilder == nil {
		return "", fmt.Errorf("local: no URL builder configured: %w", drive.ErrUnsupported)
	}
	return d.urlBuilder(key)
}

func (d *Driver) GetSignedURL(_ context.Context, key string, opts *drive.SignedURLOptions) (string, error) {
	if d.signedURLBuilder == nil {
		return "", fmt.Errorf("local: no signed URL builder configured: %w", drive.ErrUnsupported)
	}
	return d.signedURLBuilder(key, opts)
}

func (d *Driver) Put(ctx context.Context, key string, contents []byte, opts *drive.WriteOptions) error {
	return d.write(ctx, key, func(f *os.File) error {
		_, err := f.Write(contents)
		return err
	})
}

func (d *Driver) PutStream(ctx context.Context, key string, reader io.Reader, _ *drive.WriteOptions) error {
	return d.write(ctx, key, func(f *os.File) error {
		_, err := io.Copy(f, reader)
		return err
	})
}

func (d *Driver) write(ctx context.Context, key string, fill func(*os.File) error) error {
	full := d.resolve(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("local: create parent directories for %q: %w", key, err)
	}
	f, err := d.createFile(ctx, full)
	if err != nil {
		return fmt.Errorf("local: create %q: %w", key, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("local: write %q: %w", key, err)
	}
	return f.Close()
}

func (d *Driver) Copy(ctx context.Context, source, destination string, _ *drive.WriteOptions) error {
	src, err := d.GetStream(ctx, source)
	if err != nil {
		return err
	}
	defer src.Close()
	return d.write(ctx, destination, func(f *os.File) error {
		_, err := io.Copy(f, src)
		return err
	})
}

func (d *Driver) Move(ctx context.Context, source, destination string, opts *drive.WriteOptions) error {
	srcPath := d.resolve(source)
	dstPath := d.resolve(destination)
	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("local: move %q: %w", source, err)
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o750); err != nil {
		return fmt.Errorf("local: create parent directories for %q: %w", destination, err)
	}
	if err := os.Rename(srcPath, dstPath); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy-then-delete.
	if err := d.Copy(ctx, source, destination, opts); err != nil {
		return err
	}
	return d.Delete(ctx, source)
}

func (d *Driver) Delete(_ context.Context, key string) error {
	full := d.resolve(key)
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("local: delete %q: %w", key, err)
	}
	// Deleting a directory-like key is a no-op; siblings stay intact.
	if info.IsDir() {
		return nil
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: delete %q: %w", key, err)
	}
	return nil
}

func (d *Driver) DeleteAll(_ context.Context, prefix string) error {
	if prefix == "" {
		entries, err := os.ReadDir(d.root)
		if err != nil {
			return fmt.Errorf("local: delete all: %w", err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(d.root, entry.Name())); err != nil {
				return fmt.Errorf("local: delete all: %w", err)
			}
		}
		return nil
	}
	if err := os.RemoveAll(d.resolve(prefix)); err != nil {
		return fmt.Errorf("local: delete all under %q: %w", prefix, err)
	}
	return nil
}

func (d *Driver) ListAll(_ context.Context, prefix string, opts *drive.ListOptions) (*drive.ListPage, error) {
	if opts == nil {
		opts = &drive.ListOptions{}
	}

	dir := d.root
	if prefix != "" {
		dir = d.resolve(prefix)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("local: list %q: %w", prefix, err)
		}
		return &drive.ListPage{}, nil
	}

	var entries []drive.ObjectEntry
	if opts.Recursive {
		err := filepath.WalkDir(dir, func(p string, de os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if de.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(d.root, p)
			if err != nil {
				return err
			}
			info, err := de.Info()
			if err != nil {
				return err
			}
			key := filepath.ToSlash(rel)
			entries = append(entries, drive.ObjectEntry{Key: key, Meta: fileMetaData(key, info)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("local: list %q: %w", prefix, err)
		}
	} else {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("local: list %q: %w", prefix, err)
		}
		for _, de := range dirEntries {
			key := path.Join(prefix, de.Name())
			if de.IsDir() {
				entries = append(entries, drive.ObjectEntry{Key: key, IsDirectory: true})
				continue
			}
			info, err := de.Info()
			if err != nil {
				return nil, fmt.Errorf("local: list %q: %w", prefix, err)
			}
			entries = append(entries, drive.ObjectEntry{Key: key, Meta: fileMetaData(key, info)})
		}
	}

	return paginate(entries, opts)
}

// paginate slices the in-memory listing by an integer-offset continuation
// token so the local driver honors the same pagination contract as the
// remote backends.
func paginate(entries []drive.ObjectEntry, opts *drive.ListOptions) (*drive.ListPage, error) {
	offset := 0
	if opts.ContinuationToken != "" {
		n, err := strconv.Atoi(opts.ContinuationToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("local: invalid continuation token %q", opts.ContinuationToken)
		}
		offset = n
	}
	if offset >= len(entries) {
		return &drive.ListPage{}, nil
	}

	page := entries[offset:]
	token := ""
	if opts.MaxResults > 0 && len(page) > opts.MaxResults {
		page = page[:opts.MaxResults]
		token = strconv.Itoa(offset + opts.MaxResults)
	}
	return &drive.ListPage{ContinuationToken: token, Entries: page}, nil
}

func fileMetaData(key string, info os.FileInfo) *drive.ObjectMetaData {
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &drive.ObjectMetaData{
		ContentType:   ct,
		ContentLength: info.Size(),
		ETag:          fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
		LastModified:  info.ModTime(),
	}
}
