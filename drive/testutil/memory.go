package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/drivekit/drive"
	"github.com/kbukum/drivekit/logger"
)

func init() {
	drive.RegisterDriver(drive.DriverMemory, func(cfg drive.Config, _ *logger.Logger) (drive.Driver, error) {
		d := NewMemoryDriver()
		if cfg.Visibility != "" {
			d.visibility = cfg.Visibility
		}
		return d, nil
	})
}

type memObject struct {
	data        []byte
	contentType string
	visibility  drive.ObjectVisibility
	modTime     time.Time
}

// MemoryDriver is an in-memory drive.Driver for tests. It supports the full
// contract including visibility, delimiter grouping and offset-token
// pagination, and can be told to fail a single operation to exercise error
// translation.
type MemoryDriver struct {
	mu         sync.RWMutex
	objects    map[string]*memObject
	visibility drive.ObjectVisibility

	failOp  string
	failErr error
}

var _ drive.Driver = (*MemoryDriver)(nil)

// NewMemoryDriver creates an empty in-memory driver with private default
// visibility.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		objects:    make(map[string]*memObject),
		visibility: drive.VisibilityPrivate,
	}
}

// FailNext makes the named operation (e.g. "get", "put") return err until
// cleared with FailNext("", nil).
func (d *MemoryDriver) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failOp = op
	d.failErr = err
}

// Len returns the number of stored objects.
func (d *MemoryDriver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.objects)
}

func (d *MemoryDriver) fail(op string) error {
	if d.failOp == op {
		return d.failErr
	}
	return nil
}

func (d *MemoryDriver) Exists(_ context.Context, key string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("exists"); err != nil {
		return false, err
	}
	_, ok := d.objects[key]
	return ok, nil
}

func (d *MemoryDriver) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("get"); err != nil {
		return nil, err
	}
	obj, ok := d.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory: object not found: %s", key)
	}
	return append([]byte(nil), obj.data...), nil
}

func (d *MemoryDriver) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := d.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (d *MemoryDriver) GetMetaData(_ context.Context, key string) (*drive.ObjectMetaData, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("get_metadata"); err != nil {
		return nil, err
	}
	obj, ok := d.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory: object not found: %s", key)
	}
	return obj.metaData(), nil
}

func (d *MemoryDriver) GetVisibility(_ context.Context, key string) (drive.ObjectVisibility, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("get_visibility"); err != nil {
		return "", err
	}
	obj, ok := d.objects[key]
	if !ok {
		return "", fmt.Errorf("memory: object not found: %s", key)
	}
	return obj.visibility, nil
}

func (d *MemoryDriver) SetVisibility(_ context.Context, key string, visibility drive.ObjectVisibility) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("set_visibility"); err != nil {
		return err
	}
	obj, ok := d.objects[key]
	if !ok {
		return fmt.Errorf("memory: object not found: %s", key)
	}
	obj.visibility = visibility
	return nil
}

func (d *MemoryDriver) GetURL(_ context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("get_url"); err != nil {
		return "", err
	}
	return "memory:///" + key, nil
}

func (d *MemoryDriver) GetSignedURL(_ context.Context, key string, opts *drive.SignedURLOptions) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("get_signed_url"); err != nil {
		return "", err
	}
	expiry := 30 * time.Minute
	if opts != nil && opts.ExpiresIn > 0 {
		expiry = opts.ExpiresIn
	}
	return fmt.Sprintf("memory:///%s?expires=%d", key, int64(expiry.Seconds())), nil
}

func (d *MemoryDriver) Put(_ context.Context, key string, contents []byte, opts *drive.WriteOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("put"); err != nil {
		return err
	}
	d.store(key, contents, opts)
	return nil
}

func (d *MemoryDriver) PutStream(_ context.Context, key string, reader io.Reader, opts *drive.WriteOptions) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("put_stream"); err != nil {
		return err
	}
	d.store(key, data, opts)
	return nil
}

func (d *MemoryDriver) store(key string, contents []byte, opts *drive.WriteOptions) {
	visibility := d.visibility
	contentType := ""
	if opts != nil {
		if opts.Visibility != "" {
			visibility = opts.Visibility
		}
		contentType = opts.ContentType
	}
	d.objects[key] = &memObject{
		data:        append([]byte(nil), contents...),
		contentType: contentType,
		visibility:  visibility,
		modTime:     time.Now(),
	}
}

func (d *MemoryDriver) Copy(_ context.Context, source, destination string, opts *drive.WriteOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("copy"); err != nil {
		return err
	}
	src, ok := d.objects[source]
	if !ok {
		return fmt.Errorf("memory: source not found: %s", source)
	}
	visibility := src.visibility
	if opts != nil && opts.Visibility != "" {
		visibility = opts.Visibility
	}
	d.objects[destination] = &memObject{
		data:        append([]byte(nil), src.data...),
		contentType: src.contentType,
		visibility:  visibility,
		modTime:     time.Now(),
	}
	return nil
}

func (d *MemoryDriver) Move(ctx context.Context, source, destination string, opts *drive.WriteOptions) error {
	if err := d.Copy(ctx, source, destination, opts); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.objects, source)
	return nil
}

func (d *MemoryDriver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("delete"); err != nil {
		return err
	}
	delete(d.objects, key)
	return nil
}

func (d *MemoryDriver) DeleteAll(_ context.Context, prefix string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("delete_all"); err != nil {
		return err
	}
	p := directoryPrefix(prefix)
	for key := range d.objects {
		if p == "" || strings.HasPrefix(key, p) {
			delete(d.objects, key)
		}
	}
	return nil
}

func (d *MemoryDriver) ListAll(_ context.Context, prefix string, opts *drive.ListOptions) (*drive.ListPage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.fail("list_all"); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &drive.ListOptions{}
	}

	p := directoryPrefix(prefix)
	var files []string
	dirs := make(map[string]bool)
	for key := range d.objects {
		if p != "" && !strings.HasPrefix(key, p) {
			continue
		}
		rest := strings.TrimPrefix(key, p)
		if opts.Recursive {
			files = append(files, key)
			continue
		}
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dirs[p+rest[:idx]] = true
			continue
		}
		files = append(files, key)
	}

	var entries []drive.ObjectEntry
	dirKeys := make([]string, 0, len(dirs))
	for dir := range dirs {
		dirKeys = append(dirKeys, dir)
	}
	sort.Strings(dirKeys)
	for _, dir := range dirKeys {
		entries = append(entries, drive.ObjectEntry{Key: dir, IsDirectory: true})
	}
	sort.Strings(files)
	for _, key := range files {
		entries = append(entries, drive.ObjectEntry{Key: key, Meta: d.objects[key].metaData()})
	}

	return paginate(entries, opts)
}

func paginate(entries []drive.ObjectEntry, opts *drive.ListOptions) (*drive.ListPage, error) {
	offset := 0
	if opts.ContinuationToken != "" {
		n, err := strconv.Atoi(opts.ContinuationToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("memory: invalid continuation token %q", opts.ContinuationToken)
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

func (o *memObject) metaData() *drive.ObjectMetaData {
	return &drive.ObjectMetaData{
		ContentType:   o.contentType,
		ContentLength: int64(len(o.data)),
		ETag:          fmt.Sprintf("%x", md5.Sum(o.data)),
		LastModified:  o.modTime,
	}
}

func directoryPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
