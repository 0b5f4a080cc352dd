package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"
)

// mockDriver is a map-backed Driver for exercising the Disk pipeline. Set
// failOn to force one operation to fail with failErr.
type mockDriver struct {
	objects map[string][]byte
	visible map[string]ObjectVisibility
	calls   []string

	failOn  string
	failErr error

	listPage *ListPage
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		objects: make(map[string][]byte),
		visible: make(map[string]ObjectVisibility),
		failErr: errors.New("backend exploded"),
	}
}

func (m *mockDriver) record(op, key string) error {
	m.calls = append(m.calls, op+":"+key)
	if m.failOn == op {
		return m.failErr
	}
	return nil
}

func (m *mockDriver) Exists(_ context.Context, key string) (bool, error) {
	if err := m.record("exists", key); err != nil {
		return false, err
	}
	_, ok := m.objects[key]
	return ok, nil
}

func (m *mockDriver) Get(_ context.Context, key string) ([]byte, error) {
	if err := m.record("get", key); err != nil {
		return nil, err
	}
	contents, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return contents, nil
}

func (m *mockDriver) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := m.record("get_stream", key); err != nil {
		return nil, err
	}
	contents, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(bytes.NewReader(contents)), nil
}

func (m *mockDriver) GetMetaData(_ context.Context, key string) (*ObjectMetaData, error) {
	if err := m.record("get_metadata", key); err != nil {
		return nil, err
	}
	contents, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return &ObjectMetaData{
		ContentLength: int64(len(contents)),
		ETag:          fmt.Sprintf("etag-%d", len(contents)),
		LastModified:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (m *mockDriver) GetVisibility(_ context.Context, key string) (ObjectVisibility, error) {
	if err := m.record("get_visibility", key); err != nil {
		return "", err
	}
	if v, ok := m.visible[key]; ok {
		return v, nil
	}
	return VisibilityPrivate, nil
}

func (m *mockDriver) SetVisibility(_ context.Context, key string, visibility ObjectVisibility) error {
	if err := m.record("set_visibility", key); err != nil {
		return err
	}
	m.visible[key] = visibility
	return nil
}

func (m *mockDriver) GetURL(_ context.Context, key string) (string, error) {
	if err := m.record("get_url", key); err != nil {
		return "", err
	}
	return "https://cdn.test/" + key, nil
}

func (m *mockDriver) GetSignedURL(_ context.Context, key string, _ *SignedURLOptions) (string, error) {
	if err := m.record("get_signed_url", key); err != nil {
		return "", err
	}
	return "https://cdn.test/" + key + "?signed", nil
}

func (m *mockDriver) Put(_ context.Context, key string, contents []byte, opts *WriteOptions) error {
	if err := m.record("put", key); err != nil {
		return err
	}
	m.objects[key] = append([]byte(nil), contents...)
	if opts != nil && opts.Visibility != "" {
		m.visible[key] = opts.Visibility
	}
	return nil
}

func (m *mockDriver) PutStream(ctx context.Context, key string, reader io.Reader, opts *WriteOptions) error {
	if err := m.record("put_stream", key); err != nil {
		return err
	}
	contents, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[key] = contents
	return nil
}

func (m *mockDriver) Copy(_ context.Context, source, destination string, _ *WriteOptions) error {
	if err := m.record("copy", source); err != nil {
		return err
	}
	src, ok := m.objects[source]
	if !ok {
		return fmt.Errorf("no such object: %s", source)
	}
	m.objects[destination] = append([]byte(nil), src...)
	return nil
}

func (m *mockDriver) Move(ctx context.Context, source, destination string, opts *WriteOptions) error {
	if err := m.record("move", source); err != nil {
		return err
	}
	src, ok := m.objects[source]
	if !ok {
		return fmt.Errorf("no such object: %s", source)
	}
	m.objects[destination] = src
	delete(m.objects, source)
	return nil
}

func (m *mockDriver) Delete(_ context.Context, key string) error {
	if err := m.record("delete", key); err != nil {
		return err
	}
	delete(m.objects, key)
	return nil
}

func (m *mockDriver) DeleteAll(_ context.Context, prefix string) error {
	if err := m.record("delete_all", prefix); err != nil {
		return err
	}
	for key := range m.objects {
		if prefix == "" || strings.HasPrefix(key, prefix+"/") {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *mockDriver) ListAll(_ context.Context, prefix string, opts *ListOptions) (*ListPage, error) {
	if err := m.record("list_all", prefix); err != nil {
		return nil, err
	}
	if m.listPage != nil {
		return m.listPage, nil
	}

	recursive := opts != nil && opts.Recursive
	p := prefix
	if p != "" {
		p += "/"
	}
	var files []string
	dirs := make(map[string]bool)
	for key := range m.objects {
		if p != "" && !strings.HasPrefix(key, p) {
			continue
		}
		rest := strings.TrimPrefix(key, p)
		if recursive {
			files = append(files, key)
		} else if idx := strings.Index(rest, "/"); idx >= 0 {
			dirs[p+rest[:idx]] = true
		} else {
			files = append(files, key)
		}
	}
	page := &ListPage{}
	dirKeys := make([]string, 0, len(dirs))
	for dir := range dirs {
		dirKeys = append(dirKeys, dir)
	}
	sort.Strings(dirKeys)
	for _, dir := range dirKeys {
		page.Entries = append(page.Entries, ObjectEntry{Key: dir, IsDirectory: true})
	}
	sort.Strings(files)
	for _, key := range files {
		page.Entries = append(page.Entries, ObjectEntry{Key: key})
	}
	return page, nil
}

func TestDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	if err := disk.PutString(ctx, "docs/hello.txt", "hello world", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := disk.Get(ctx, "docs/hello.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "hello world" {
		t.Errorf("Get = %q, want %q", got, "hello world")
	}

	exists, err := disk.Exists(ctx, "docs/hello.txt")
	if err != nil || !exists {
		t.Errorf("Exists = (%v, %v), want (true, nil)", exists, err)
	}
}

func TestDiskNormalizesKeysBeforeDelegating(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	if err := disk.PutString(ctx, `docs\\nested//file.txt`, "x", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := driver.objects["docs/nested/file.txt"]; !ok {
		t.Errorf("driver must see the normalized key, got %v", driver.objects)
	}

	// Writes through differently-spelled keys address the same object.
	got, err := disk.Get(ctx, "/docs/nested/file.txt/")
	if err != nil || got != "x" {
		t.Errorf("Get via alternate spelling = (%q, %v), want (x, nil)", got, err)
	}
}

func TestDiskRejectsBadKeysWithoutDriverCall(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	if _, err := disk.Get(ctx, "../../etc/passwd"); !IsCode(err, ErrCodePathTraversal) {
		t.Errorf("Get(traversal) = %v, want %s", err, ErrCodePathTraversal)
	}
	if err := disk.PutString(ctx, "bad$key", "x", nil); !IsCode(err, ErrCodeUnallowedCharacters) {
		t.Errorf("Put(bad chars) = %v, want %s", err, ErrCodeUnallowedCharacters)
	}
	if err := disk.Copy(ctx, "ok.txt", "../out", nil); !IsCode(err, ErrCodePathTraversal) {
		t.Errorf("Copy(bad destination) = %v, want %s", err, ErrCodePathTraversal)
	}
	if len(driver.calls) != 0 {
		t.Errorf("driver must not be called for invalid keys, got %v", driver.calls)
	}
}

func TestDiskWrapsDriverErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		op       string
		wantCode ErrorCode
		call     func(d *Disk) error
	}{
		{"exists", ErrCodeCannotCheckExistence, func(d *Disk) error {
			_, err := d.Exists(ctx, "k.txt")
			return err
		}},
		{"get", ErrCodeCannotReadFile, func(d *Disk) error {
			_, err := d.Get(ctx, "k.txt")
			return err
		}},
		{"get_stream", ErrCodeCannotReadFile, func(d *Disk) error {
			_, err := d.GetStream(ctx, "k.txt")
			return err
		}},
		{"get_metadata", ErrCodeCannotGetMetaData, func(d *Disk) error {
			_, err := d.GetMetaData(ctx, "k.txt")
			return err
		}},
		{"get_visibility", ErrCodeCannotGetMetaData, func(d *Disk) error {
			_, err := d.GetVisibility(ctx, "k.txt")
			return err
		}},
		{"set_visibility", ErrCodeCannotSetVisibility, func(d *Disk) error {
			return d.SetVisibility(ctx, "k.txt", VisibilityPublic)
		}},
		{"get_url", ErrCodeCannotGenerateURL, func(d *Disk) error {
			_, err := d.GetURL(ctx, "k.txt")
			return err
		}},
		{"get_signed_url", ErrCodeCannotGenerateURL, func(d *Disk) error {
			_, err := d.GetSignedURL(ctx, "k.txt", nil)
			return err
		}},
		{"put", ErrCodeCannotWriteFile, func(d *Disk) error {
			return d.PutString(ctx, "k.txt", "x", nil)
		}},
		{"put_stream", ErrCodeCannotWriteFile, func(d *Disk) error {
			return d.PutStream(ctx, "k.txt", strings.NewReader("x"), nil)
		}},
		{"copy", ErrCodeCannotCopyFile, func(d *Disk) error {
			return d.Copy(ctx, "k.txt", "dst.txt", nil)
		}},
		{"move", ErrCodeCannotMoveFile, func(d *Disk) error {
			return d.Move(ctx, "k.txt", "dst.txt", nil)
		}},
		{"delete", ErrCodeCannotDeleteFile, func(d *Disk) error {
			return d.Delete(ctx, "k.txt")
		}},
		{"delete_all", ErrCodeCannotDeleteDirectory, func(d *Disk) error {
			return d.DeleteAll(ctx, "k")
		}},
		{"list_all", ErrCodeCannotListObjects, func(d *Disk) error {
			_, err := d.ListAll(ctx, "k", nil)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			driver := newMockDriver()
			driver.failOn = tt.op
			disk := New(driver, nil)

			err := tt.call(disk)
			if !IsCode(err, tt.wantCode) {
				t.Fatalf("%s error = %v, want code %s", tt.op, err, tt.wantCode)
			}
			if !errors.Is(err, driver.failErr) {
				t.Errorf("%s error must chain the driver cause", tt.op)
			}
		})
	}
}

func TestDiskCopyLeavesSource(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	if err := disk.PutString(ctx, "a.txt", "hi", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := disk.Copy(ctx, "a.txt", "b.txt", nil); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got, _ := disk.Get(ctx, "b.txt"); got != "hi" {
		t.Errorf("Get(b.txt) = %q, want hi", got)
	}
	if exists, _ := disk.Exists(ctx, "a.txt"); !exists {
		t.Error("copy must not remove the source")
	}
}

func TestDiskMoveRemovesSource(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	if err := disk.PutString(ctx, "a.txt", "payload", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := disk.Move(ctx, "a.txt", "b.txt", nil); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if exists, _ := disk.Exists(ctx, "a.txt"); exists {
		t.Error("move must remove the source")
	}
	if got, _ := disk.Get(ctx, "b.txt"); got != "payload" {
		t.Errorf("Get(b.txt) = %q, want payload", got)
	}
}

func TestDiskDeleteMissingKeyIsNoOp(t *testing.T) {
	ctx := context.Background()
	disk := New(newMockDriver(), nil)

	if err := disk.Delete(ctx, "never-existed.txt"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
	if err := disk.DeleteAll(ctx, "no/such/prefix"); err != nil {
		t.Errorf("DeleteAll(missing) = %v, want nil", err)
	}
}

func TestDiskListAllRootNonRecursive(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	for _, key := range []string{"x.txt", "foo/bar/x.txt", "baz/x.txt"} {
		if err := disk.PutString(ctx, key, "c", nil); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	listed, err := disk.ListAll(ctx, "/", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	defer listed.Close()

	var files, dirs []string
	for {
		entry, ok, err := listed.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		if entry.IsFile() {
			files = append(files, entry.EntryKey())
		} else {
			dirs = append(dirs, entry.EntryKey())
		}
	}

	if len(files) != 1 || files[0] != "x.txt" {
		t.Errorf("files = %v, want [x.txt]", files)
	}
	sort.Strings(dirs)
	if len(dirs) != 2 || dirs[0] != "baz" || dirs[1] != "foo" {
		t.Errorf("dirs = %v, want [baz foo]", dirs)
	}
}

func TestDiskListAllRecursive(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	disk := New(driver, nil)

	keys := []string{"x.txt", "foo/bar/x.txt", "baz/x.txt"}
	for _, key := range keys {
		if err := disk.PutString(ctx, key, "c", nil); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	listed, err := disk.ListAll(ctx, "", &ListOptions{Recursive: true})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	defer listed.Close()

	var got []string
	for {
		entry, ok, err := listed.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		if !entry.IsFile() {
			t.Errorf("recursive listing must contain only files, got directory %q", entry.EntryKey())
		}
		got = append(got, entry.EntryKey())
	}
	sort.Strings(got)
	sort.Strings(keys)
	if len(got) != len(keys) {
		t.Fatalf("got %d entries, want %d", len(got), len(keys))
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], keys[i])
		}
	}
}

func TestDiskListAllPropagatesContinuationToken(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver()
	driver.listPage = &ListPage{
		ContinuationToken: "next-page",
		Entries:           []ObjectEntry{{Key: "a.txt"}},
	}
	disk := New(driver, nil)

	listed, err := disk.ListAll(ctx, "", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	defer listed.Close()
	if listed.ContinuationToken != "next-page" {
		t.Errorf("ContinuationToken = %q, want next-page", listed.ContinuationToken)
	}
}

func TestDiskFileHandleIsLazy(t *testing.T) {
	driver := newMockDriver()
	disk := New(driver, nil)

	file, err := disk.File("docs/report.pdf")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if len(driver.calls) != 0 {
		t.Errorf("File() must not touch the driver, got calls %v", driver.calls)
	}
	if file.Key() != "docs/report.pdf" {
		t.Errorf("Key = %q", file.Key())
	}

	if _, err := disk.File("../nope"); !IsCode(err, ErrCodePathTraversal) {
		t.Errorf("File(traversal) = %v, want %s", err, ErrCodePathTraversal)
	}
}
