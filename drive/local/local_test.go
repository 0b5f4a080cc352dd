package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"testing"

	"github.com/kbukum/drivekit/drive"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(&Config{Location: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.Put(ctx, "docs/hello.txt", []byte("hello world"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := d.Get(ctx, "docs/hello.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("Get = %q, want hello world", got)
	}
}

func TestPutStreamAndGetStream(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.PutStream(ctx, "a/b/stream.bin", bytes.NewReader([]byte{1, 2, 3}), nil); err != nil {
		t.Fatalf("PutStream: %v", err)
	}
	rc, err := d.GetStream(ctx, "a/b/stream.bin")
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("stream contents = %v", got)
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	ok, err := d.Exists(ctx, "missing.txt")
	if err != nil || ok {
		t.Errorf("Exists(missing) = (%v, %v), want (false, nil)", ok, err)
	}

	if err := d.Put(ctx, "dir/present.txt", []byte("x"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err = d.Exists(ctx, "dir/present.txt")
	if err != nil || !ok {
		t.Errorf("Exists(present) = (%v, %v), want (true, nil)", ok, err)
	}

	// A directory is not a file.
	ok, err = d.Exists(ctx, "dir")
	if err != nil || ok {
		t.Errorf("Exists(directory) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestGetMetaData(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.Put(ctx, "report.txt", []byte("12345"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	meta, err := d.GetMetaData(ctx, "report.txt")
	if err != nil {
		t.Fatalf("GetMetaData: %v", err)
	}
	if meta.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5", meta.ContentLength)
	}
	if !strings.HasPrefix(meta.ContentType, "text/plain") {
		t.Errorf("ContentType = %q, want text/plain", meta.ContentType)
	}
	if meta.ETag == "" {
		t.Error("ETag must be set")
	}
	if meta.LastModified.IsZero() {
		t.Error("LastModified must be set")
	}

	if _, err := d.GetMetaData(ctx, "nope.txt"); err == nil {
		t.Error("metadata of a missing file must fail")
	}

	if err := d.Put(ctx, "folder/child.txt", []byte("x"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := d.GetMetaData(ctx, "folder"); err == nil {
		t.Error("metadata of a directory must fail")
	}
}

func TestVisibilityIsStatic(t *testing.T) {
	ctx := context.Background()
	d, err := New(&Config{Location: t.TempDir(), Visibility: drive.VisibilityPublic})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	v, err := d.GetVisibility(ctx, "anything.txt")
	if err != nil || v != drive.VisibilityPublic {
		t.Errorf("GetVisibility = (%q, %v), want (public, nil)", v, err)
	}
	if err := d.SetVisibility(ctx, "anything.txt", drive.VisibilityPrivate); err != nil {
		t.Errorf("SetVisibility must be a no-op, got %v", err)
	}
	if v, _ := d.GetVisibility(ctx, "anything.txt"); v != drive.VisibilityPublic {
		t.Errorf("visibility after no-op set = %q, want public", v)
	}
}

func TestURLsRequireBuilders(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if _, err := d.GetURL(ctx, "k.txt"); !errors.Is(err, drive.ErrUnsupported) {
		t.Errorf("GetURL without builder = %v, want ErrUnsupported", err)
	}
	if _, err := d.GetSignedURL(ctx, "k.txt", nil); !errors.Is(err, drive.ErrUnsupported) {
		t.Errorf("GetSignedURL without builder = %v, want ErrUnsupported", err)
	}
}

func TestURLBuilders(t *testing.T) {
	ctx := context.Background()
	d, err := New(&Config{
		Location: t.TempDir(),
		URLBuilder: func(key string) (string, error) {
			return "https://assets.test/" + key, nil
		},
		SignedURLBuilder: func(key string, _ *drive.SignedURLOptions) (string, error) {
			return "https://assets.test/" + key + "?sig=abc", nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if url, _ := d.GetURL(ctx, "k.txt"); url != "https://assets.test/k.txt" {
		t.Errorf("GetURL = %q", url)
	}
	if url, _ := d.GetSignedURL(ctx, "k.txt", nil); url != "https://assets.test/k.txt?sig=abc" {
		t.Errorf("GetSignedURL = %q", url)
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.Put(ctx, "a.txt", []byte("hi"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := d.Copy(ctx, "a.txt", "sub/b.txt", nil); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := d.Get(ctx, "sub/b.txt")
	if err != nil || string(got) != "hi" {
		t.Errorf("Get(copy) = (%q, %v)", got, err)
	}
	if ok, _ := d.Exists(ctx, "a.txt"); !ok {
		t.Error("copy must not remove the source")
	}

	if err := d.Copy(ctx, "missing.txt", "out.txt", nil); err == nil {
		t.Error("copying a missing source must fail")
	}
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.Put(ctx, "a.txt", []byte("payload"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := d.Move(ctx, "a.txt", "deep/nested/b.txt", nil); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if ok, _ := d.Exists(ctx, "a.txt"); ok {
		t.Error("move must remove the source")
	}
	got, err := d.Get(ctx, "deep/nested/b.txt")
	if err != nil || string(got) != "payload" {
		t.Errorf("Get(moved) = (%q, %v)", got, err)
	}

	if err := d.Move(ctx, "missing.txt", "out.txt", nil); err == nil {
		t.Error("moving a missing source must fail")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.Delete(ctx, "never-there.txt"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}

	if err := d.Put(ctx, "dir/a.txt", []byte("x"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := d.Delete(ctx, "dir/a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := d.Exists(ctx, "dir/a.txt"); ok {
		t.Error("object must be gone after Delete")
	}

	// Deleting a directory-like key leaves its children alone.
	if err := d.Put(ctx, "dir/b.txt", []byte("x"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := d.Delete(ctx, "dir"); err != nil {
		t.Errorf("Delete(directory key) = %v, want nil", err)
	}
	if ok, _ := d.Exists(ctx, "dir/b.txt"); !ok {
		t.Error("deleting a directory key must not remove children")
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	keys := []string{"keep.txt", "trash/a.txt", "trash/sub/b.txt"}
	for _, key := range keys {
		if err := d.Put(ctx, key, []byte("x"), nil); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	if err := d.DeleteAll(ctx, "trash"); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if ok, _ := d.Exists(ctx, "trash/a.txt"); ok {
		t.Error("objects under the prefix must be gone")
	}
	if ok, _ := d.Exists(ctx, "keep.txt"); !ok {
		t.Error("objects outside the prefix must survive")
	}

	if err := d.DeleteAll(ctx, "no/such/prefix"); err != nil {
		t.Errorf("DeleteAll(missing prefix) = %v, want nil", err)
	}

	// Root wipe clears everything but keeps the root itself usable.
	if err := d.DeleteAll(ctx, ""); err != nil {
		t.Fatalf("DeleteAll(root): %v", err)
	}
	if ok, _ := d.Exists(ctx, "keep.txt"); ok {
		t.Error("root wipe must remove remaining objects")
	}
	if err := d.Put(ctx, "after-wipe.txt", []byte("x"), nil); err != nil {
		t.Errorf("Put after root wipe: %v", err)
	}
}

// A dot-run prefix like "...." must never reach the driver as "..": through
// the facade it has to fail normalization, and nothing outside the configured
// root may be touched.
func TestDeleteAllCannotEscapeRoot(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	sibling := filepath.Join(parent, "sibling.txt")
	if err := os.WriteFile(sibling, []byte("outside"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := New(&Config{Location: filepath.Join(parent, "root")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	disk := drive.New(d, nil)

	for _, prefix := range []string{"....", "./....", "../sibling.txt"} {
		if err := disk.DeleteAll(ctx, prefix); !drive.IsCode(err, drive.ErrCodePathTraversal) {
			t.Errorf("DeleteAll(%q) = %v, want %s", prefix, err, drive.ErrCodePathTraversal)
		}
	}
	if _, err := os.Stat(sibling); err != nil {
		t.Errorf("file outside the root must survive: %v", err)
	}
}

func seedListing(t *testing.T, d *Driver) {
	t.Helper()
	ctx := context.Background()
	for _, key := range []string{"x.txt", "foo/bar/x.txt", "baz/x.txt"} {
		if err := d.Put(ctx, key, []byte("c"), nil); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}
}

func TestListAllNonRecursive(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	seedListing(t, d)

	page, err := d.ListAll(ctx, "", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	var files, dirs []string
	for _, e := range page.Entries {
		if e.IsDirectory {
			dirs = append(dirs, e.Key)
		} else {
			files = append(files, e.Key)
		}
	}
	sort.Strings(dirs)
	if len(files) != 1 || files[0] != "x.txt" {
		t.Errorf("files = %v, want [x.txt]", files)
	}
	if len(dirs) != 2 || dirs[0] != "baz" || dirs[1] != "foo" {
		t.Errorf("dirs = %v, want [baz foo]", dirs)
	}
}

func TestListAllUnderPrefix(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	seedListing(t, d)

	page, err := d.ListAll(ctx, "foo", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(page.Entries) != 1 || !page.Entries[0].IsDirectory || page.Entries[0].Key != "foo/bar" {
		t.Errorf("entries = %+v, want one directory foo/bar", page.Entries)
	}
}

func TestListAllRecursive(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	seedListing(t, d)

	page, err := d.ListAll(ctx, "", &drive.ListOptions{Recursive: true})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	var keys []string
	for _, e := range page.Entries {
		if e.IsDirectory {
			t.Errorf("recursive listing must not contain directories, got %q", e.Key)
		}
		if e.Meta == nil {
			t.Errorf("entry %q must carry metadata", e.Key)
		}
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	want := []string{"baz/x.txt", "foo/bar/x.txt", "x.txt"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestListAllMissingPrefix(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	page, err := d.ListAll(ctx, "ghost", nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(page.Entries) != 0 || page.ContinuationToken != "" {
		t.Errorf("missing prefix must list empty, got %+v", page)
	}
}

func TestListAllPagination(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	for _, key := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		if err := d.Put(ctx, key, []byte("x"), nil); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	var keys []string
	token := ""
	pages := 0
	for {
		page, err := d.ListAll(ctx, "", &drive.ListOptions{MaxResults: 2, ContinuationToken: token})
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		pages++
		for _, e := range page.Entries {
			keys = append(keys, e.Key)
		}
		if page.ContinuationToken == "" {
			break
		}
		token = page.ContinuationToken
	}

	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if len(keys) != 5 {
		t.Errorf("collected %d keys, want 5: %v", len(keys), keys)
	}

	if _, err := d.ListAll(ctx, "", &drive.ListOptions{ContinuationToken: "bogus"}); err == nil {
		t.Error("malformed continuation token must fail")
	}
}

func TestRegisteredFactory(t *testing.T) {
	root := t.TempDir()
	driver, err := drive.NewDriver(drive.Config{Driver: drive.DriverFS, Location: root}, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	ctx := context.Background()
	if err := driver.Put(ctx, "via-factory.txt", []byte("x"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := driver.Exists(ctx, "via-factory.txt")
	if err != nil || !ok {
		t.Errorf("Exists = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestRetryConfigDefaults(t *testing.T) {
	cfg := &Config{Location: t.TempDir()}
	cfg.ApplyDefaults()

	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialBackoff != defaultInitialBackoff {
		t.Errorf("InitialBackoff = %v", cfg.Retry.InitialBackoff)
	}
	if cfg.Retry.RetryIf == nil {
		t.Fatal("RetryIf must be set")
	}
	if !cfg.Retry.RetryIf(syscall.EMFILE) {
		t.Error("RetryIf must retry descriptor exhaustion")
	}
	if cfg.Retry.RetryIf(errors.New("permission denied")) {
		t.Error("RetryIf must not retry arbitrary errors")
	}
}
