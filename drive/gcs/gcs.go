// Package gcs implements the drive.Driver contract on Google Cloud Storage
// and GCS-compatible services.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kbukum/drivekit/drive"
	"github.com/kbukum/drivekit/logger"
)

const (
	defaultSignedURLExpiry = 30 * time.Minute
	defaultPageSize        = 1000
)

func init() {
	drive.RegisterDriver(drive.DriverGCS, func(cfg drive.Config, _ *logger.Logger) (drive.Driver, error) {
		return New(context.Background(), &Config{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
			Visibility:      cfg.Visibility,
			UsesUniformACL:  cfg.UsesUniformACL,
		})
	})
}

// Driver implements drive.Driver using Google Cloud Storage.
type Driver struct {
	client *gstorage.Client
	bucket *gstorage.BucketHandle
	cfg    *Config
}

var _ drive.Driver = (*Driver)(nil)

// New creates a GCS driver from the given config.
func New(ctx context.Context, cfg *Config) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	return NewWithClient(client, cfg)
}

// NewWithClient creates a GCS driver over an already-constructed SDK client.
func NewWithClient(client *gstorage.Client, cfg *Config) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		cfg:    cfg,
	}, nil
}

// Close releases the underlying client.
func (d *Driver) Close() error { return d.client.Close() }

func (d *Driver) Exists(ctx context.Context, key string) (bool, error) {
	_, err := d.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("gcs: attrs of %q: %w", key, err)
	}
	return true, nil
}

func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := d.GetStream(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	contents, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %q: %w", key, err)
	}
	return contents, nil
}

func (d *Driver) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := d.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open %q: %w", key, err)
	}
	return r, nil
}

func (d *Driver) GetMetaData(ctx context.Context, key string) (*drive.ObjectMetaData, error) {
	attrs, err := d.bucket.Object(key).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: attrs of %q: %w", key, err)
	}
	return metaFromAttrs(attrs), nil
}

func (d *Driver) GetVisibility(ctx context.Context, key string) (drive.ObjectVisibility, error) {
	if d.cfg.UsesUniformACL {
		return d.cfg.Visibility, nil
	}
	rules, err := d.bucket.Object(key).ACL().List(ctx)
	if err != nil {
		return "", fmt.Errorf("gcs: list acl of %q: %w", key, err)
	}
	for _, rule := range rules {
		if rule.Entity == gstorage.AllUsers && rule.Role == gstorage.RoleReader {
			return drive.VisibilityPublic, nil
		}
	}
	return drive.VisibilityPrivate, nil
}

// SetVisibility grants or revokes AllUsers read access, or no-ops when the
// bucket uses uniform bucket-level access.
func (d *Driver) SetVisibility(ctx context.Context, key string, visibility drive.ObjectVisibility) error {
	if d.cfg.UsesUniformACL {
		return nil
	}
	acl := d.bucket.Object(key).ACL()
	if visibility == drive.VisibilityPublic {
		if err := acl.Set(ctx, gstorage.AllUsers, gstorage.RoleReader); err != nil {
			return fmt.Errorf("gcs: set acl of %q: %w", key, err)
		}
		return nil
	}
	if err := acl.Delete(ctx, gstorage.AllUsers); err != nil {
		return fmt.Errorf("gcs: set acl of %q: %w", key, err)
	}
	return nil
}

func (d *Driver) GetURL(_ context.Context, key string) (string, error) {
	if d.cfg.URLBuilder != nil {
		return d.cfg.URLBuilder(key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", d.cfg.Bucket, key), nil
}

func (d *Driver) GetSignedURL(_ context.Context, key string, opts *drive.SignedURLOptions) (string, error) {
	if opts == nil {
		opts = &drive.SignedURLOptions{}
	}
	if d.cfg.SignedURLBuilder != nil {
		return d.cfg.SignedURLBuilder(key, opts)
	}

	expiry := opts.ExpiresIn
	if expiry <= 0 {
		expiry = defaultSignedURLExpiry
	}
	urlOpts := &gstorage.SignedURLOptions{
		Scheme:  gstorage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}
	url, err := d.bucket.SignedURL(key, urlOpts)
	if err != nil {
		return "", fmt.Errorf("gcs: sign url for %q: %w", key, err)
	}
	return url, nil
}

func (d *Driver) Put(ctx context.Context, key string, contents []byte, opts *drive.WriteOptions) error {
	return d.PutStream(ctx, key, bytes.NewReader(contents), opts)
}

func (d *Driver) PutStream(ctx context.Context, key string, reader io.Reader, opts *drive.WriteOptions) error {
	if opts == nil {
		opts = &drive.WriteOptions{}
	}
	w := d.bucket.Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.ContentEncoding = opts.ContentEncoding
	w.ContentLanguage = opts.ContentLanguage
	w.ContentDisposition = opts.ContentDisposition
	w.CacheControl = opts.CacheControl
	if len(opts.Extra) > 0 {
		w.Metadata = opts.Extra
	}
	if !d.cfg.UsesUniformACL {
		w.PredefinedACL = predefinedACL(d.writeVisibility(opts))
	}
	if _, err := io.Copy(w, reader); err != nil {
		w.Close()
		return fmt.Errorf("gcs: write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: write %q: %w", key, err)
	}
	return nil
}

func (d *Driver) Copy(ctx context.Context, source, destination string, opts *drive.WriteOptions) error {
	if opts == nil {
		opts = &drive.WriteOptions{}
	}
	src := d.bucket.Object(source)
	copier := d.bucket.Object(destination).CopierFrom(src)
	if opts.ContentType != "" {
		copier.ContentType = opts.ContentType
	}
	if !d.cfg.UsesUniformACL {
		// Propagate the source visibility unless explicitly overridden.
		visibility := opts.Visibility
		if visibility == "" {
			v, err := d.GetVisibility(ctx, source)
			if err != nil {
				return err
			}
			visibility = v
		}
		copier.PredefinedACL = predefinedACL(visibility)
	}
	if _, err := copier.Run(ctx); err != nil {
		return fmt.Errorf("gcs: copy %q to %q: %w", source, destination, err)
	}
	return nil
}

func (d *Driver) Move(ctx context.Context, source, destination string, opts *drive.WriteOptions) error {
	if err := d.Copy(ctx, source, destination, opts); err != nil {
		return err
	}
	return d.Delete(ctx, source)
}

func (d *Driver) Delete(ctx context.Context, key string) error {
	err := d.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gstorage.ErrObjectNotExist) {
		return fmt.Errorf("gcs: delete %q: %w", key, err)
	}
	return nil
}

func (d *Driver) DeleteAll(ctx context.Context, prefix string) error {
	it := d.bucket.Objects(ctx, &gstorage.Query{Prefix: directoryPrefix(prefix)})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gcs: list for delete under %q: %w", prefix, err)
		}
		if err := d.Delete(ctx, attrs.Name); err != nil {
			return err
		}
	}
}

func (d *Driver) ListAll(ctx context.Context, prefix string, opts *drive.ListOptions) (*drive.ListPage, error) {
	if opts == nil {
		opts = &drive.ListOptions{}
	}
	query := &gstorage.Query{Prefix: directoryPrefix(prefix)}
	if !opts.Recursive {
		query.Delimiter = "/"
	}

	pageSize := opts.MaxResults
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	it := d.bucket.Objects(ctx, query)
	var attrs []*gstorage.ObjectAttrs
	pager := iterator.NewPager(it, pageSize, opts.ContinuationToken)
	nextToken, err := pager.NextPage(&attrs)
	if err != nil {
		return nil, fmt.Errorf("gcs: list under %q: %w", prefix, err)
	}

	return pageFromAttrs(attrs, nextToken), nil
}

func pageFromAttrs(attrs []*gstorage.ObjectAttrs, nextToken string) *drive.ListPage {
	page := &drive.ListPage{ContinuationToken: nextToken}
	for _, a := range attrs {
		// Delimited listings report common prefixes through Prefix-only
		// entries.
		if a.Prefix != "" {
			page.Entries = append(page.Entries, drive.ObjectEntry{
				Key:         trimSuffixSlash(a.Prefix),
				IsDirectory: true,
			})
			continue
		}
		// Skip zero-byte directory markers some tools create.
		if strings.HasSuffix(a.Name, "/") {
			continue
		}
		page.Entries = append(page.Entries, drive.ObjectEntry{
			Key:  a.Name,
			Meta: metaFromAttrs(a),
		})
	}
	return page
}

func (d *Driver) writeVisibility(opts *drive.WriteOptions) drive.ObjectVisibility {
	if opts.Visibility != "" {
		return opts.Visibility
	}
	return d.cfg.Visibility
}

func predefinedACL(visibility drive.ObjectVisibility) string {
	if visibility == drive.VisibilityPublic {
		return "publicRead"
	}
	return "private"
}

func metaFromAttrs(attrs *gstorage.ObjectAttrs) *drive.ObjectMetaData {
	return &drive.ObjectMetaData{
		ContentType:   attrs.ContentType,
		ContentLength: attrs.Size,
		ETag:          attrs.Etag,
		LastModified:  attrs.Updated,
	}
}

func directoryPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func trimSuffixSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
