// Package s3 implements the drive.Driver contract on Amazon S3 and
// S3-compatible services such as MinIO.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/drivekit/drive"
	"github.com/kbukum/drivekit/logger"
)

const (
	allUsersGroupURI = "http://acs.amazonaws.com/groups/global/AllUsers"

	defaultSignedURLExpiry = 30 * time.Minute
)

func init() {
	drive.RegisterDriver(drive.DriverS3, func(cfg drive.Config, _ *logger.Logger) (drive.Driver, error) {
		return New(context.Background(), &Config{
			Bucket:      cfg.Bucket,
			Region:      cfg.Region,
			Endpoint:    cfg.Endpoint,
			AccessKey:   cfg.AccessKey,
			SecretKey:   cfg.SecretKey,
			Visibility:  cfg.Visibility,
			SupportsACL: cfg.SupportsACL,
		})
	})
}

// Driver implements drive.Driver using Amazon S3 or an S3-compatible
// service.
type Driver struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	cfg     *Config
}

var _ drive.Driver = (*Driver)(nil)

// New creates an S3 driver from the given config, building an SDK client
// from the default credential chain plus any static keys in cfg.
func New(ctx context.Context, cfg *Config) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewWithClient(awss3.NewFromConfig(awsCfg, s3Opts...), cfg)
}

// NewWithClient creates an S3 driver over an already-constructed SDK client.
func NewWithClient(client *awss3.Client, cfg *Config) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		client:  client,
		presign: awss3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

func (d *Driver) Exists(ctx context.Context, key string) (bool, error) {
	_, err := d.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("s3: head %q: %w", key, err)
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
		return nil, fmt.Errorf("s3: read %q: %w", key, err)
	}
	return contents, nil
}

func (d *Driver) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := d.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get %q: %w", key, err)
	}
	return out.Body, nil
}

func (d *Driver) GetMetaData(ctx context.Context, key string) (*drive.ObjectMetaData, error) {
	out, err := d.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: head %q: %w", key, err)
	}
	meta := &drive.ObjectMetaData{
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		ETag:          strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return meta, nil
}

func (d *Driver) GetVisibility(ctx context.Context, key string) (drive.ObjectVisibility, error) {
	if !d.cfg.SupportsACL {
		return d.cfg.Visibility, nil
	}
	out, err := d.client.GetObjectAcl(ctx, &awss3.GetObjectAclInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("s3: get acl of %q: %w", key, err)
	}
	for _, grant := range out.Grants {
		if grant.Grantee == nil || aws.ToString(grant.Grantee.URI) != allUsersGroupURI {
			continue
		}
		if grant.Permission == types.PermissionRead || grant.Permission == types.PermissionFullControl {
			return drive.VisibilityPublic, nil
		}
	}
	return drive.VisibilityPrivate, nil
}

// SetVisibility updates the object ACL, or no-ops when the bucket does not
// allow per-object ACLs.
func (d *Driver) SetVisibility(ctx context.Context, key string, visibility drive.ObjectVisibility) error {
	if !d.cfg.SupportsACL {
		return nil
	}
	_, err := d.client.PutObjectAcl(ctx, &awss3.PutObjectAclInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
		ACL:    cannedACL(visibility),
	})
	if err != nil {
		return fmt.Errorf("s3: set acl of %q: %w", key, err)
	}
	return nil
}

func (d *Driver) GetURL(_ context.Context, key string) (string, error) {
	if d.cfg.URLBuilder != nil {
		return d.cfg.URLBuilder(key)
	}
	return fmt.Sprintf("%s/%s/%s", d.resolveEndpoint(), d.cfg.Bucket, key), nil
}

func (d *Driver) GetSignedURL(ctx context.Context, key string, opts *drive.SignedURLOptions) (string, error) {
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
	input := &awss3.GetObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	}
	if opts.ContentType != "" {
		input.ResponseContentType = aws.String(opts.ContentType)
	}
	if opts.ContentDisposition != "" {
		input.ResponseContentDisposition = aws.String(opts.ContentDisposition)
	}

	out, err := d.presign.PresignGetObject(ctx, input, awss3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("s3: presign %q: %w", key, err)
	}
	return out.URL, nil
}

func (d *Driver) Put(ctx context.Context, key string, contents []byte, opts *drive.WriteOptions) error {
	return d.putObject(ctx, key, bytes.NewReader(contents), int64(len(contents)), opts)
}

func (d *Driver) PutStream(ctx context.Context, key string, reader io.Reader, opts *drive.WriteOptions) error {
	var length int64
	if opts != nil {
		length = opts.ContentLength
	}
	return d.putObject(ctx, key, reader, length, opts)
}

func (d *Driver) putObject(ctx context.Context, key string, body io.Reader, length int64, opts *drive.WriteOptions) error {
	if opts == nil {
		opts = &drive.WriteOptions{}
	}
	input := &awss3.PutObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if length > 0 {
		input.ContentLength = aws.Int64(length)
	}
	if d.cfg.SupportsACL {
		input.ACL = cannedACL(d.writeVisibility(opts))
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.ContentEncoding != "" {
		input.ContentEncoding = aws.String(opts.ContentEncoding)
	}
	if opts.ContentLanguage != "" {
		input.ContentLanguage = aws.String(opts.ContentLanguage)
	}
	if opts.ContentDisposition != "" {
		input.ContentDisposition = aws.String(opts.ContentDisposition)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if len(opts.Extra) > 0 {
		input.Metadata = opts.Extra
	}
	if _, err := d.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3: put %q: %w", key, err)
	}
	return nil
}

func (d *Driver) Copy(ctx context.Context, source, destination string, opts *drive.WriteOptions) error {
	if opts == nil {
		opts = &drive.WriteOptions{}
	}
	input := &awss3.CopyObjectInput{
		Bucket:     aws.String(d.cfg.Bucket),
		Key:        aws.String(destination),
		CopySource: aws.String(url.PathEscape(d.cfg.Bucket + "/" + source)),
	}
	if d.cfg.SupportsACL {
		// Propagate the source visibility unless explicitly overridden.
		visibility := opts.Visibility
		if visibility == "" {
			v, err := d.GetVisibility(ctx, source)
			if err != nil {
				return err
			}
			visibility = v
		}
		input.ACL = cannedACL(visibility)
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
		input.MetadataDirective = types.MetadataDirectiveReplace
	}
	if _, err := d.client.CopyObject(ctx, input); err != nil {
		return fmt.Errorf("s3: copy %q to %q: %w", source, destination, err)
	}
	return nil
}

func (d *Driver) Move(ctx context.Context, source, destination string, opts *drive.WriteOptions) error {
	if err := d.Copy(ctx, source, destination, opts); err != nil {
		return err
	}
	return d.Delete(ctx, source)
}

// Delete removes an object. S3 treats deleting a missing key as success, so
// this is naturally a no-op.
func (d *Driver) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %q: %w", key, err)
	}
	return nil
}

func (d *Driver) DeleteAll(ctx context.Context, prefix string) error {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(d.cfg.Bucket),
		Prefix: aws.String(directoryPrefix(prefix)),
	}
	for {
		out, err := d.client.ListObjectsV2(ctx, input)
		if err != nil {
			return fmt.Errorf("s3: list for delete under %q: %w", prefix, err)
		}
		if len(out.Contents) > 0 {
			identifiers := make([]types.ObjectIdentifier, len(out.Contents))
			for i, obj := range out.Contents {
				identifiers[i] = types.ObjectIdentifier{Key: obj.Key}
			}
			_, err = d.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
				Bucket: aws.String(d.cfg.Bucket),
				Delete: &types.Delete{Objects: identifiers, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return fmt.Errorf("s3: delete objects under %q: %w", prefix, err)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		input.ContinuationToken = out.NextContinuationToken
	}
}

func (d *Driver) ListAll(ctx context.Context, prefix string, opts *drive.ListOptions) (*drive.ListPage, error) {
	if opts == nil {
		opts = &drive.ListOptions{}
	}
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(d.cfg.Bucket),
		Prefix: aws.String(directoryPrefix(prefix)),
	}
	if !opts.Recursive {
		input.Delimiter = aws.String("/")
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}
	if opts.MaxResults > 0 {
		input.MaxKeys = aws.Int32(int32(opts.MaxResults))
	}

	out, err := d.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("s3: list under %q: %w", prefix, err)
	}

	page := &drive.ListPage{
		ContinuationToken: aws.ToString(out.NextContinuationToken),
	}
	for _, cp := range out.CommonPrefixes {
		page.Entries = append(page.Entries, drive.ObjectEntry{
			Key:         strings.TrimSuffix(aws.ToString(cp.Prefix), "/"),
			IsDirectory: true,
		})
	}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		// Skip zero-byte directory markers some tools create.
		if strings.HasSuffix(key, "/") {
			continue
		}
		meta := &drive.ObjectMetaData{
			ContentLength: aws.ToInt64(obj.Size),
			ETag:          strings.Trim(aws.ToString(obj.ETag), `"`),
		}
		if obj.LastModified != nil {
			meta.LastModified = *obj.LastModified
		}
		page.Entries = append(page.Entries, drive.ObjectEntry{Key: key, Meta: meta})
	}
	return page, nil
}

func (d *Driver) writeVisibility(opts *drive.WriteOptions) drive.ObjectVisibility {
	if opts.Visibility != "" {
		return opts.Visibility
	}
	return d.cfg.Visibility
}

func (d *Driver) resolveEndpoint() string {
	if d.cfg.Endpoint != "" {
		return strings.TrimSuffix(d.cfg.Endpoint, "/")
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com", d.cfg.Region)
}

func cannedACL(visibility drive.ObjectVisibility) types.ObjectCannedACL {
	if visibility == drive.VisibilityPublic {
		return types.ObjectCannedACLPublicRead
	}
	return types.ObjectCannedACLPrivate
}

// directoryPrefix turns a normalized prefix into the trailing-slash form S3
// expects for directory-style grouping. The root prefix stays empty.
func directoryPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
