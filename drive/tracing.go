package drive

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kbukum/drivekit/drive"

// WithTracing wraps driver so every operation runs inside an OpenTelemetry
// span carrying the operation name and object key. Spans are recorded
// against the globally registered tracer provider.
func WithTracing(driver Driver) Driver {
	return &tracingDriver{inner: driver, tracer: otel.Tracer(tracerName)}
}

type tracingDriver struct {
	inner  Driver
	tracer trace.Tracer
}

var _ Driver = (*tracingDriver)(nil)

func (t *tracingDriver) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "drive."+op,
		trace.WithAttributes(attribute.String("drive.key", key)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracingDriver) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := t.start(ctx, "exists", key)
	exists, err := t.inner.Exists(ctx, key)
	endSpan(span, err)
	return exists, err
}

func (t *tracingDriver) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := t.start(ctx, "get", key)
	contents, err := t.inner.Get(ctx, key)
	endSpan(span, err)
	return contents, err
}

func (t *tracingDriver) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := t.start(ctx, "get_stream", key)
	rc, err := t.inner.GetStream(ctx, key)
	endSpan(span, err)
	return rc, err
}

func (t *tracingDriver) GetMetaData(ctx context.Context, key string) (*ObjectMetaData, error) {
	ctx, span := t.start(ctx, "get_metadata", key)
	meta, err := t.inner.GetMetaData(ctx, key)
	endSpan(span, err)
	return meta, err
}

func (t *tracingDriver) GetVisibility(ctx context.Context, key string) (ObjectVisibility, error) {
	ctx, span := t.start(ctx, "get_visibility", key)
	visibility, err := t.inner.GetVisibility(ctx, key)
	endSpan(span, err)
	return visibility, err
}

func (t *tracingDriver) SetVisibility(ctx context.Context, key string, visibility ObjectVisibility) error {
	ctx, span := t.start(ctx, "set_visibility", key)
	err := t.inner.SetVisibility(ctx, key, visibility)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) GetURL(ctx context.Context, key string) (string, error) {
	ctx, span := t.start(ctx, "get_url", key)
	url, err := t.inner.GetURL(ctx, key)
	endSpan(span, err)
	return url, err
}

func (t *tracingDriver) GetSignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	ctx, span := t.start(ctx, "get_signed_url", key)
	url, err := t.inner.GetSignedURL(ctx, key, opts)
	endSpan(span, err)
	return url, err
}

func (t *tracingDriver) Put(ctx context.Context, key string, contents []byte, opts *WriteOptions) error {
	ctx, span := t.start(ctx, "put", key)
	span.SetAttributes(attribute.Int("drive.bytes", len(contents)))
	err := t.inner.Put(ctx, key, contents, opts)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) PutStream(ctx context.Context, key string, reader io.Reader, opts *WriteOptions) error {
	ctx, span := t.start(ctx, "put_stream", key)
	err := t.inner.PutStream(ctx, key, reader, opts)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) Copy(ctx context.Context, source, destination string, opts *WriteOptions) error {
	ctx, span := t.start(ctx, "copy", source)
	span.SetAttributes(attribute.String("drive.destination", destination))
	err := t.inner.Copy(ctx, source, destination, opts)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) Move(ctx context.Context, source, destination string, opts *WriteOptions) error {
	ctx, span := t.start(ctx, "move", source)
	span.SetAttributes(attribute.String("drive.destination", destination))
	err := t.inner.Move(ctx, source, destination, opts)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) Delete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "delete", key)
	err := t.inner.Delete(ctx, key)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) DeleteAll(ctx context.Context, prefix string) error {
	ctx, span := t.start(ctx, "delete_all", prefix)
	err := t.inner.DeleteAll(ctx, prefix)
	endSpan(span, err)
	return err
}

func (t *tracingDriver) ListAll(ctx context.Context, prefix string, opts *ListOptions) (*ListPage, error) {
	ctx, span := t.start(ctx, "list_all", prefix)
	page, err := t.inner.ListAll(ctx, prefix, opts)
	endSpan(span, err)
	return page, err
}
