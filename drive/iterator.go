package drive

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// The consumer calls Next() to retrieve values one at a time.
// Close must be called when done to release resources.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// sliceIterator is a single-pass iterator over an already-fetched page of
// values. It is deliberately not restartable: it mirrors a one-shot remote
// page fetch, so re-listing requires a fresh call.
type sliceIterator[T any] struct {
	items  []T
	pos    int
	closed bool
}

func newSliceIterator[T any](items []T) *sliceIterator[T] {
	return &sliceIterator[T]{items: items}
}

func (it *sliceIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.closed || it.pos >= len(it.items) {
		return zero, false, nil
	}
	item := it.items[it.pos]
	it.pos++
	return item, true, nil
}

func (it *sliceIterator[T]) Close() error {
	it.closed = true
	it.items = nil
	return nil
}
