package catalog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
)

var tracer = otel.Tracer("github.com/FocuswithJustin/ScripturesMapped/core/catalog")

// Source supplies the two catalog feeds. The two methods are called
// concurrently and must not depend on each other.
type Source interface {
	Name() string
	Books(ctx context.Context) ([]Book, error)
	Volumes(ctx context.Context) ([]Volume, error)
}

// Load starts both catalog feeds and calls onReady exactly once, after both
// have completed, whichever finishes last. On success onReady receives the
// joined store; if either feed failed it receives the books error, or else
// the volumes error, and a nil store.
//
// onReady runs on the goroutine of the feed that completed last.
func Load(ctx context.Context, src Source, onReady func(*Store, error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "catalog.Load")
	span.SetAttributes(attribute.String("catalog.source", src.Name()))

	var (
		books      []Book
		volumes    []Volume
		booksErr   error
		volumesErr error
	)

	barrier := NewBarrier(2, func() {
		defer span.End()

		err := booksErr
		if err == nil {
			err = volumesErr
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			onReady(nil, err)
			return
		}

		store := NewStore(books, volumes)
		span.SetAttributes(
			attribute.Int("catalog.books", len(books)),
			attribute.Int("catalog.volumes", len(volumes)),
		)
		logging.CatalogLoaded(len(books), len(volumes), time.Since(start),
			"source", src.Name(),
			"join_faults", len(store.Faults()))
		onReady(store, nil)
	})

	go func() {
		books, booksErr = src.Books(ctx)
		barrier.Done()
	}()
	go func() {
		volumes, volumesErr = src.Volumes(ctx)
		barrier.Done()
	}()
}

// LoadAndWait runs Load and blocks until the store is ready, a feed fails,
// or ctx is done.
func LoadAndWait(ctx context.Context, src Source) (*Store, error) {
	type result struct {
		store *Store
		err   error
	}
	done := make(chan result, 1)

	Load(ctx, src, func(s *Store, err error) {
		done <- result{s, err}
	})

	select {
	case r := <-done:
		return r.store, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
