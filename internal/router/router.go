package router

import (
	"context"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/internal/fetch"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
	"github.com/FocuswithJustin/ScripturesMapped/internal/markers"
)

// Renderer produces the on-screen view for each kind of target.
type Renderer interface {
	Home(volumes []*catalog.Volume) error
	Volume(volume *catalog.Volume) error
	Book(book *catalog.Book, chapters []int) error
	Chapter(view ChapterView) error
}

// MarkerSink receives the markers for the chapter on screen. Each call
// replaces the previous set.
type MarkerSink interface {
	SetMarkers(markers []markers.Marker)
}

// ContentFetcher retrieves chapter content asynchronously. It calls exactly
// one of onContent or onFailure, or neither when the request is undefined.
type ContentFetcher interface {
	FetchChapter(ctx context.Context, req fetch.Request, onContent func(fetch.Content), onFailure func(error))
}

// Executor runs f on the goroutine that owns the Router.
type Executor func(f func())

// ChapterView is everything the chapter view shows.
type ChapterView struct {
	Book     *catalog.Book
	Chapter  int
	Title    string
	Content  fetch.Content
	Previous *catalog.Adjacent
	Next     *catalog.Adjacent
	Markers  []markers.Marker
}

// Router resolves fragments and dispatches the resulting targets.
//
// A Router is not safe for concurrent use. Navigate and SetStore must be
// called from a single goroutine, and post must run fetch completions on
// that same goroutine.
type Router struct {
	store   *catalog.Store
	fetcher ContentFetcher
	render  Renderer
	markers MarkerSink
	post    Executor

	generation uint64
}

// New returns a Router that is not yet Ready. sink may be nil.
func New(fetcher ContentFetcher, render Renderer, sink MarkerSink, post Executor) *Router {
	return &Router{
		fetcher: fetcher,
		render:  render,
		markers: sink,
		post:    post,
	}
}

// SetStore makes the Router Ready.
func (r *Router) SetStore(store *catalog.Store) {
	r.store = store
}

// Ready reports whether the catalog has been delivered.
func (r *Router) Ready() bool {
	return r.store != nil
}

// Store returns the catalog, or nil before Ready.
func (r *Router) Store() *catalog.Store {
	return r.store
}

// Generation returns the number of navigations dispatched so far.
func (r *Router) Generation() uint64 {
	return r.generation
}

// Navigate resolves fragment and dispatches it. It returns the target that
// was finally dispatched, which differs from the resolved one when a book
// goes straight to its only chapter. Before Ready the event is dropped and
// ok is false.
func (r *Router) Navigate(ctx context.Context, fragment string) (target Target, ok bool) {
	if !r.Ready() {
		logging.DebugContext(ctx, "navigation before catalog ready", "fragment", fragment)
		return Target{}, false
	}

	target = Resolve(r.store, fragment)
	logging.Navigation(ctx, fragment, target.String())
	return r.Dispatch(ctx, target), true
}

// Dispatch acts on a resolved target and returns the target that was
// finally dispatched. Callers must have checked Ready.
func (r *Router) Dispatch(ctx context.Context, target Target) Target {
	r.generation++

	switch target.Kind {
	case KindHomeForVolume:
		if v, ok := r.store.Volume(target.VolumeID); ok {
			r.report(ctx, target, r.render.Volume(v))
			return target
		}
		target = Home()

	case KindBook:
		b, ok := r.store.Book(target.BookID)
		if !ok {
			target = Home()
			break
		}
		switch b.NumChapters {
		case 0:
			return r.dispatchChapter(ctx, ChapterTarget(b.ID, 0))
		case 1:
			return r.dispatchChapter(ctx, ChapterTarget(b.ID, 1))
		}
		chapters := make([]int, b.NumChapters)
		for i := range chapters {
			chapters[i] = i + 1
		}
		r.report(ctx, target, r.render.Book(b, chapters))
		return target

	case KindChapter:
		return r.dispatchChapter(ctx, target)
	}

	r.report(ctx, target, r.render.Home(r.store.Volumes()))
	return Home()
}

func (r *Router) dispatchChapter(ctx context.Context, target Target) Target {
	gen := r.generation
	req := fetch.ChapterRequest(target.BookID, target.Chapter)

	r.fetcher.FetchChapter(ctx, req,
		func(c fetch.Content) {
			r.post(func() { r.deliver(ctx, gen, target, c) })
		},
		func(err error) {
			r.post(func() {
				if gen != r.generation {
					logging.DebugContext(ctx, "discarding stale fetch failure", "target", target.String())
				}
			})
		})
	return target
}

// deliver renders fetched content unless a later navigation superseded it.
func (r *Router) deliver(ctx context.Context, gen uint64, target Target, c fetch.Content) {
	if gen != r.generation {
		logging.DebugContext(ctx, "discarding stale content",
			"target", target.String(),
			"generation", gen,
			"current", r.generation)
		return
	}

	b, ok := r.store.Book(target.BookID)
	if !ok {
		return
	}

	view := ChapterView{
		Book:    b,
		Chapter: target.Chapter,
		Title:   catalog.Title(b, target.Chapter),
		Content: c,
		Markers: markers.Markers(c.HTML),
	}
	if prev, ok := r.store.Previous(target.BookID, target.Chapter); ok {
		view.Previous = &prev
	}
	if next, ok := r.store.Next(target.BookID, target.Chapter); ok {
		view.Next = &next
	}

	r.report(ctx, target, r.render.Chapter(view))
	if r.markers != nil {
		r.markers.SetMarkers(view.Markers)
	}
}

func (r *Router) report(ctx context.Context, target Target, err error) {
	if err != nil {
		logging.WarnContext(ctx, "render failed", "target", target.String(), "error", err)
	}
}
