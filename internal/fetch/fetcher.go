package fetch

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FocuswithJustin/ScripturesMapped/internal/cache"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
)

// DefaultContentURL is the chapter content endpoint.
const DefaultContentURL = "https://scriptures.byu.edu/mapscrip/mapgetscrip.php"

// ErrNoTarget is returned by Fetch when the request lacks a book or chapter.
var ErrNoTarget = stderrors.New("no chapter target")

// Request selects a chapter. BookID and Chapter must both be set for a
// request to be issued. Verses is an optional verse-range token appended to
// the verses parameter; JST asks for the alternate translation.
type Request struct {
	BookID  *int
	Chapter *int
	Verses  string
	JST     bool
}

// ChapterRequest is a Request for a whole chapter.
func ChapterRequest(bookID, chapter int) Request {
	return Request{BookID: &bookID, Chapter: &chapter}
}

// Defined reports whether both book and chapter are set.
func (r Request) Defined() bool {
	return r.BookID != nil && r.Chapter != nil
}

// Content is a delivered chapter payload.
type Content struct {
	BookID  int
	Chapter int
	URL     string
	HTML    string
	// Digest is the hex BLAKE3-256 of HTML.
	Digest string
}

// Fetcher builds content URLs and dispatches them through a Getter.
type Fetcher struct {
	getter  Getter
	baseURL string
	cache   *cache.TTLCache[string, Content]
	tracer  trace.Tracer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides DefaultContentURL.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = u }
}

// WithCache keeps delivered content for ttl, keyed by request URL. At most
// maxEntries chapters are kept; zero means unbounded.
func WithCache(ttl time.Duration, maxEntries int) Option {
	return func(f *Fetcher) { f.cache = cache.New[string, Content](ttl, maxEntries) }
}

// CacheStats reports content cache statistics.
func (f *Fetcher) CacheStats() cache.Stats {
	return f.cache.Stats()
}

// NewFetcher returns a Fetcher using getter for transport.
func NewFetcher(getter Getter, opts ...Option) *Fetcher {
	f := &Fetcher{
		getter:  getter,
		baseURL: DefaultContentURL,
		tracer:  otel.Tracer("github.com/FocuswithJustin/ScripturesMapped/internal/fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the content URL for req, or false if req is not Defined.
func (f *Fetcher) URL(req Request) (string, bool) {
	if !req.Defined() {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(f.baseURL)
	sb.WriteString("?book=")
	sb.WriteString(strconv.Itoa(*req.BookID))
	sb.WriteString("&chap=")
	sb.WriteString(strconv.Itoa(*req.Chapter))
	sb.WriteString("&verses")
	if req.Verses != "" {
		if !strings.HasPrefix(req.Verses, "=") {
			sb.WriteByte('=')
		}
		sb.WriteString(req.Verses)
	}
	if req.JST {
		sb.WriteString("&jst=JST")
	}
	return sb.String(), true
}

// Fetch retrieves the chapter synchronously. It returns ErrNoTarget without
// issuing a request when req is not Defined. Failures are not retried.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Content, error) {
	url, ok := f.URL(req)
	if !ok {
		return Content{}, ErrNoTarget
	}

	if c, ok := f.cache.Get(url); ok {
		return c, nil
	}

	ctx, span := f.tracer.Start(ctx, "fetch.Chapter", trace.WithAttributes(
		attribute.Int("scripture.book_id", *req.BookID),
		attribute.Int("scripture.chapter", *req.Chapter),
	))
	defer span.End()

	body, err := f.getter.Get(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Content{}, err
	}

	sum := blake3.Sum256(body)
	c := Content{
		BookID:  *req.BookID,
		Chapter: *req.Chapter,
		URL:     url,
		HTML:    string(body),
		Digest:  hex.EncodeToString(sum[:]),
	}
	f.cache.Set(url, c)
	return c, nil
}

// FetchChapter issues the request on its own goroutine and calls exactly one
// of onContent or onFailure with the result. An undefined request is a
// no-op: nothing is sent and neither callback runs.
func (f *Fetcher) FetchChapter(ctx context.Context, req Request, onContent func(Content), onFailure func(error)) {
	url, ok := f.URL(req)
	if !ok {
		return
	}

	go func() {
		c, err := f.Fetch(ctx, req)
		if err != nil {
			logging.FetchFailure(ctx, url, err)
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onContent != nil {
			onContent(c)
		}
	}()
}
