package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/FocuswithJustin/ScripturesMapped/core/errors"
)

func TestURL(t *testing.T) {
	f := NewFetcher(nil, WithBaseURL("https://example.test/get.php"))

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "chapter",
			req:  ChapterRequest(101, 3),
			want: "https://example.test/get.php?book=101&chap=3&verses",
		},
		{
			name: "chapterless book",
			req:  ChapterRequest(140, 0),
			want: "https://example.test/get.php?book=140&chap=0&verses",
		},
		{
			name: "verse token",
			req:  Request{BookID: intp(101), Chapter: intp(3), Verses: "4-7"},
			want: "https://example.test/get.php?book=101&chap=3&verses=4-7",
		},
		{
			name: "verse token with separator",
			req:  Request{BookID: intp(101), Chapter: intp(3), Verses: "=4"},
			want: "https://example.test/get.php?book=101&chap=3&verses=4",
		},
		{
			name: "alternate translation",
			req:  Request{BookID: intp(101), Chapter: intp(3), JST: true},
			want: "https://example.test/get.php?book=101&chap=3&verses&jst=JST",
		},
		{
			name: "both options",
			req:  Request{BookID: intp(101), Chapter: intp(3), Verses: "1", JST: true},
			want: "https://example.test/get.php?book=101&chap=3&verses=1&jst=JST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.URL(tt.req)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestURLUndefined(t *testing.T) {
	f := NewFetcher(nil)

	for _, req := range []Request{
		{},
		{BookID: intp(101)},
		{Chapter: intp(1)},
	} {
		_, ok := f.URL(req)
		assert.False(t, ok, "request %+v should be undefined", req)
	}
}

func TestFetchChapterUndefinedIsNoop(t *testing.T) {
	var calls atomic.Int32
	getter := GetterFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return nil, nil
	})
	f := NewFetcher(getter)

	f.FetchChapter(context.Background(), Request{BookID: intp(1)},
		func(Content) { t.Error("onContent must not run") },
		func(error) { t.Error("onFailure must not run") })

	_, err := f.Fetch(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoTarget)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, calls.Load(), "no request should be issued")
}

func TestFetchChapterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "101", r.URL.Query().Get("book"))
		assert.Equal(t, "2", r.URL.Query().Get("chap"))
		w.Write([]byte("<ul class=\"versesblock\"></ul>"))
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPGetter(5*time.Second), WithBaseURL(srv.URL))

	got := make(chan Content, 1)
	f.FetchChapter(context.Background(), ChapterRequest(101, 2),
		func(c Content) { got <- c },
		func(err error) { t.Errorf("unexpected failure: %v", err) })

	select {
	case c := <-got:
		assert.Equal(t, "<ul class=\"versesblock\"></ul>", c.HTML)
		assert.Equal(t, 101, c.BookID)
		assert.Equal(t, 2, c.Chapter)
		assert.Len(t, c.Digest, 64)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for content")
	}
}

func TestFetchChapterStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPGetter(5*time.Second), WithBaseURL(srv.URL))

	failed := make(chan error, 1)
	f.FetchChapter(context.Background(), ChapterRequest(101, 2),
		func(Content) { t.Error("onContent must not run") },
		func(err error) { failed <- err })

	select {
	case err := <-failed:
		var fe *coreerrors.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusNotFound, fe.Status)
		assert.ErrorIs(t, err, coreerrors.ErrFetch)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for failure")
	}
}

func TestFetchChapterOversizedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxBodySize+10))
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPGetter(30*time.Second), WithBaseURL(srv.URL), WithCache(time.Minute, 4))

	failed := make(chan error, 1)
	f.FetchChapter(context.Background(), ChapterRequest(101, 2),
		func(Content) { t.Error("a truncated body must not be delivered") },
		func(err error) { failed <- err })

	select {
	case err := <-failed:
		var fe *coreerrors.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusOK, fe.Status)
		assert.ErrorIs(t, err, coreerrors.ErrFetch)
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for failure")
	}
	assert.Zero(t, f.CacheStats().Size, "a failed body must not be cached")
}

func TestHTTPGetterBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	exact := &HTTPGetter{MaxBodySize: 10}
	body, err := exact.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 10)

	short := &HTTPGetter{MaxBodySize: 9}
	body, err = short.Get(context.Background(), srv.URL)
	assert.Nil(t, body)
	assert.ErrorIs(t, err, coreerrors.ErrFetch)
}

func TestFetchRedirectStatusIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPGetter(5*time.Second), WithBaseURL(srv.URL))
	_, err := f.Fetch(context.Background(), ChapterRequest(1, 1))
	assert.NoError(t, err)
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewFetcher(NewHTTPGetter(time.Second), WithBaseURL(url))
	_, err := f.Fetch(context.Background(), ChapterRequest(1, 1))

	var fe *coreerrors.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
}

func TestFetchDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	getter := GetterFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return nil, coreerrors.NewFetch(url, 500, nil)
	})

	f := NewFetcher(getter)
	_, err := f.Fetch(context.Background(), ChapterRequest(1, 1))
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchCache(t *testing.T) {
	var calls atomic.Int32
	getter := GetterFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("chapter"), nil
	})

	f := NewFetcher(getter, WithCache(time.Minute, 16))
	for i := 0; i < 3; i++ {
		c, err := f.Fetch(context.Background(), ChapterRequest(5, 1))
		require.NoError(t, err)
		assert.Equal(t, "chapter", c.HTML)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 2, f.CacheStats().Hits)

	_, err := f.Fetch(context.Background(), Request{BookID: intp(5), Chapter: intp(1), JST: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load(), "a different URL should miss the cache")
}

func TestFetchWithoutCacheAlwaysGets(t *testing.T) {
	var calls atomic.Int32
	getter := GetterFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("x"), nil
	})

	f := NewFetcher(getter)
	f.Fetch(context.Background(), ChapterRequest(5, 1))
	f.Fetch(context.Background(), ChapterRequest(5, 1))
	assert.EqualValues(t, 2, calls.Load())
}

func TestDigestIsStable(t *testing.T) {
	getter := GetterFunc(func(ctx context.Context, url string) ([]byte, error) {
		return []byte("same"), nil
	})
	f := NewFetcher(getter)

	a, err := f.Fetch(context.Background(), ChapterRequest(1, 1))
	require.NoError(t, err)
	b, err := f.Fetch(context.Background(), ChapterRequest(2, 1))
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)
}

func intp(v int) *int { return &v }
