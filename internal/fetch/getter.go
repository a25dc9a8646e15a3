// Package fetch issues the GET requests for catalog feeds and chapter
// content.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FocuswithJustin/ScripturesMapped/core/errors"
)

// maxBodySize bounds a single response body unless HTTPGetter.MaxBodySize
// is set.
const maxBodySize = 16 << 20

// Getter is the HTTP GET capability: a payload, or an error that is a
// *errors.FetchError for transport failures and non-2xx/3xx statuses.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// GetterFunc adapts a function to Getter.
type GetterFunc func(ctx context.Context, url string) ([]byte, error)

func (f GetterFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPGetter is the net/http implementation of Getter.
type HTTPGetter struct {
	Client *http.Client

	// MaxBodySize bounds a response body; zero means maxBodySize. A larger
	// body is a failure, never a truncated payload.
	MaxBodySize int64
}

// NewHTTPGetter returns a getter whose client gives up after timeout.
func NewHTTPGetter(timeout time.Duration) *HTTPGetter {
	return &HTTPGetter{Client: &http.Client{Timeout: timeout}}
}

func (g *HTTPGetter) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetch(url, 0, err)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewFetch(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, errors.NewFetch(url, resp.StatusCode, nil)
	}

	limit := g.MaxBodySize
	if limit <= 0 {
		limit = maxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.NewFetch(url, 0, err)
	}
	if int64(len(body)) > limit {
		return nil, errors.NewFetch(url, resp.StatusCode, fmt.Errorf("response body exceeds %d bytes", limit))
	}
	return body, nil
}
