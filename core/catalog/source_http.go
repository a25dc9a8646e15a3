package catalog

import (
	"context"

	"github.com/FocuswithJustin/ScripturesMapped/internal/fetch"
)

// Upstream catalog endpoints.
const (
	DefaultBooksURL   = "https://scriptures.byu.edu/mapscrip/model/books.php"
	DefaultVolumesURL = "https://scriptures.byu.edu/mapscrip/model/volumes.php"
)

// HTTPSource reads both feeds with GET requests.
type HTTPSource struct {
	Getter     fetch.Getter
	BooksURL   string
	VolumesURL string
}

// NewHTTPSource returns a source for the default endpoints.
func NewHTTPSource(getter fetch.Getter) *HTTPSource {
	return &HTTPSource{
		Getter:     getter,
		BooksURL:   DefaultBooksURL,
		VolumesURL: DefaultVolumesURL,
	}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Books(ctx context.Context) ([]Book, error) {
	data, err := s.Getter.Get(ctx, s.BooksURL)
	if err != nil {
		return nil, err
	}
	return DecodeBooks(data, s.BooksURL)
}

func (s *HTTPSource) Volumes(ctx context.Context) ([]Volume, error) {
	data, err := s.Getter.Get(ctx, s.VolumesURL)
	if err != nil {
		return nil, err
	}
	return DecodeVolumes(data, s.VolumesURL)
}
