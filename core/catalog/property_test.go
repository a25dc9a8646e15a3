package catalog_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
)

// genStore draws a catalog of consecutive book ids with 0-6 chapters each,
// split into one or more contiguous volumes.
func genStore(t *rapid.T) *catalog.Store {
	first := rapid.IntRange(1, 500).Draw(t, "firstID")
	n := rapid.IntRange(1, 25).Draw(t, "books")

	books := make([]catalog.Book, n)
	for i := range books {
		books[i] = catalog.Book{
			ID:          first + i,
			TOCName:     "B",
			NumChapters: rapid.IntRange(0, 6).Draw(t, "chapters"),
		}
	}

	var volumes []catalog.Volume
	lo := first
	for vid := 1; lo < first+n; vid++ {
		hi := rapid.IntRange(lo, first+n-1).Draw(t, "volumeEnd")
		volumes = append(volumes, catalog.Volume{ID: vid, MinBookID: lo, MaxBookID: hi})
		lo = hi + 1
	}
	return catalog.NewStore(books, volumes)
}

func TestPropertyJoinCoversRanges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genStore(t)
		if len(s.Faults()) != 0 {
			t.Fatalf("dense catalog produced faults: %v", s.Faults())
		}
		for _, v := range s.Volumes() {
			if len(v.Books) != v.MaxBookID-v.MinBookID+1 {
				t.Fatalf("volume %d has %d books for range %d-%d", v.ID, len(v.Books), v.MinBookID, v.MaxBookID)
			}
			for i, b := range v.Books {
				if b.ID != v.MinBookID+i {
					t.Fatalf("volume %d book %d has id %d", v.ID, i, b.ID)
				}
			}
		}
	})
}

func TestPropertyChapterZeroOnlyForChapterlessBooks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genStore(t)
		for _, b := range s.Books() {
			if got, want := s.IsValidSelection(b.ID, 0), b.NumChapters == 0; got != want {
				t.Fatalf("IsValidSelection(%d, 0) = %v with %d chapters", b.ID, got, b.NumChapters)
			}
		}
	})
}

func TestPropertyNextThenPreviousRoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genStore(t)
		books := s.Books()
		b := rapid.SampledFrom(books).Draw(t, "book")
		if b.NumChapters == 0 {
			return
		}
		chapter := rapid.IntRange(1, b.NumChapters).Draw(t, "chapter")

		next, ok := s.Next(b.ID, chapter)
		if !ok {
			return
		}
		if !s.IsValidSelection(next.BookID, next.Chapter) {
			t.Fatalf("Next(%d, %d) = %+v is not a valid selection", b.ID, chapter, next)
		}
		back, ok := s.Previous(next.BookID, next.Chapter)
		if !ok || back.BookID != b.ID || back.Chapter != chapter {
			t.Fatalf("Previous(Next(%d, %d)) = (%+v, %v)", b.ID, chapter, back, ok)
		}
	})
}

func TestPropertyAdjacencyIsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genStore(t)
		bookID := rapid.IntRange(0, 600).Draw(t, "bookID")
		chapter := rapid.IntRange(0, 10).Draw(t, "chapter")

		// Neither call may panic; absence is reported through ok.
		if adj, ok := s.Next(bookID, chapter); ok {
			if _, exists := s.Book(adj.BookID); !exists {
				t.Fatalf("Next returned unknown book %d", adj.BookID)
			}
		}
		if adj, ok := s.Previous(bookID, chapter); ok {
			if _, exists := s.Book(adj.BookID); !exists {
				t.Fatalf("Previous returned unknown book %d", adj.BookID)
			}
		}
	})
}
