package catalog_test

import (
	"testing"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/core/catalog/catalogtest"
)

func TestTitle(t *testing.T) {
	b := &catalog.Book{TOCName: "Gen."}
	if got := catalog.Title(b, 0); got != "Gen." {
		t.Errorf("Title(0) = %q, want %q", got, "Gen.")
	}
	if got := catalog.Title(b, 12); got != "Gen. 12" {
		t.Errorf("Title(12) = %q, want %q", got, "Gen. 12")
	}
}

func TestNext(t *testing.T) {
	s := catalogtest.Store()

	tests := []struct {
		name    string
		book    int
		chapter int
		want    catalog.Adjacent
		wantOK  bool
	}{
		{"within book", 1, 1, catalog.Adjacent{BookID: 1, Chapter: 2, Title: "Gen. 2"}, true},
		{"into numbered book", 1, 50, catalog.Adjacent{BookID: 2, Chapter: 1, Title: "Ex. 1"}, true},
		{"into chapterless book", 3, 1, catalog.Adjacent{BookID: 4, Chapter: 0, Title: "Intro."}, true},
		{"out of chapterless book", 4, 0, catalog.Adjacent{BookID: 5, Chapter: 0, Title: "Title"}, true},
		{"last chapter of three", 7, 3, catalog.Adjacent{BookID: 8, Chapter: 0, Title: "Fac."}, true},
		{"end of corpus", 9, 10, catalog.Adjacent{}, false},
		{"unknown book", 999, 1, catalog.Adjacent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Next(tt.book, tt.chapter)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Next(%d, %d) = (%+v, %v), want (%+v, %v)", tt.book, tt.chapter, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPrevious(t *testing.T) {
	s := catalogtest.Store()

	tests := []struct {
		name    string
		book    int
		chapter int
		want    catalog.Adjacent
		wantOK  bool
	}{
		{"within book", 1, 2, catalog.Adjacent{BookID: 1, Chapter: 1, Title: "Gen. 1"}, true},
		{"to last chapter of previous", 2, 1, catalog.Adjacent{BookID: 1, Chapter: 50, Title: "Gen. 50"}, true},
		{"first of three to single chapter", 7, 1, catalog.Adjacent{BookID: 6, Chapter: 1, Title: "Enos 1"}, true},
		{"into chapterless book", 9, 1, catalog.Adjacent{BookID: 8, Chapter: 0, Title: "Fac."}, true},
		{"from chapterless book", 5, 0, catalog.Adjacent{BookID: 4, Chapter: 0, Title: "Intro."}, true},
		{"start of corpus", 1, 1, catalog.Adjacent{}, false},
		{"unknown book", 999, 5, catalog.Adjacent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Previous(tt.book, tt.chapter)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Previous(%d, %d) = (%+v, %v), want (%+v, %v)", tt.book, tt.chapter, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// A book with three chapters: next from the last lands on the first chapter
// of the following book, previous from the first lands on the last chapter
// of the preceding book.
func TestAdjacencyAcrossBookBoundaries(t *testing.T) {
	s := catalogtest.Store()

	next, ok := s.Next(7, 3)
	if !ok || next.BookID != 8 || next.Chapter != 0 {
		t.Errorf("Next(7, 3) = (%+v, %v), want book 8 chapter 0", next, ok)
	}

	prev, ok := s.Previous(7, 1)
	if !ok || prev.BookID != 6 || prev.Chapter != 1 {
		t.Errorf("Previous(7, 1) = (%+v, %v), want book 6 chapter 1", prev, ok)
	}
}

func TestAdjacencyOnSparseIDs(t *testing.T) {
	s := catalog.NewStore([]catalog.Book{
		{ID: 101, TOCName: "A", NumChapters: 2},
		{ID: 105, TOCName: "B", NumChapters: 2},
	}, nil)

	if _, ok := s.Next(101, 2); ok {
		t.Error("Next should not skip over a gap in ids")
	}
	if _, ok := s.Previous(105, 1); ok {
		t.Error("Previous should not skip over a gap in ids")
	}
}
