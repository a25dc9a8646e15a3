// Package catalogtest provides a small in-memory catalog for tests.
package catalogtest

import (
	"context"
	"sync"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
)

// Books returns the fixture book catalog:
//
//	1 Genesis (50)  2 Exodus (40)  3 Obadiah (1)
//	4 Introduction (0)  5 Title Page (0)  6 Enos (1)  7 Jarom (3)
//	8 Facsimiles (0)  9 Moroni (10)
func Books() []catalog.Book {
	return []catalog.Book{
		{ID: 1, TOCName: "Gen.", FullName: "Genesis", GridName: "Gen", NumChapters: 50},
		{ID: 2, TOCName: "Ex.", FullName: "Exodus", GridName: "Ex", NumChapters: 40},
		{ID: 3, TOCName: "Obad.", FullName: "Obadiah", GridName: "Obad", NumChapters: 1},
		{ID: 4, TOCName: "Intro.", FullName: "Introduction", GridName: "Intro", NumChapters: 0},
		{ID: 5, TOCName: "Title", FullName: "Title Page", GridName: "Title", NumChapters: 0},
		{ID: 6, TOCName: "Enos", FullName: "Enos", GridName: "Enos", NumChapters: 1},
		{ID: 7, TOCName: "Jarom", FullName: "Jarom", GridName: "Jarom", NumChapters: 3},
		{ID: 8, TOCName: "Fac.", FullName: "Facsimiles", GridName: "Fac", NumChapters: 0},
		{ID: 9, TOCName: "Moro.", FullName: "Moroni", GridName: "Moro", NumChapters: 10},
	}
}

// Volumes returns the fixture volumes: 1 covers books 1-4, 2 covers 5-7,
// 3 covers 8-9.
func Volumes() []catalog.Volume {
	return []catalog.Volume{
		{ID: 1, FullName: "Old Testament", MinBookID: 1, MaxBookID: 4},
		{ID: 2, FullName: "Book of Mormon", MinBookID: 5, MaxBookID: 7},
		{ID: 3, FullName: "Pearl of Great Price", MinBookID: 8, MaxBookID: 9},
	}
}

// Store returns the joined fixture store.
func Store() *catalog.Store {
	return catalog.NewStore(Books(), Volumes())
}

// Source is a catalog.Source over fixed data. When Gate is set, each feed
// waits for a value on its channel before returning, so tests can choose the
// completion order.
type Source struct {
	BookList   []catalog.Book
	VolumeList []catalog.Volume
	BooksErr   error
	VolumesErr error

	BooksGate   chan struct{}
	VolumesGate chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

// NewSource returns a Source over the fixture catalog.
func NewSource() *Source {
	return &Source{BookList: Books(), VolumeList: Volumes()}
}

func (s *Source) Name() string { return "fixture" }

func (s *Source) Books(ctx context.Context) ([]catalog.Book, error) {
	s.record("books")
	if err := wait(ctx, s.BooksGate); err != nil {
		return nil, err
	}
	if s.BooksErr != nil {
		return nil, s.BooksErr
	}
	return s.BookList, nil
}

func (s *Source) Volumes(ctx context.Context) ([]catalog.Volume, error) {
	s.record("volumes")
	if err := wait(ctx, s.VolumesGate); err != nil {
		return nil, err
	}
	if s.VolumesErr != nil {
		return nil, s.VolumesErr
	}
	return s.VolumeList, nil
}

// Calls returns how many times the named feed ("books" or "volumes") was read.
func (s *Source) Calls(feed string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[feed]
}

func (s *Source) record(feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[feed]++
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
