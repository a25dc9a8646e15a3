package catalog

import (
	"sort"

	"github.com/FocuswithJustin/ScripturesMapped/core/errors"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
)

// Store is the joined, read-only metadata catalog. It is only ever handed
// out fully built, so every Volume's Books is populated before the first
// query.
type Store struct {
	books   map[int]*Book
	volumes []*Volume
	faults  []*errors.JoinError
}

// NewStore builds the book index and joins each volume against it. Range
// ids missing from the book catalog are skipped, logged, and reported by
// Faults; so is an inverted range, which leaves the volume with no books. Volume order is preserved as given.
func NewStore(books []Book, volumes []Volume) *Store {
	s := &Store{
		books:   make(map[int]*Book, len(books)),
		volumes: make([]*Volume, 0, len(volumes)),
	}
	for i := range books {
		b := books[i]
		s.books[b.ID] = &b
	}
	for i := range volumes {
		v := volumes[i]
		s.volumes = append(s.volumes, &v)
	}
	s.join()
	return s
}

func (s *Store) join() {
	for _, v := range s.volumes {
		if v.MinBookID > v.MaxBookID {
			s.faults = append(s.faults, &errors.JoinError{
				VolumeID:  v.ID,
				BookID:    v.MinBookID,
				MaxBookID: v.MaxBookID,
				Inverted:  true,
			})
			logging.JoinRangeFault(v.ID, v.MinBookID, v.MaxBookID)
			v.Books = []*Book{}
			continue
		}
		v.Books = make([]*Book, 0, v.MaxBookID-v.MinBookID+1)
		for id := v.MinBookID; id <= v.MaxBookID; id++ {
			b, ok := s.books[id]
			if !ok {
				s.faults = append(s.faults, &errors.JoinError{VolumeID: v.ID, BookID: id})
				logging.JoinFault(v.ID, id)
				continue
			}
			v.Books = append(v.Books, b)
		}
	}
}

// Faults returns the join faults found while building the store.
func (s *Store) Faults() []*errors.JoinError {
	return s.faults
}

// Book looks up a book by id.
func (s *Store) Book(id int) (*Book, bool) {
	b, ok := s.books[id]
	return b, ok
}

// Books returns every book ordered by id.
func (s *Store) Books() []*Book {
	out := make([]*Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Volumes returns the volumes in catalog order.
func (s *Store) Volumes() []*Volume {
	return s.volumes
}

// Volume looks up a volume by id.
func (s *Store) Volume(id int) (*Volume, bool) {
	for _, v := range s.volumes {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// VolumeOf returns the volume whose range holds bookID.
func (s *Store) VolumeOf(bookID int) (*Volume, bool) {
	for _, v := range s.volumes {
		if v.Contains(bookID) {
			return v, true
		}
	}
	return nil, false
}

// VolumeRange returns the ids of the first and last volumes. An empty
// catalog yields (0, -1) so that no id falls inside the range.
func (s *Store) VolumeRange() (minID, maxID int) {
	if len(s.volumes) == 0 {
		return 0, -1
	}
	return s.volumes[0].ID, s.volumes[len(s.volumes)-1].ID
}

// IsValidSelection reports whether chapter is addressable in bookID. Books
// with numbered chapters never expose chapter 0; books without them are
// addressed only as chapter 0.
func (s *Store) IsValidSelection(bookID, chapter int) bool {
	b, ok := s.books[bookID]
	if !ok || chapter < 0 || chapter > b.NumChapters {
		return false
	}
	return !(chapter == 0 && b.NumChapters > 0)
}
