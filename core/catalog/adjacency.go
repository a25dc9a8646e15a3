package catalog

import "strconv"

// Adjacent is a neighbouring chapter, as shown on previous/next links.
type Adjacent struct {
	BookID  int    `json:"bookId"`
	Chapter int    `json:"chapter"`
	Title   string `json:"title"`
}

// Title is the display title for a chapter: the book's TOC name, followed
// by the chapter number unless the chapter is 0.
func Title(b *Book, chapter int) string {
	if chapter > 0 {
		return b.TOCName + " " + strconv.Itoa(chapter)
	}
	return b.TOCName
}

// Next returns the chapter after (bookID, chapter), crossing into the
// following book when chapter is the last one. The first chapter of a book
// is 1, or 0 for a book without numbered chapters. ok is false at the end
// of the corpus or when bookID is unknown.
func (s *Store) Next(bookID, chapter int) (Adjacent, bool) {
	b, ok := s.books[bookID]
	if !ok {
		return Adjacent{}, false
	}
	if chapter < b.NumChapters {
		return Adjacent{BookID: bookID, Chapter: chapter + 1, Title: Title(b, chapter+1)}, true
	}

	nb, ok := s.books[bookID+1]
	if !ok {
		return Adjacent{}, false
	}
	start := 0
	if nb.NumChapters > 0 {
		start = 1
	}
	return Adjacent{BookID: nb.ID, Chapter: start, Title: Title(nb, start)}, true
}

// Previous returns the chapter before (bookID, chapter). From the first
// chapter it lands on the last chapter of the preceding book, which is 0
// for a book without numbered chapters. ok is false at the start of the
// corpus or when bookID is unknown.
func (s *Store) Previous(bookID, chapter int) (Adjacent, bool) {
	b, ok := s.books[bookID]
	if !ok {
		return Adjacent{}, false
	}
	if chapter > 1 {
		return Adjacent{BookID: bookID, Chapter: chapter - 1, Title: Title(b, chapter-1)}, true
	}

	pb, ok := s.books[bookID-1]
	if !ok {
		return Adjacent{}, false
	}
	return Adjacent{BookID: pb.ID, Chapter: pb.NumChapters, Title: Title(pb, pb.NumChapters)}, true
}
