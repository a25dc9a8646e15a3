// Package catalog holds the scripture metadata catalog: books, volumes, the
// join between them, and previous/next chapter navigation over it.
package catalog

// Book is one entry of the book catalog.
//
// NumChapters is zero for books without numbered chapters; such a book is
// addressed as chapter 0.
type Book struct {
	ID          int    `json:"id"`
	TOCName     string `json:"tocName"`
	FullName    string `json:"fullName"`
	GridName    string `json:"gridName"`
	NumChapters int    `json:"numChapters"`

	// Upstream fields carried for the render layer.
	ParentBookID *int   `json:"parentBookId,omitempty"`
	Subdiv       string `json:"subdiv,omitempty"`
	BackName     string `json:"backName,omitempty"`
	CiteAbbr     string `json:"citeAbbr,omitempty"`
	CiteFull     string `json:"citeFull,omitempty"`
	JSTTitle     string `json:"jstTitle,omitempty"`
	WebTitle     string `json:"webTitle,omitempty"`
	URLPath      string `json:"urlPath,omitempty"`
}

// Volume is a top-level grouping of books covering the inclusive id range
// MinBookID..MaxBookID.
type Volume struct {
	ID        int    `json:"id"`
	FullName  string `json:"fullName"`
	MinBookID int    `json:"minBookId"`
	MaxBookID int    `json:"maxBookId"`

	Abbr     string `json:"abbr,omitempty"`
	CiteAbbr string `json:"citeAbbr,omitempty"`
	CiteFull string `json:"citeFull,omitempty"`
	URLPath  string `json:"urlPath,omitempty"`
	LDSOrg   string `json:"lds_org,omitempty"`
	Subdiv   string `json:"subdiv,omitempty"`

	// Books is filled by the join, ascending by id.
	Books []*Book `json:"-"`
}

// Contains reports whether bookID falls inside the volume's declared range.
func (v *Volume) Contains(bookID int) bool {
	return bookID >= v.MinBookID && bookID <= v.MaxBookID
}
