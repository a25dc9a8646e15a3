// Package render draws the navigation views as HTML fragments and hands them
// to a publisher, typically a browser session.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/core/errors"
	"github.com/FocuswithJustin/ScripturesMapped/internal/router"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Frame is one rendered view.
type Frame struct {
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Anchor string `json:"anchor,omitempty"`
	Digest string `json:"digest,omitempty"`
}

// Publisher receives rendered frames.
type Publisher interface {
	Publish(frame Frame)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Frame)

func (f PublisherFunc) Publish(frame Frame) { f(frame) }

var templateFuncs = template.FuncMap{
	"fragment": func(bookID, chapter int) string {
		return router.ChapterTarget(bookID, chapter).Fragment()
	},
	// Chapter payloads come from the content endpoint already formatted.
	"content": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// HTML renders views with the embedded templates.
type HTML struct {
	tmpl *template.Template
	out  Publisher
}

var _ router.Renderer = (*HTML)(nil)

// New parses the templates and returns a renderer publishing to out.
func New(out Publisher) (*HTML, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	return &HTML{tmpl: tmpl, out: out}, nil
}

// Home lists every volume with its book grid.
func (h *HTML) Home(volumes []*catalog.Volume) error {
	return h.publish("home", volumes, Frame{Kind: "home", Title: "The Scriptures"})
}

// Volume lists a single volume's books.
func (h *HTML) Volume(v *catalog.Volume) error {
	return h.publish("home", []*catalog.Volume{v}, Frame{
		Kind:   "volume",
		Title:  v.FullName,
		Anchor: "v" + strconv.Itoa(v.ID),
	})
}

// Book shows the chapter picker.
func (h *HTML) Book(b *catalog.Book, chapters []int) error {
	data := struct {
		Book     *catalog.Book
		Chapters []int
	}{b, chapters}
	return h.publish("book", data, Frame{Kind: "book", Title: b.FullName})
}

// Chapter shows fetched content with previous/next links.
func (h *HTML) Chapter(view router.ChapterView) error {
	return h.publish("chapter", view, Frame{
		Kind:   "chapter",
		Title:  view.Title,
		Digest: view.Content.Digest,
	})
}

func (h *HTML) publish(name string, data any, frame Frame) error {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.Wrapf(err, "render %s", name)
	}
	frame.HTML = buf.String()
	if h.out != nil {
		h.out.Publish(frame)
	}
	return nil
}
