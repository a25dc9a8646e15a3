// Package router turns location fragments into navigation targets and
// dispatches them to the view, the content fetcher, and the marker layer.
package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
)

// Kind is the shape of a navigation target.
type Kind int

const (
	KindHome Kind = iota
	KindHomeForVolume
	KindBook
	KindChapter
)

var kindNames = map[Kind]string{
	KindHome:          "home",
	KindHomeForVolume: "volume",
	KindBook:          "book",
	KindChapter:       "chapter",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown target kind %q", text)
}

// Target is the resolved meaning of one fragment. Only the fields relevant
// to Kind are set.
type Target struct {
	Kind     Kind `json:"kind"`
	VolumeID int  `json:"volumeId,omitempty"`
	BookID   int  `json:"bookId,omitempty"`
	Chapter  int  `json:"chapter"`
}

// Home is the full-catalog target.
func Home() Target { return Target{Kind: KindHome} }

// HomeForVolume is the catalog scrolled to one volume.
func HomeForVolume(volumeID int) Target {
	return Target{Kind: KindHomeForVolume, VolumeID: volumeID}
}

// BookTarget selects a book.
func BookTarget(bookID int) Target { return Target{Kind: KindBook, BookID: bookID} }

// ChapterTarget selects a chapter; chapter is 0 for chapterless books.
func ChapterTarget(bookID, chapter int) Target {
	return Target{Kind: KindChapter, BookID: bookID, Chapter: chapter}
}

func (t Target) String() string {
	switch t.Kind {
	case KindHome:
		return "Home"
	case KindHomeForVolume:
		return fmt.Sprintf("HomeForVolume(%d)", t.VolumeID)
	case KindBook:
		return fmt.Sprintf("Book(%d)", t.BookID)
	case KindChapter:
		return fmt.Sprintf("Chapter(%d, %d)", t.BookID, t.Chapter)
	}
	return t.Kind.String()
}

// Fragment returns the location fragment that resolves to t, without the
// leading '#'. Book and chapter fragments carry volume 0, as the chapter
// picker links do.
func (t Target) Fragment() string {
	switch t.Kind {
	case KindHomeForVolume:
		return strconv.Itoa(t.VolumeID)
	case KindBook:
		return "0:" + strconv.Itoa(t.BookID)
	case KindChapter:
		return "0:" + strconv.Itoa(t.BookID) + ":" + strconv.Itoa(t.Chapter)
	}
	return ""
}

// SplitFragment strips one leading '#' and splits the rest on ':'. An empty
// fragment has no ids.
func SplitFragment(fragment string) []string {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return nil
	}
	return strings.Split(fragment, ":")
}

// Resolve maps a fragment to a target against store. Anything that does not
// parse or does not name an existing selection resolves to Home; Resolve
// never fails.
//
// The volume id of a book or chapter fragment is not checked.
func Resolve(store *catalog.Store, fragment string) Target {
	ids := SplitFragment(fragment)

	switch {
	case len(ids) == 0:
		return Home()

	case len(ids) == 1:
		volumeID, err := strconv.Atoi(ids[0])
		if err != nil {
			return Home()
		}
		lo, hi := store.VolumeRange()
		if volumeID < lo || volumeID > hi {
			return Home()
		}
		return HomeForVolume(volumeID)
	}

	bookID, err := strconv.Atoi(ids[1])
	if err != nil {
		return Home()
	}
	if _, ok := store.Book(bookID); !ok {
		return Home()
	}
	if len(ids) == 2 {
		return BookTarget(bookID)
	}

	chapter, err := strconv.Atoi(ids[2])
	if err != nil || !store.IsValidSelection(bookID, chapter) {
		return Home()
	}
	return ChapterTarget(bookID, chapter)
}
