package catalog

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/FocuswithJustin/ScripturesMapped/core/errors"
)

// DecodeBooks parses a book feed. The feed is either a JSON object keyed by
// book id or a JSON array, which may be sparse (null entries are skipped).
// The result is ordered by id.
func DecodeBooks(data []byte, path string) ([]Book, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.NewParse("books JSON", path, "empty payload")
	}

	var books []Book
	switch trimmed[0] {
	case '{':
		var byID map[string]*Book
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return nil, &errors.ParseError{Format: "books JSON", Path: path, Message: err.Error(), Err: err}
		}
		for key, b := range byID {
			if b == nil {
				continue
			}
			if b.ID == 0 {
				// Some feeds omit the id inside the record.
				if id, err := strconv.Atoi(key); err == nil {
					b.ID = id
				}
			}
			books = append(books, *b)
		}
	case '[':
		var list []*Book
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, &errors.ParseError{Format: "books JSON", Path: path, Message: err.Error(), Err: err}
		}
		for _, b := range list {
			if b != nil {
				books = append(books, *b)
			}
		}
	default:
		return nil, errors.NewParse("books JSON", path, "expected object or array")
	}

	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// DecodeVolumes parses a volume feed, a JSON array in display order.
func DecodeVolumes(data []byte, path string) ([]Volume, error) {
	var volumes []Volume
	if err := json.Unmarshal(bytes.TrimSpace(data), &volumes); err != nil {
		return nil, &errors.ParseError{Format: "volumes JSON", Path: path, Message: err.Error(), Err: err}
	}
	return volumes, nil
}
