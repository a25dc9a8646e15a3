package catalog

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/ScripturesMapped/core/errors"
)

// Feed file names inside a FileSource directory. Each may also be stored
// xz-compressed with an added ".xz" suffix.
const (
	BooksFile   = "books.json"
	VolumesFile = "volumes.json"
)

// xzNewReader is a variable so tests can inject failures.
var xzNewReader = xz.NewReader

// FileSource reads both feeds from JSON files in Dir.
type FileSource struct {
	Dir string
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Books(ctx context.Context) ([]Book, error) {
	data, path, err := s.read(BooksFile)
	if err != nil {
		return nil, err
	}
	return DecodeBooks(data, path)
}

func (s *FileSource) Volumes(ctx context.Context) ([]Volume, error) {
	data, path, err := s.read(VolumesFile)
	if err != nil {
		return nil, err
	}
	return DecodeVolumes(data, path)
}

// read prefers the plain file and falls back to the .xz variant.
func (s *FileSource) read(name string) ([]byte, string, error) {
	plain := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(plain)
	if err == nil {
		return data, plain, nil
	}
	if !os.IsNotExist(err) {
		return nil, plain, errors.NewIO("read", plain, err)
	}

	compressed := plain + ".xz"
	f, err := os.Open(compressed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plain, errors.NewNotFound("catalog file", plain)
		}
		return nil, compressed, errors.NewIO("open", compressed, err)
	}
	defer f.Close()

	r, err := xzNewReader(f)
	if err != nil {
		return nil, compressed, errors.NewIO("decompress", compressed, err)
	}
	data, err = io.ReadAll(r)
	if err != nil {
		return nil, compressed, errors.NewIO("decompress", compressed, err)
	}
	return data, compressed, nil
}
