// Package filestore keeps uploaded documents on local disk so an import can
// be re-extracted when it is processed.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageLocal is the storage type recorded on imports saved by Local.
const StorageLocal = "local"

var ErrOutsideRoot = errors.New("path is outside the upload directory")

// Stored describes a saved file.
type Stored struct {
	Path string
	Size int64
}

// Local stores files under a root directory. Each file name is prefixed
// with a random uuid so repeated uploads of the same name never collide.
type Local struct {
	root string
}

// NewLocal creates root if needed.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute upload directory.
func (l *Local) Root() string { return l.root }

// Save copies r into a new file derived from name. A partially written file
// is removed on error.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	path := filepath.Join(l.root, uuid.NewString()+"_"+sanitize(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Stored{}, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return Stored{}, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return Stored{Path: path, Size: n}, nil
}

// Open opens a file previously returned by Save.
func (l *Local) Open(path string) (io.ReadCloser, error) {
	clean, err := l.within(path)
	if err != nil {
		return nil, err
	}
	return os.Open(clean)
}

// Remove deletes a stored file. Missing files are not an error.
func (l *Local) Remove(path string) error {
	clean, err := l.within(path)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) within(path string) (string, error) {
	clean := filepath.Clean(path)
	rel, err := filepath.Rel(l.root, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return clean, nil
}

// sanitize keeps the base name and replaces characters that are awkward in
// file names.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
