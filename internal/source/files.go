package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/viant/afs"
)

// Files opens the files of one release directory.
type Files struct {
	fs     afs.Service
	base   string
	naming Naming
}

// NewFiles returns a Files rooted at base (a path or storage URL).
func NewFiles(base string, naming Naming) *Files {
	return &Files{fs: afs.New(), base: base, naming: naming}
}

// Location joins name onto the release directory.
func (f *Files) Location(name string) string {
	return Join(f.base, name)
}

// OpenGeography opens the geography file.
func (f *Files) OpenGeography(ctx context.Context) (io.ReadCloser, int64, error) {
	return Open(ctx, f.fs, f.Location(f.naming.GeographyFile()))
}

// OpenData opens the estimate or margin-of-error file of a sequence.
func (f *Files) OpenData(ctx context.Context, kind Kind, sequence int) (io.ReadCloser, int64, error) {
	return Open(ctx, f.fs, f.Location(f.naming.DataFile(kind, sequence)))
}

// Open opens location through fs and returns its size when known.
// A missing location yields an error wrapping acs.ErrMissingFile.
func Open(ctx context.Context, fs afs.Service, location string) (io.ReadCloser, int64, error) {
	exists, err := fs.Exists(ctx, location)
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", location, err)
	}
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", acs.ErrMissingFile, location)
	}

	var size int64
	if obj, err := fs.Object(ctx, location); err == nil {
		size = obj.Size()
	}

	rc, err := fs.OpenURL(ctx, location)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", location, err)
	}
	return rc, size, nil
}

// OpenLocation opens a single file outside a release directory, such as the
// lookup table.
func OpenLocation(ctx context.Context, location string) (io.ReadCloser, int64, error) {
	return Open(ctx, afs.New(), location)
}

// Join appends name to a directory path or URL.
func Join(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + name
}
