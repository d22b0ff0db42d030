// Package files stores uploaded document contents on the local disk.
package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/document"
)

var errOutsideRoot = errors.New("path is outside the upload directory")

type DiskStore struct {
	root string
}

var _ document.FileStore = (*DiskStore)(nil)

// NewDiskStore returns a store writing under dir, created when missing.
func NewDiskStore(dir string) (*DiskStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolving upload directory")
	}
	if err = os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload directory")
	}
	return &DiskStore{root: root}, nil
}

// Save writes r to a new file named after a random UUID and the extension of name.
// The returned path is relative to the store root.
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	fname := uuid.New().String() + strings.ToLower(filepath.Ext(name))
	fp := filepath.Join(s.root, fname)

	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating file")
	}
	size, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(fp)
		return "", 0, errors.Wrap(err, "writing file")
	}
	return fname, size, nil
}

func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	fp, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(fp)
}

// Remove deletes the file at path; a missing file is not an error.
func (s *DiskStore) Remove(path string) error {
	fp, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *DiskStore) resolve(path string) (string, error) {
	fp := filepath.Join(s.root, filepath.Clean("/"+path))
	if !strings.HasPrefix(fp, s.root+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return fp, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
