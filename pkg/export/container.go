package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
)

// ErrBlobNotFound is returned by a BlobStore when the requested UID has no
// blob behind it.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a content-addressed store of attachment blobs keyed by the
// opaque file UID from the export.
type BlobStore interface {
	Open(uid string) (io.ReadCloser, error)
}

const (
	exportEntryName = "export.json"
	blobDirName     = "files"
)

// Container is an opened export input: either a bare document, or an archive
// holding export.json plus a files/ blob directory.
type Container struct {
	// Data is the raw export document.
	Data []byte
	// Blobs serves attachment blobs. Nil when the input was a bare document.
	Blobs BlobStore

	zr *zip.ReadCloser
}

// OpenContainer opens an input path as a ZIP archive if it is one, otherwise
// reads it as a bare export document.
func OpenContainer(inputPath string) (*Container, error) {
	zr, err := zip.OpenReader(inputPath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			data, readErr := os.ReadFile(inputPath)
			if readErr != nil {
				return nil, fmt.Errorf("reading export: %w", readErr)
			}
			return &Container{Data: data}, nil
		}
		return nil, fmt.Errorf("opening export: %w", err)
	}

	store := &zipBlobStore{blobs: make(map[string]*zip.File)}
	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == exportEntryName {
			entry = f
			continue
		}
		if dir, uid := path.Split(f.Name); dir == blobDirName+"/" && uid != "" {
			store.blobs[uid] = f
		}
	}
	if entry == nil {
		zr.Close()
		return nil, &MalformedExportError{Field: exportEntryName, Reason: "missing from archive"}
	}

	rc, err := entry.Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("opening %s: %w", exportEntryName, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("reading %s: %w", exportEntryName, err)
	}

	return &Container{Data: data, Blobs: store, zr: zr}, nil
}

func (c *Container) Close() error {
	if c.zr != nil {
		return c.zr.Close()
	}
	return nil
}

type zipBlobStore struct {
	blobs map[string]*zip.File
}

func (s *zipBlobStore) Open(uid string) (io.ReadCloser, error) {
	f, ok := s.blobs[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, uid)
	}
	return f.Open()
}
