package attachment

import (
	"context"
	"errors"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/conductorone/keeper-migrate/pkg/export"
)

// File is a materialized attachment, ready for upload under its display name.
type File struct {
	Name string
	Path string
}

// Materialize extracts a record's attachment blobs into scratchDir under
// human-readable names. Each blob lands in its own UID-keyed subdirectory, so
// records carrying attachments with the same display name never overwrite one
// another. Missing blobs are skipped with a warning; the blob store itself is
// never mutated. The produced paths are deterministic, so materializing the
// same record twice yields the same files.
func Materialize(ctx context.Context, store export.BlobStore, rec export.Record, scratchDir string) []File {
	if store == nil || len(rec.Attachments) == 0 {
		return nil
	}
	l := ctxzap.Extract(ctx)

	var files []File
	for _, att := range rec.Attachments {
		src, err := store.Open(att.FileUID)
		if err != nil {
			if errors.Is(err, export.ErrBlobNotFound) {
				l.Warn("attachment blob missing from store, skipping",
					zap.String("record", rec.Title),
					zap.String("file_uid", att.FileUID),
				)
			} else {
				l.Warn("failed to open attachment blob, skipping",
					zap.String("record", rec.Title),
					zap.String("file_uid", att.FileUID),
					zap.Error(err),
				)
			}
			continue
		}

		name := outputName(att)
		outPath := filepath.Join(scratchDir, att.FileUID, name)
		if err := writeBlob(src, outPath); err != nil {
			l.Warn("failed to write attachment to scratch dir, skipping",
				zap.String("record", rec.Title),
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}
		files = append(files, File{Name: name, Path: outPath})
	}
	return files
}

func writeBlob(src io.ReadCloser, outPath string) error {
	defer src.Close()
	if err := os.MkdirAll(filepath.Dir(outPath), 0o700); err != nil {
		return err
	}
	dst, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// outputName computes the upload filename: the display name if present, else
// the blob UID, with an extension inferred from the MIME type when the name
// has none.
func outputName(att export.Attachment) string {
	name := att.Name
	if name == "" {
		name = att.FileUID
	}
	if filepath.Ext(name) == "" {
		if ext := extFromMIME(att.MIME); ext != "" {
			name += ext
		}
	}
	return name
}

// canonicalExts pins the extension for types where the platform mime table is
// ambiguous or reports an atypical variant (".jpe") first.
var canonicalExts = map[string]string{
	"image/jpeg": ".jpg",
	"text/plain": ".txt",
}

func extFromMIME(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	if ext, ok := canonicalExts[parsed]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
