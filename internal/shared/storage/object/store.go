package object

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Object describes a stored upload.
type Object struct {
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// ObjectStore defines the contract for saving and retrieving uploaded source files.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Materialize copies a stored object into a temp file that keeps the original
// file extension, so extension-based extraction can read it. The caller must
// invoke cleanup once the file is no longer needed.
func Materialize(ctx context.Context, store ObjectStore, storageKey, fileName string) (path string, cleanup func(), err error) {
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", nil, fmt.Errorf("open object key=%s: %w", storageKey, err)
	}
	defer body.Close()

	ext := strings.ToLower(filepath.Ext(fileName))
	f, err := os.CreateTemp("", "buildops-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup = func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy object key=%s: %w", storageKey, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
