// Package extract turns documents on disk into plain text ready for chunking.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = fmt.Errorf("unsupported document format")

// Extractor produces the plain-text content of a document at path.
type Extractor interface {
	Extract(path string) (string, error)
}

// PlainText handles .txt and .md files as-is.
type PlainText struct{}

func (PlainText) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return string(data), nil
}

// LoadDirectory extracts every supported file under root, keyed by its
// path relative to root. Unsupported files are skipped, not failed.
func LoadDirectory(root string, extractor Extractor) (map[string]string, error) {
	docs := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		text, err := extractor.Extract(path)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFormat) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		docs[rel] = text
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents from %s: %w", root, err)
	}
	return docs, nil
}
