// Package loader reads and writes schematic document files, choosing the
// codec from the file extension.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"schematic/internal/codec"
)

// LoadFile reads and validates a document from disk
func LoadFile(path string) (*codec.Document, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return Parse(data, c)
}

// Parse decodes and validates a document with the given codec
func Parse(data []byte, c codec.Importer) (*codec.Document, error) {
	doc, err := c.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s document: %w", c.Format(), err)
	}
	return doc, nil
}

// SaveFile writes a document next to path and renames it into place, so a
// watcher never sees a half-written file
func SaveFile(path string, doc *codec.Document) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := c.Export(doc, &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
