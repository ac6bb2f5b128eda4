// Package dump reads and writes parsed documents as JSON, the interchange
// format between the scrape and load commands.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pevans/stdpapers/listing"
)

// Write encodes docs as an indented JSON array. Absent links and dates are
// written as null.
func Write(w io.Writer, docs []listing.Doc) error {
	if docs == nil {
		docs = []listing.Doc{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}
	return nil
}

// WriteFile writes docs to path, replacing any existing file.
func WriteFile(path string, docs []listing.Doc) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a JSON array of documents.
func Read(r io.Reader) ([]listing.Doc, error) {
	var docs []listing.Doc
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// ReadFile reads the documents stored in path.
func ReadFile(path string) ([]listing.Doc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	docs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}
