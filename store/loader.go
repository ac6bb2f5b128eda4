package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pevans/stdpapers/listing"
)

// DocStore is the storage a Loader writes to. *Store implements it.
type DocStore interface {
	Get(ctx context.Context, id string) (*Record, error)
	Put(ctx context.Context, rec Record) (string, error)
}

// Outcome tells whether Load created or replaced a document.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// Loadable reports whether doc should be loaded at all. Blank numbers and
// standing documents (SD-*) are not loaded.
func Loadable(doc listing.Doc) bool {
	return doc.Number != "" && !strings.HasPrefix(doc.Number, "SD")
}

// Loader writes parsed documents to a DocStore, keyed by document number.
type Loader struct {
	store  DocStore
	logger *slog.Logger
}

// NewLoader creates a loader writing to store.
func NewLoader(store DocStore, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, logger: logger}
}

// Load stores doc. If the number is already stored, ErrConflict is returned
// unless update is set, in which case the current revision is read and the
// write retried once.
func (l *Loader) Load(ctx context.Context, doc listing.Doc, update bool) (Outcome, error) {
	rec := Record{ID: doc.Number, Doc: doc}

	_, err := l.store.Put(ctx, rec)
	if err == nil {
		return Created, nil
	}
	if !errors.Is(err, ErrConflict) || !update {
		return 0, err
	}

	current, err := l.store.Get(ctx, doc.Number)
	if err != nil {
		return 0, fmt.Errorf("failed to read current revision: %w", err)
	}
	rec.Rev = current.Rev

	if _, err := l.store.Put(ctx, rec); err != nil {
		return 0, err
	}

	l.logger.Debug("Document updated", "number", doc.Number, "previous_rev", current.Rev)
	return Updated, nil
}

// LoadError records a document that failed to load.
type LoadError struct {
	Number string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("Error when loading doc '%s': %v [%s]", e.Number, e.Err, e.Source)
}

// Summary accumulates the results of loading several batches.
type Summary struct {
	Sources int
	Total   int
	Updated int
	Skipped int
	Errors  []LoadError
}

// Added returns the number of newly created documents.
func (s *Summary) Added() int {
	return s.Total - s.Updated
}

func (s *Summary) String() string {
	tail := "no errors detected"
	if len(s.Errors) > 0 {
		tail = fmt.Sprintf("%d errors detected", len(s.Errors))
	}
	return fmt.Sprintf("Loaded %d documents from %d files: %d added, %d updated, %s.",
		s.Total, s.Sources, s.Added(), s.Updated, tail)
}

// LoadAll loads the loadable documents of one source (a file or page name)
// into sum. Failures are collected rather than returned so one bad document
// does not stop the batch.
func (l *Loader) LoadAll(ctx context.Context, source string, docs []listing.Doc, update bool, sum *Summary) {
	sum.Sources++
	for _, doc := range docs {
		if !Loadable(doc) {
			sum.Skipped++
			continue
		}

		outcome, err := l.Load(ctx, doc, update)
		if err != nil {
			l.logger.Debug("Document not loaded", "number", doc.Number, "source", source, "error", err)
			sum.Errors = append(sum.Errors, LoadError{Number: doc.Number, Source: source, Err: err})
			continue
		}

		if outcome == Updated {
			sum.Updated++
		}
		sum.Total++
	}
}
