// Package listing extracts paper records from committee document listing
// pages. A listing page holds one or more tables whose header layout follows
// one of the known Formats; each data row becomes a Doc, and rows that cannot
// be parsed are reported as ParseErrors without stopping the rest of the page.
package listing

import (
	"errors"
	"fmt"
)

// Fatal errors returned by Parse. These abort the whole page.
var (
	ErrNoTables      = errors.New("no documents table found on page")
	ErrUnknownFormat = errors.New("cannot find compatible table format")
)

// Row-level errors wrapped by ParseError.
var (
	ErrWrongColumnCount = errors.New("wrong number of columns")
	ErrBadDocNumber     = errors.New("bad document number")
	ErrBadDocReference  = errors.New("bad document reference")
	ErrBadDate          = errors.New("bad document date")
	ErrBadLink          = errors.New("bad document link")
)

// Doc is one paper parsed from a listing row. It is built once per row and
// not modified afterwards.
type Doc struct {
	Number      string   `json:"number"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	URL         *string  `json:"url"`
	Date        *string  `json:"date"`
	MailingDate *string  `json:"mailing_date"`
	PrevVersion string   `json:"prev_version"`
	Subgroups   []string `json:"subgroups"`
	Disposition string   `json:"disposition"`
}

// ParseError describes a single row that could not be parsed. Table and Row
// are zero-based positions in the page so callers can point back at the
// source.
type ParseError struct {
	Format  string  `json:"format"`
	Number  *string `json:"number,omitempty"` // parsed before the failure, if any
	Field   string  `json:"field,omitempty"`
	Table   int     `json:"table"`
	Row     int     `json:"row"`
	Message string  `json:"message"`

	err error
}

func (e *ParseError) Error() string {
	where := fmt.Sprintf("%s table %d row %d", e.Format, e.Table, e.Row)
	if e.Number != nil && *e.Number != "" {
		where += " (" + *e.Number + ")"
	}
	return where + ": " + e.Message
}

// Unwrap returns the underlying field error, so errors.Is works against the
// sentinel errors of this package.
func (e *ParseError) Unwrap() error {
	return e.err
}

// Result holds everything parsed from one page, in page order.
type Result struct {
	Docs   []Doc
	Errors []ParseError
}
