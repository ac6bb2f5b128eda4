package listing

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/PuerkitoBio/goquery"
)

// Field names a Doc field filled from a table column.
type Field string

const (
	FieldNumber      Field = "number"
	FieldURL         Field = "url"
	FieldTitle       Field = "title"
	FieldAuthors     Field = "authors"
	FieldDate        Field = "date"
	FieldMailingDate Field = "mailing_date"
	FieldPrevVersion Field = "prev_version"
	FieldSubgroups   Field = "subgroups"
	FieldDisposition Field = "disposition"
)

// cellParser parses one cell into its field of doc.
type cellParser func(cell *goquery.Selection, base *url.URL, doc *Doc) error

// Column maps a table column to a Doc field.
type Column struct {
	Field Field
	Index int
	parse cellParser
}

// Format describes one historical layout of the listing table. The first
// Mapping entry is always the document number column, so errors on later
// columns can name the document.
type Format struct {
	Name    string
	Headers [][]string // accepted labels per header position
	Columns int
	Mapping []Column
}

// Modern tables have been in use since 2013.
var Modern = &Format{
	Name:    "modern",
	Headers: labels("WG21 Number", "Title", "Author", "Document Date", "Mailing Date", "Previous Version", "Subgroup", "Disposition"),
	Columns: 8,
	Mapping: []Column{
		numberColumn(0),
		linkColumn(0),
		titleColumn(1),
		authorsColumn(2),
		dateColumn(FieldDate, 3),
		dateColumn(FieldMailingDate, 4),
		prevVersionColumn(5),
		subgroupsColumn(6),
		dispositionColumn(7),
	},
}

// Transition tables were used from 2011-03 through 2012 and carry the
// PL22.16 number next to the WG21 one.
var Transition = &Format{
	Name:    "transition",
	Headers: labels("WG21 Number", "PL22.16 Number", "Title", "Author", "Document Date", "Mailing Date", "Previous Version", "Subgroup", "Disposition"),
	Columns: 9,
	Mapping: []Column{
		numberColumn(0),
		linkColumn(0),
		titleColumn(2),
		authorsColumn(3),
		dateColumn(FieldDate, 4),
		dateColumn(FieldMailingDate, 5),
		prevVersionColumn(6),
		subgroupsColumn(7),
		dispositionColumn(8),
	},
}

// Legacy tables were used from 2004 through 2011-02. They have no
// disposition column and the previous version may carry a J16 number.
var Legacy = &Format{
	Name: "legacy",
	Headers: [][]string{
		{"WG21 Number"},
		{"J16 Number", "PL22.16 Number"},
		{"Title"},
		{"Author"},
		{"Document Date"},
		{"Mailing Date"},
		{"Previous Version"},
		{"Subgroup"},
	},
	Columns: 8,
	Mapping: []Column{
		numberColumn(0),
		linkColumn(0),
		titleColumn(2),
		authorsColumn(3),
		dateColumn(FieldDate, 4),
		dateColumn(FieldMailingDate, 5),
		prevVersionRefColumn(6),
		subgroupsColumn(7),
	},
}

// Formats lists the known formats in detection order, newest first.
var Formats = []*Format{Modern, Transition, Legacy}

// Detect reports whether headers match this format's header row exactly.
func (f *Format) Detect(headers []string) bool {
	if len(headers) != len(f.Headers) {
		return false
	}
	for i, h := range headers {
		if !slices.Contains(f.Headers[i], h) {
			return false
		}
	}
	return true
}

// ParseRow parses the td cells of one data row. On failure the returned
// ParseError carries the document number if it was parsed before the failing
// column; Table and Row are left for the caller to fill in.
func (f *Format) ParseRow(cells *goquery.Selection, base *url.URL) (Doc, *ParseError) {
	if n := cells.Length(); n != f.Columns {
		err := fmt.Errorf("%w: got %d, want %d", ErrWrongColumnCount, n, f.Columns)
		return Doc{}, f.rowError(nil, "", err)
	}

	var doc Doc
	var number *string
	for _, col := range f.Mapping {
		if err := col.parse(cells.Eq(col.Index), base, &doc); err != nil {
			return Doc{}, f.rowError(number, col.Field, err)
		}
		if col.Field == FieldNumber {
			n := doc.Number
			number = &n
		}
	}
	return doc, nil
}

func (f *Format) rowError(number *string, field Field, err error) *ParseError {
	return &ParseError{
		Format:  f.Name,
		Number:  number,
		Field:   string(field),
		Message: err.Error(),
		err:     err,
	}
}

// Detect picks the format for a table from its header labels. When nothing
// matches, prev (the format of an earlier table on the same page) is reused;
// tables on one page share an era even when a header row is missing. With no
// prev, ErrUnknownFormat is returned.
func Detect(headers []string, prev *Format) (*Format, error) {
	for _, f := range Formats {
		if f.Detect(headers) {
			return f, nil
		}
	}
	if prev != nil {
		return prev, nil
	}
	return nil, fmt.Errorf("%w: headers %q", ErrUnknownFormat, headers)
}

func labels(names ...string) [][]string {
	headers := make([][]string, len(names))
	for i, name := range names {
		headers[i] = []string{name}
	}
	return headers
}

func numberColumn(index int) Column {
	return Column{Field: FieldNumber, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		number, err := ParseDocNumber(cell.Text())
		doc.Number = number
		return err
	}}
}

func linkColumn(index int) Column {
	return Column{Field: FieldURL, Index: index, parse: func(cell *goquery.Selection, base *url.URL, doc *Doc) error {
		link, err := ParseLink(cell, base)
		doc.URL = link
		return err
	}}
}

func titleColumn(index int) Column {
	return Column{Field: FieldTitle, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		doc.Title = ParsePlain(cell.Text())
		return nil
	}}
}

func authorsColumn(index int) Column {
	return Column{Field: FieldAuthors, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		doc.Authors = ParseAuthors(cell.Text())
		return nil
	}}
}

func dateColumn(field Field, index int) Column {
	return Column{Field: field, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		date, err := ParseDate(cell.Text())
		if field == FieldMailingDate {
			doc.MailingDate = date
		} else {
			doc.Date = date
		}
		return err
	}}
}

func prevVersionColumn(index int) Column {
	return Column{Field: FieldPrevVersion, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		prev, err := ParseDocNumber(cell.Text())
		doc.PrevVersion = prev
		return err
	}}
}

func prevVersionRefColumn(index int) Column {
	return Column{Field: FieldPrevVersion, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		prev, err := ParsePrevVersionRef(cell.Text())
		doc.PrevVersion = prev
		return err
	}}
}

func subgroupsColumn(index int) Column {
	return Column{Field: FieldSubgroups, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		doc.Subgroups = ParseSubgroups(cell.Text())
		return nil
	}}
}

func dispositionColumn(index int) Column {
	return Column{Field: FieldDisposition, Index: index, parse: func(cell *goquery.Selection, _ *url.URL, doc *Doc) error {
		doc.Disposition = ParsePlain(cell.Text())
		return nil
	}}
}
