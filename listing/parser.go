package listing

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parser parses listing pages. The zero value is ready to use.
type Parser struct {
	Logger *slog.Logger
}

// Parse parses doc with a default Parser.
func Parse(doc *goquery.Document) (*Result, error) {
	return (&Parser{}).Parse(doc)
}

// Parse extracts every document row from every top-level table of doc.
// Documents and row errors are returned in page order. A page without tables,
// or whose first table has an unknown header, fails with ErrNoTables or
// ErrUnknownFormat and no partial result.
func (p *Parser) Parse(doc *goquery.Document) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tables := topLevelTables(doc)
	if tables.Length() == 0 {
		return nil, ErrNoTables
	}

	base := baseURL(doc)
	result := &Result{
		Docs:   []Doc{},
		Errors: []ParseError{},
	}

	var format *Format
	for i := 0; i < tables.Length(); i++ {
		rows := tableRows(tables.Eq(i))

		var headers []string
		if len(rows) > 0 {
			headers = headerLabels(rows[0])
		}

		f, err := Detect(headers, format)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		if f.Detect(headers) {
			logger.Debug("Table format detected", "table", i, "format", f.Name)
		} else {
			logger.Debug("Table header not recognized, reusing previous format",
				"table", i,
				"format", f.Name,
				"headers", headers)
		}
		format = f

		parseTable(format, i, rows, base, result)
	}

	logger.Debug("Listing parsed",
		"tables", tables.Length(),
		"docs", len(result.Docs),
		"errors", len(result.Errors))

	return result, nil
}

func parseTable(format *Format, table int, rows []*goquery.Selection, base *url.URL, result *Result) {
	for rowIndex, row := range rows {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			// Header and separator rows
			continue
		}

		doc, perr := format.ParseRow(cells, base)
		if perr != nil {
			perr.Table = table
			perr.Row = rowIndex
			result.Errors = append(result.Errors, *perr)
			continue
		}
		result.Docs = append(result.Docs, doc)
	}
}

// topLevelTables returns the tables of the page body that are not nested in
// another table, in document order.
func topLevelTables(doc *goquery.Document) *goquery.Selection {
	return doc.Find("body table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("table").Length() == 0
	})
}

// tableRows returns the rows of table in order, whether they sit directly
// under the table or inside thead, tbody and tfoot sections.
func tableRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "tr":
			rows = append(rows, child)
		case "thead", "tbody", "tfoot":
			child.ChildrenFiltered("tr").Each(func(_ int, row *goquery.Selection) {
				rows = append(rows, row)
			})
		}
	})
	return rows
}

// headerLabels returns the whitespace-normalized th labels of row.
func headerLabels(row *goquery.Selection) []string {
	return row.ChildrenFiltered("th").Map(func(_ int, th *goquery.Selection) string {
		return strings.Join(strings.Fields(th.Text()), " ")
	})
}

// baseURL resolves the page's <base href>, if any, against the address the
// page was loaded from.
func baseURL(doc *goquery.Document) *url.URL {
	base := doc.Url
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return base
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return base
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(ref)
}
