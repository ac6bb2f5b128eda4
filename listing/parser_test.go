package listing

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "http://www.open-std.org/jtc1/sc22/wg21/docs/papers/2015/"

// Test helper: parse an HTML body as loaded from pageURL
func loadPage(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head><body>" + body + "</body></html>"))
	require.NoError(t, err)
	doc.Url, err = url.Parse(pageURL)
	require.NoError(t, err)
	return doc
}

func headerRow(labels []string) string {
	return "<tr><th>" + strings.Join(labels, "</th><th>") + "</th></tr>"
}

func row(cells ...string) string {
	return "<tr><td>" + strings.Join(cells, "</td><td>") + "</td></tr>"
}

func table(rows ...string) string {
	return "<table>" + strings.Join(rows, "\n") + "</table>"
}

func modernRow(number, date string) string {
	return row(`<a href="`+strings.ToLower(number)+`.pdf">`+number+`</a>`,
		"Title of "+number, "A. Author, B. Author", date, "2015-04", "", "EWG", "")
}

func numbers(docs []Doc) []string {
	var out []string
	for _, d := range docs {
		out = append(out, d.Number)
	}
	return out
}

// TestParse_ModernRow verifies a complete modern row
func TestParse_ModernRow(t *testing.T) {
	doc := loadPage(t, table(
		headerRow(modernHeaders),
		row(`<a href="n4001.pdf">N4001</a>`, " Concepts Lite ", "Andrew Sutton, Bjarne Stroustrup",
			"2015-03-21", "15-04", "N3999", "CWG/EWG", "Adopted 2015-05"),
	))

	result, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, result.Docs, 1)
	assert.Empty(t, result.Errors)

	d := result.Docs[0]
	assert.Equal(t, "N4001", d.Number)
	assert.Equal(t, "Concepts Lite", d.Title)
	assert.Equal(t, []string{"Andrew Sutton", "Bjarne Stroustrup"}, d.Authors)
	require.NotNil(t, d.URL)
	assert.Equal(t, pageURL+"n4001.pdf", *d.URL)
	require.NotNil(t, d.Date)
	assert.Equal(t, "2015-03-21", *d.Date)
	require.NotNil(t, d.MailingDate)
	assert.Equal(t, "2015-04", *d.MailingDate)
	assert.Equal(t, "N3999", d.PrevVersion)
	assert.Equal(t, []string{"CWG", "EWG"}, d.Subgroups)
	assert.Equal(t, "Adopted 2015-05", d.Disposition)
}

// TestParse_BlankOptionalFields verifies blank cells yield empty values
func TestParse_BlankOptionalFields(t *testing.T) {
	doc := loadPage(t, table(
		headerRow(modernHeaders),
		row("N4002", "Title", "", "missing", "", "", "", ""),
	))

	result, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, result.Docs, 1)

	d := result.Docs[0]
	assert.Nil(t, d.URL)
	assert.Nil(t, d.Date)
	assert.Nil(t, d.MailingDate)
	assert.Empty(t, d.Authors)
	assert.Empty(t, d.Subgroups)
	assert.Equal(t, "", d.PrevVersion)
}

// TestParse_WrongColumnCount verifies a short row is reported and the rest
// of the table still parses
func TestParse_WrongColumnCount(t *testing.T) {
	doc := loadPage(t, table(
		headerRow(modernHeaders),
		modernRow("N4001", "2015-01-01"),
		row("N4002", "Title", "Author", "2015-01-01", "2015-02", "", "EWG"),
		modernRow("N4003", "2015-01-03"),
	))

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N4001", "N4003"}, numbers(result.Docs))
	require.Len(t, result.Errors, 1)

	perr := result.Errors[0]
	assert.Equal(t, "modern", perr.Format)
	assert.Nil(t, perr.Number, "column count errors carry no document number")
	assert.Equal(t, 0, perr.Table)
	assert.Equal(t, 2, perr.Row)
	assert.ErrorIs(t, &perr, ErrWrongColumnCount)
	assert.Contains(t, perr.Message, "wrong number of columns")
}

// TestParse_BadFieldKeepsNumber verifies field errors name the document
func TestParse_BadFieldKeepsNumber(t *testing.T) {
	doc := loadPage(t, table(
		headerRow(modernHeaders),
		modernRow("N4010", "sometime in March"),
	))

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, result.Docs)
	require.Len(t, result.Errors, 1)

	perr := result.Errors[0]
	require.NotNil(t, perr.Number)
	assert.Equal(t, "N4010", *perr.Number)
	assert.Equal(t, string(FieldDate), perr.Field)
	assert.ErrorIs(t, &perr, ErrBadDate)
	assert.Contains(t, perr.Error(), "N4010")
}

// TestParse_BadNumber verifies a bad number column yields no number
func TestParse_BadNumber(t *testing.T) {
	doc := loadPage(t, table(
		headerRow(modernHeaders),
		modernRow("X123", "2015-01-01"),
	))

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, result.Docs)
	require.Len(t, result.Errors, 1)
	assert.Nil(t, result.Errors[0].Number)
	assert.Equal(t, string(FieldNumber), result.Errors[0].Field)
	assert.ErrorIs(t, &result.Errors[0], ErrBadDocNumber)
}

// TestParse_SkipsRowsWithoutCells verifies separator rows are ignored
func TestParse_SkipsRowsWithoutCells(t *testing.T) {
	doc := loadPage(t, table(
		headerRow(modernHeaders),
		"<tr></tr>",
		`<tr><th colspan="8">2015-02 mailing</th></tr>`,
		modernRow("N4001", "2015-01-01"),
	))

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N4001"}, numbers(result.Docs))
	assert.Empty(t, result.Errors)
}

// TestParse_StickyFallback verifies a table without a recognizable header
// is parsed with the previous table's format
func TestParse_StickyFallback(t *testing.T) {
	doc := loadPage(t,
		table(headerRow(modernHeaders), modernRow("N4001", "2015-01-01"))+
			table(modernRow("N4002", "2015-02-01"), modernRow("N4003", "2015-02-02")),
	)

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N4001", "N4002", "N4003"}, numbers(result.Docs))
	assert.Empty(t, result.Errors)
}

// TestParse_StickyFallbackGarbledHeader verifies a misspelled header also
// falls back
func TestParse_StickyFallbackGarbledHeader(t *testing.T) {
	garbled := append([]string{}, legacyHeaders...)
	garbled[2] = "Titel"

	doc := loadPage(t,
		table(headerRow(legacyHeaders),
			row("N1500", "03-0083", "Title", "Author", "2003-09-20", "2003-09", "N1490 = 03-0073", "Library"))+
			table(headerRow(garbled),
				row("N1501", "03-0084", "Title", "Author", "2003-09-21", "2003-09", "", "Core")),
	)

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N1500", "N1501"}, numbers(result.Docs))
	assert.Equal(t, "N1490", result.Docs[0].PrevVersion)
}

// TestParse_ThreeTablesAggregate verifies documents and errors from several
// tables are collected in page order
func TestParse_ThreeTablesAggregate(t *testing.T) {
	doc := loadPage(t,
		table(headerRow(modernHeaders),
			modernRow("N4001", "2015-01-01"),
			modernRow("N4002", "bad"),
			modernRow("N4003", "2015-01-03"))+
			table(headerRow(transitionHeaders),
				row("N3300", "12-0001", "Title", "Author", "2012-01-10", "2012-01", "N3200", "LWG", "Adopted"),
				row("N3301", "12-0002", "Title"))+
			"<p>Older papers</p>"+
			table(headerRow(legacyHeaders),
				row("N1500", "03-0083", "Title", "Author", "2003-09-20", "2003-09", "N1490 = 03-0073", "Library"),
				row("N1501", "03-0084", "Title", "Author", "2003-09-21", "2003-09", "03-0073", "Core"),
				row("N1502", "03-0085", "Title", "Author", "2003-09-22", "2003-09", "", "Evolution")),
	)

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N4001", "N4003", "N3300", "N1500", "N1502"}, numbers(result.Docs))
	require.Len(t, result.Errors, 3)

	assert.Equal(t, "modern", result.Errors[0].Format)
	assert.Equal(t, 0, result.Errors[0].Table)
	assert.Equal(t, 2, result.Errors[0].Row)

	assert.Equal(t, "transition", result.Errors[1].Format)
	assert.Equal(t, 1, result.Errors[1].Table)
	assert.ErrorIs(t, &result.Errors[1], ErrWrongColumnCount)

	assert.Equal(t, "legacy", result.Errors[2].Format)
	assert.Equal(t, 2, result.Errors[2].Table)
	require.NotNil(t, result.Errors[2].Number)
	assert.Equal(t, "N1501", *result.Errors[2].Number)
	assert.ErrorIs(t, &result.Errors[2], ErrBadDocReference)

	transition := result.Docs[2]
	assert.Equal(t, "Adopted", transition.Disposition)
	assert.Equal(t, "N3200", transition.PrevVersion)

	legacy := result.Docs[3]
	assert.Equal(t, "", legacy.Disposition)
	assert.Equal(t, []string{"Library"}, legacy.Subgroups)
}

// TestParse_NoTables verifies pages without tables fail
func TestParse_NoTables(t *testing.T) {
	result, err := Parse(loadPage(t, "<p>No papers yet</p>"))
	assert.ErrorIs(t, err, ErrNoTables)
	assert.Nil(t, result)
}

// TestParse_UnknownFirstTable verifies an unrecognized first table is fatal
func TestParse_UnknownFirstTable(t *testing.T) {
	doc := loadPage(t,
		table(headerRow([]string{"Number", "Name"}), row("N4001", "x"))+
			table(headerRow(modernHeaders), modernRow("N4002", "2015-01-01")),
	)

	result, err := Parse(doc)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Nil(t, result, "fatal errors return no partial result")
}

// TestParse_NestedTablesIgnored verifies only top-level tables are parsed,
// including ones wrapped in other elements
func TestParse_NestedTablesIgnored(t *testing.T) {
	doc := loadPage(t, "<div>"+table(
		headerRow(modernHeaders),
		row("N4001", "Title <table><tr><th>Note</th></tr></table>", "Author", "2015-01-01", "", "", "", ""),
	)+"</div>")

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N4001"}, numbers(result.Docs))
	assert.Empty(t, result.Errors)
}

// TestParse_HeaderWhitespace verifies header labels are compared with
// collapsed whitespace
func TestParse_HeaderWhitespace(t *testing.T) {
	headers := append([]string{}, modernHeaders...)
	headers[0] = "WG21\n   Number"
	headers[3] = " Document Date "

	doc := loadPage(t, "<table><thead>"+headerRow(headers)+"</thead><tbody>"+
		modernRow("N4001", "2015-01-01")+"</tbody></table>")

	result, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"N4001"}, numbers(result.Docs))
}

// TestParse_BaseHref verifies links resolve against <base href>
func TestParse_BaseHref(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><head><base href="/papers/"></head><body>` +
			table(headerRow(modernHeaders), modernRow("N4001", "2015-01-01")) +
			`</body></html>`))
	require.NoError(t, err)
	doc.Url, _ = url.Parse("https://example.org/index.html")

	result, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, result.Docs, 1)
	require.NotNil(t, result.Docs[0].URL)
	assert.Equal(t, "https://example.org/papers/n4001.pdf", *result.Docs[0].URL)
}

// TestParse_FreshStatePerCall verifies the fallback format does not leak
// between calls
func TestParse_FreshStatePerCall(t *testing.T) {
	p := &Parser{}

	_, err := p.Parse(loadPage(t, table(headerRow(modernHeaders), modernRow("N4001", "2015-01-01"))))
	require.NoError(t, err)

	_, err = p.Parse(loadPage(t, table(modernRow("N4002", "2015-01-01"))))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
