package listing

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document numbers are N-numbers (N4001) or standing documents (SD-6). Some
// pages spell the standing document hyphen as U+2011.
var (
	docNumberRe    = regexp.MustCompile(`^(?:N\d+|SD[-\x{2011}]\d+)$`)
	docReferenceRe = regexp.MustCompile(`^(N\d+|SD[-\x{2011}]\d+)(?:\s*=\s*\d{2}-\d{4})?$`)
	subgroupSepRe  = regexp.MustCompile(`[,/\\]`)

	// The separator form also accepts YYYY--MM, which shows up in old
	// listings and is kept as-is.
	dateRe        = regexp.MustCompile(`^(\d{2}|\d{4})(?:--?|/|\x{2011})(\d{1,2})(?:[-/\x{2011}](\d{1,2}))?`)
	compactDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)
)

// ParseDocNumber validates a document number cell. A blank cell is valid and
// yields "".
func ParseDocNumber(text string) (string, error) {
	number := strings.TrimSpace(text)
	if number != "" && !docNumberRe.MatchString(number) {
		return "", fmt.Errorf("%w: %s", ErrBadDocNumber, number)
	}
	return number, nil
}

// ParsePrevVersionRef parses the previous version cell of legacy tables,
// where a document number may be followed by its old J16 number, as in
// "N1234 = 03-0017". Only the document number is kept.
func ParsePrevVersionRef(text string) (string, error) {
	ref := strings.TrimSpace(text)
	if ref == "" {
		return "", nil
	}
	m := docReferenceRe.FindStringSubmatch(ref)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrBadDocReference, ref)
	}
	return m[1], nil
}

// ParseAuthors splits a comma separated author cell.
func ParseAuthors(text string) []string {
	return splitList(text, func(s string) []string {
		return strings.Split(s, ",")
	})
}

// ParseSubgroups splits a subgroup cell on commas and slashes, so "CWG/EWG"
// and "LWG, LEWG" both yield two entries.
func ParseSubgroups(text string) []string {
	return splitList(text, func(s string) []string {
		return subgroupSepRe.Split(s, -1)
	})
}

func splitList(text string, split func(string) []string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}
	parts := split(text)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// ParsePlain returns the trimmed cell text.
func ParsePlain(text string) string {
	return strings.TrimSpace(text)
}

// ParseLink returns the first link in the cell resolved against base. A cell
// without a link yields nil.
func ParseLink(cell *goquery.Selection, base *url.URL) (*string, error) {
	href, ok := cell.Find("a[href]").First().Attr("href")
	if !ok {
		return nil, nil
	}
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadLink, href)
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	link := ref.String()
	return &link, nil
}

// ParseDate normalizes a date cell to YYYY-MM-DD, or YYYY-MM when the cell
// has no day. Blank cells and "missing" yield nil. Two digit years are taken
// to be in the 2000s.
func ParseDate(text string) (*string, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "missing") {
		return nil, nil
	}

	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		m = compactDateRe.FindStringSubmatch(text)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrBadDate, text)
		}
	}

	// All groups are digit-only, so Atoi cannot fail.
	year, _ := strconv.Atoi(m[1])
	if year <= 99 {
		year += 2000
	}
	month, _ := strconv.Atoi(m[2])

	var date string
	if m[3] != "" {
		day, _ := strconv.Atoi(m[3])
		date = fmt.Sprintf("%d-%02d-%02d", year, month, day)
	} else {
		date = fmt.Sprintf("%d-%02d", year, month)
	}
	return &date, nil
}
