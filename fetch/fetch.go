// Package fetch loads listing pages from the web or from disk into a goquery
// document whose Url is set to the page address, so relative links can be
// resolved.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	DefaultUserAgent = "stdpapers/1.0 (committee paper listing scraper)"
	DefaultTimeout   = 30 * time.Second
)

// ErrHTTPStatus is returned when the server answers with anything but 200.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// Options configures how pages are fetched. Zero values use the defaults.
type Options struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Page loads addr, which may be an http(s) URL, a file URL or a local path.
func Page(ctx context.Context, addr string, opts Options) (*goquery.Document, error) {
	u, err := url.Parse(addr)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return fetchRemote(ctx, u, opts)
		case "file":
			return File(u.Path)
		}
	}
	return File(addr)
}

func fetchRemote(ctx context.Context, u *url.URL, opts Options) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := opts.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	// Links resolve against the final address after redirects
	return Read(resp.Body, resp.Header.Get("Content-Type"), resp.Request.URL)
}

// File loads a page saved on disk. The document Url is the file's absolute
// file:// address.
func File(path string) (*goquery.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return Read(f, "", &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
}

// Read parses an HTML page from r. The encoding is taken from contentType,
// a BOM or a <meta> charset declaration, in that order; older listings are
// often served as Windows-1252.
func Read(r io.Reader, contentType string, base *url.URL) (*goquery.Document, error) {
	utf8, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	root, err := html.Parse(utf8)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Url = base
	return doc, nil
}
