// Package fetch retrieves news articles and reduces their HTML to plain text for screening.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; MediaScreener/1.0)"
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes = 5 << 20
)

// Result is a fetched page, decoded to UTF-8.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error is a failed fetch.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures URL.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
}

// textualTypes are the media types an article page may be served as. An empty Content-Type is accepted.
var textualTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/plain":            true,
}

// URL downloads an http(s) page and decodes it to UTF-8 using the charset declared in the response
// header or the document. Non-200 responses return the Result together with an *Error.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	result := &Result{
		URL:         urlStr,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if mediaType, _, _ := mime.ParseMediaType(result.ContentType); result.ContentType != "" && !textualTypes[mediaType] {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("unsupported content type %q", mediaType)}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, MaxBodyBytes), result.ContentType)
	if err != nil {
		return result, &Error{URL: urlStr, Message: "unsupported charset", Cause: err}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return result, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	result.HTML = string(data)

	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return result, nil
}

// baseNoise is removed from every page before extraction.
const baseNoise = "nav, footer, header, script, style, noscript, iframe, figure figcaption, " +
	".ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// blockElements carry the readable text of a story.
const blockElements = "h1, h2, h3, h4, p, li, blockquote, pre"

// ExtractMainText returns the story text of an HTML page. Noise elements are removed, the first selector
// in contentSelectors that matches picks the story container (falling back to <body>), and its block
// elements are joined one per paragraph so sentence boundaries survive. Containers without block
// elements contribute their whole text.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(baseNoise).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}

	var paragraphs []string
	content.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks such as <li><p> are read once, from the innermost element.
		if s.Find(blockElements).Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return CleanText(content.Text()), nil
	}
	return CleanText(strings.Join(paragraphs, "\n\n")), nil
}

// ArticleSelectors returns selectors for the body of a news story, most specific first.
func ArticleSelectors() []string {
	return []string{
		"[itemprop='articleBody']",
		".article-body",
		".article__body",
		".story-body",
		".entry-content",
		".post-content",
		"article",
		"main",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// ExtractTitle returns the headline of an HTML page, preferring og:title over <title>.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
