package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, contentType string, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestURL_Success(t *testing.T) {
	server := serve(t, http.StatusOK, "text/html; charset=utf-8", []byte("<html><body><h1>Test</h1></body></html>"))

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_DecodesDeclaredCharset(t *testing.T) {
	// "José Núñez" in ISO-8859-1
	body := append([]byte("<html><body><p>Jos\xe9 N\xfa\xf1ez was fined.</p></body></html>"), '\n')
	server := serve(t, http.StatusOK, "text/html; charset=ISO-8859-1", body)

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "José Núñez was fined.")
}

func TestURL_RejectsBinaryContent(t *testing.T) {
	server := serve(t, http.StatusOK, "application/pdf", []byte("%PDF-1.7"))

	_, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported content type "application/pdf"`)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, u := range []string{"not-a-valid-url", "file:///etc/passwd", "https://"} {
		_, err := URL(context.Background(), u, nil)
		require.Error(t, err, u)

		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "invalid URL", fetchErr.Message)
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := serve(t, http.StatusNotFound, "text/html", []byte("<p>gone</p>"))

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Contains(t, err.Error(), "HTTP status 404")
}

func TestExtractMainText_Paragraphs(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Local Man Charged</h1>
				<p>Bill Johnson, 44,
				   was charged on Monday.</p>
				<ul><li><p>Count one: fraud.</p></li></ul>
				<figure><img src="x.jpg"><figcaption>Photo credit</figcaption></figure>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := ExtractMainText(html, ArticleSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Local Man Charged\n\nBill Johnson, 44, was charged on Monday.\n\nCount one: fraud.", text)
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	html := `<html><body><div>Some   content
	here.</div></body></html>`

	text, err := ExtractMainText(html, ArticleSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Some content\nhere.", text)
}

func TestExtractMainText_SelectorPriority(t *testing.T) {
	html := `
	<html>
		<body>
			<div class="sidebar">Sidebar junk</div>
			<div class="article-body">
				<p>Bill Johnson was charged with fraud on Monday.</p>
			</div>
			<main><p>Most read stories</p></main>
		</body>
	</html>`

	text, err := ExtractMainText(html, ArticleSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Bill Johnson was charged with fraud on Monday.", text)
}

func TestExtractMainText_NoiseSelectors(t *testing.T) {
	html := `<html><body><article><p>Story text.</p><div class="comments"><p>Reader comment</p></div></article></body></html>`

	text, err := ExtractMainText(html, ArticleSelectors(), ".comments")
	require.NoError(t, err)
	assert.Equal(t, "Story text.", text)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Headline", ExtractTitle(`<html><head><title> Headline </title></head></html>`))
	assert.Equal(t, "OG Headline", ExtractTitle(
		`<html><head><meta property="og:title" content="OG Headline"><title>Site</title></head></html>`))
	assert.Equal(t, "", ExtractTitle(`<html><body>no title</body></html>`))
}

func TestArticleSelectors(t *testing.T) {
	selectors := ArticleSelectors()
	assert.Equal(t, "[itemprop='articleBody']", selectors[0])
	assert.Contains(t, selectors, ".story-body")
	assert.Contains(t, selectors, "main")
}
