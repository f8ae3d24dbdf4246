package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextStripsChrome(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>p{color:red}</style></head><body>
		<nav>menu items</nav>
		<header>site header</header>
		<p>First   paragraph.</p>
		<script>console.log("tracking")</script>
		<p>Second paragraph.</p>
		<aside>related links</aside>
		<footer>copyright</footer>
	</body></html>`

	text := NewTextExtractor().ExtractText(html)

	assert.Equal(t, "First paragraph. Second paragraph.", text)
}

func TestExtractTextWithoutBody(t *testing.T) {
	t.Parallel()

	text := NewTextExtractor().ExtractText("just some plain text")
	assert.Contains(t, text, "just some plain text")
}

func TestExtractTextEmptyDocument(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", NewTextExtractor().ExtractText(""))
}

func TestFetchPageSendsBrowserUserAgent(t *testing.T) {
	t.Parallel()

	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	t.Cleanup(server.Close)

	f := NewPageFetcher(server.Client())
	body, err := f.FetchPage(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Contains(t, body, "hello")
	assert.Contains(t, gotAgent, "Mozilla/5.0")
}

func TestFetchPageRejectsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	f := NewPageFetcher(server.Client())
	_, err := f.FetchPage(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
