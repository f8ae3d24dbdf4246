package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Example News</title>
    <item>
      <title> Bitcoin hits new high </title>
      <link>https://example.org/btc</link>
      <description>Price action summary.</description>
      <pubDate>Mon, 24 Aug 2026 10:30:00 +0000</pubDate>
      <content:encoded>Full embedded article body.</content:encoded>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.org/two</link>
      <description>Another summary.</description>
      <pubDate>garbage date</pubDate>
    </item>
  </channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Source</title>
  <entry>
    <title>Atom story</title>
    <link rel="self" href="https://example.org/self"/>
    <link rel="alternate" href="https://example.org/atom-story"/>
    <summary>Atom summary.</summary>
    <updated>2026-08-24T10:30:00Z</updated>
  </entry>
</feed>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchParsesRSS(t *testing.T) {
	t.Parallel()

	server := serve(t, http.StatusOK, rssDoc)
	f := NewFetcher(server.Client())

	articles, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Bitcoin hits new high", first.Title)
	assert.Equal(t, "https://example.org/btc", first.Link)
	assert.Equal(t, "Price action summary.", first.Summary)
	assert.Equal(t, "Full embedded article body.", first.RawContent)
	assert.Equal(t, "Example News", first.Source)
	assert.Equal(t,
		time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC),
		first.PublishedAt)
}

func TestFetchDefaultsUnparseableDateToNow(t *testing.T) {
	t.Parallel()

	server := serve(t, http.StatusOK, rssDoc)
	f := NewFetcher(server.Client())

	articles, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	// The second entry carries a garbage pubDate; it must stay recent rather
	// than fall out of the recency window.
	assert.WithinDuration(t, time.Now().UTC(), articles[1].PublishedAt, time.Minute)
}

func TestFetchParsesAtom(t *testing.T) {
	t.Parallel()

	server := serve(t, http.StatusOK, atomDoc)
	f := NewFetcher(server.Client())

	articles, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Atom story", articles[0].Title)
	assert.Equal(t, "https://example.org/atom-story", articles[0].Link)
	assert.Equal(t, "Atom summary.", articles[0].Summary)
	assert.Equal(t, "Atom Source", articles[0].Source)
	assert.Equal(t,
		time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC),
		articles[0].PublishedAt)
}

func TestFetchRejectsEmptyFeed(t *testing.T) {
	t.Parallel()

	empty := `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`
	server := serve(t, http.StatusOK, empty)
	f := NewFetcher(server.Client())

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchRejectsNonXML(t *testing.T) {
	t.Parallel()

	server := serve(t, http.StatusOK, "<html><body>not a feed</body></html>")
	f := NewFetcher(server.Client())

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchRejectsHTTPError(t *testing.T) {
	t.Parallel()

	server := serve(t, http.StatusServiceUnavailable, "down")
	f := NewFetcher(server.Client())

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
