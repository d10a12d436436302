package scrape

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/request-watch/internal/watch"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

const samplePage = `<html><body>
<article>
  <h2>Fix my fence</h2>
  <span class="user">alice</span>
  <span class="price">$50</span>
  <p>The gate sags and needs rehanging.</p>
  <time datetime="2026-02-01">Feb 1</time>
  <a href="/requests/1">details</a>
</article>
<article>
  <h2>Walk my dog</h2>
  <span class="author">bob</span>
  <p>Twice a day, pays £10 per walk.</p>
  <span class="posted">this weekend</span>
</article>
<article>
  <div class="empty"></div>
</article>
</body></html>`

func TestExtractRecords(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "https://example.com/requests")
	records, err := extractRecords([]byte(samplePage), base, Config{})
	require.NoError(t, err)
	require.Len(t, records, 2, "container with no title and no description is skipped")

	require.Equal(t, watch.RawRecord{
		Title:       "Fix my fence",
		User:        "alice",
		Price:       "$50",
		Description: "The gate sags and needs rehanging.",
		When:        "2026-02-01",
		Link:        "https://example.com/requests/1",
	}, records[0])

	second := records[1]
	require.Equal(t, "Walk my dog", second.Title)
	require.Equal(t, "bob", second.User)
	require.Equal(t, "£10", second.Price, "price recovered from body text")
	require.Equal(t, "this weekend", second.When)
	require.Equal(t, base.String(), second.Link, "no hyperlink falls back to the page URL")
}

func TestExtractRecordsMaxItems(t *testing.T) {
	t.Parallel()

	records, err := extractRecords([]byte(samplePage), mustURL(t, "https://example.com/requests"), Config{MaxItems: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Fix my fence", records[0].Title)
}

func TestExtractRecordsKeywords(t *testing.T) {
	t.Parallel()

	records, err := extractRecords([]byte(samplePage), mustURL(t, "https://example.com/requests"),
		Config{Keywords: []string{"DOG", " "}})
	require.NoError(t, err)
	require.Len(t, records, 1, "keyword match is case-insensitive, blank keywords ignored")
	require.Equal(t, "Walk my dog", records[0].Title)
}

func TestExtractRecordsCustomSelector(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<div class="listing"><h3>Mow lawn</h3><p>Front yard only.</p></div>
<article><h2>Ignored</h2><p>Wrong container.</p></article>
</body></html>`
	records, err := extractRecords([]byte(page), mustURL(t, "https://example.com/"),
		Config{SectionSelector: ".listing"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Mow lawn", records[0].Title)
}

func TestExtractRecordsAbsoluteLinkKept(t *testing.T) {
	t.Parallel()

	page := `<article><h2>Help move</h2><a href="https://other.example/post/9">link</a></article>`
	records, err := extractRecords([]byte(page), mustURL(t, "https://example.com/requests"), Config{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "https://other.example/post/9", records[0].Link)
}

func TestExtractRecordsEmptyPage(t *testing.T) {
	t.Parallel()

	records, err := extractRecords([]byte("<html><body></body></html>"), mustURL(t, "https://example.com/"), Config{})
	require.NoError(t, err)
	require.Empty(t, records)
}
