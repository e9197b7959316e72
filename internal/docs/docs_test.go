package docs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"yeetbot.dev/yeet/resource"
)

const sample = `Intro text.

# First

Some **bold** text.

### Detail

Still the first page.

## Second

- one
- two
`

func TestParseBookSplitsAtHeadings(t *testing.T) {
	book := ParseBook("sample", []byte(sample))

	require.Len(t, book.Pages, 3)
	assert.Equal(t, Page{Title: "sample", Body: "Intro text."}, book.Pages[0])
	assert.Equal(t, "First", book.Pages[1].Title)
	assert.Equal(t, "Some **bold** text.\n\n### Detail\n\nStill the first page.", book.Pages[1].Body)
	assert.Equal(t, Page{Title: "Second", Body: "- one\n- two"}, book.Pages[2])

	_, err := book.Page(3)
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestParseBookWithoutIntro(t *testing.T) {
	book := ParseBook("t", []byte("# Only\n\nbody\n"))
	require.Len(t, book.Pages, 1)
	assert.Equal(t, "Only", book.Pages[0].Title)
}

func TestLongBodiesAreSplit(t *testing.T) {
	para := strings.Repeat("word ", 300)
	body := strings.TrimSpace(strings.Repeat(para+"\n\n", 10))
	book := ParseBook("long", []byte("# Long\n\n"+body))

	require.Greater(t, len(book.Pages), 1)
	assert.Equal(t, "Long", book.Pages[0].Title)
	assert.Equal(t, "Long (cont.)", book.Pages[1].Title)
	var total int
	for _, p := range book.Pages {
		assert.LessOrEqual(t, len(p.Body), PageLimit)
		total += strings.Count(p.Body, "word")
	}
	assert.Equal(t, 3000, total)
}

func TestSplitBodyHardCutRespectsRunes(t *testing.T) {
	parts := splitBody(strings.Repeat("é", 10), 5)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 5)
		assert.True(t, strings.Trim(p, "é") == "", p)
	}
	assert.Equal(t, strings.Repeat("é", 10), strings.Join(parts, ""))
}

func TestLoadBooks(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/a.md":    {Data: []byte("# A\n\nalpha")},
		"docs/b.md":    {Data: []byte("# B\n\nbeta")},
		"docs/skip.go": {Data: []byte("package x")},
	}
	books, err := LoadBooks(fsys, "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sortedKeys(books))
}

func TestEmbeddedDocsParse(t *testing.T) {
	books, err := LoadBooks(resource.Docs, "docs")
	require.NoError(t, err)
	require.Contains(t, books, "draw")
	for topic, b := range books {
		assert.NotEmpty(t, b.Pages, topic)
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	md, err := htmlToMarkdown(strings.NewReader(`<html><head><script>x()</script></head><body>
		<nav>menu</nav>
		<h1>Guide</h1>
		<p>Read   this <b>carefully</b>.</p>
		<ul><li>first</li><li>second</li></ul>
		<h2>Code</h2>
		<pre>go run .</pre>
	</body></html>`))
	require.NoError(t, err)

	book := ParseBook("guide", []byte(md))
	require.Len(t, book.Pages, 2)
	assert.Equal(t, "Guide", book.Pages[0].Title)
	assert.Contains(t, book.Pages[0].Body, "Read this carefully .")
	assert.Contains(t, book.Pages[0].Body, "- first")
	assert.NotContains(t, book.Pages[0].Body, "menu")
	assert.Equal(t, "Code", book.Pages[1].Title)
	assert.Equal(t, "```\ngo run .\n```", book.Pages[1].Body)
}

func TestLibraryRemoteCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "<h1>Remote</h1><p>fetched</p>")
	}))
	t.Cleanup(server.Close)

	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	lib := NewLibrary(map[string]*Book{"local": ParseBook("local", []byte("hi"))}, map[string]string{"remote": server.URL}, db)
	lib.HTTP = server.Client()
	lib.TTL = time.Hour
	lib.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Equal(t, []string{"local", "remote"}, lib.Topics())
	assert.Equal(t, []string{"remote"}, lib.Search("REM", 5))

	book, err := lib.Get(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, "Remote", book.Pages[0].Title)
	assert.Equal(t, "fetched", book.Pages[0].Body)

	_, err = lib.Get(ctx, "Remote")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	now = now.Add(2 * time.Hour)
	_, err = lib.Get(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	_, err = lib.Get(ctx, "nothing")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}
