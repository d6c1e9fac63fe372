package pagecache

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"odistats/lib/testutil"

	"github.com/stretchr/testify/require"
)

func newSQLStore(t testing.TB) SQLStore {
	db := testutil.OpenDB(t, testutil.DBParams{Name: "pagecache", Schema: Schema})
	return NewSQLStore(db)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sql":    newSQLStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		url    string
		expect Category
	}{
		{url: "http://www.espncricinfo.com/ci/content/player/28081.html", expect: CATEGORY_PLAYER},
		{url: "http://stats.espncricinfo.com/ci/engine/ground/56490.html", expect: CATEGORY_GROUND},
		{url: "http://stats.espncricinfo.com/ci/engine/match/64148.html", expect: CATEGORY_MATCH},
		{url: "http://stats.espncricinfo.com/ci/engine/records/team/match_results.html?class=2;id=1971;type=year", expect: CATEGORY_MATCH},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, Classify(test.url), test.url)
	}
}

func TestStore(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			url := "http://stats.espncricinfo.com/ci/engine/match/64148.html"

			_, err := store.Get(ctx, url)
			require.ErrorIs(t, err, ErrPageNotFound)

			require.NoError(t, store.Put(ctx, url, "<html>first</html>"))
			html, err := store.Get(ctx, url)
			require.NoError(t, err)
			require.Equal(t, "<html>first</html>", html)

			// write-once: a second put for the same key is a no-op
			require.NoError(t, store.Put(ctx, url, "<html>second</html>"))
			html, err = store.Get(ctx, url)
			require.NoError(t, err)
			require.Equal(t, "<html>first</html>", html)

			// keys are not normalized
			_, err = store.Get(ctx, url+"/")
			require.ErrorIs(t, err, ErrPageNotFound)
			_, err = store.Get(ctx, strings.Replace(url, "http://", "https://", 1))
			require.ErrorIs(t, err, ErrPageNotFound)
		})
	}
}

func TestSQLStorePutIsIdempotent(t *testing.T) {
	store := newSQLStore(t)
	ctx := context.Background()
	url := "http://www.espncricinfo.com/ci/content/player/28081.html"

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, url, "<p>profile</p>"))
	}

	var count int
	err := store.db.QueryRow("select count(*) from pages where url = ?", url).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSQLStoreStats(t *testing.T) {
	store := newSQLStore(t)
	store.now = func() time.Time { return time.Unix(1_000, 0) }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "http://www.espncricinfo.com/ci/content/player/1.html", "a"))
	require.NoError(t, store.Put(ctx, "http://www.espncricinfo.com/ci/content/player/2.html", "b"))
	require.NoError(t, store.Put(ctx, "http://stats.espncricinfo.com/ci/engine/match/3.html", "c"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, map[Category]int64{
		CATEGORY_PLAYER: 2,
		CATEGORY_MATCH:  1,
		CATEGORY_GROUND: 0,
	}, stats)

	var fetchedAt int64
	err = store.db.QueryRow("select fetched_at from pages where url like '%match/3.html'").Scan(&fetchedAt)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), fetchedAt)
}

func TestSQLStoreClosed(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store := NewSQLStore(db)
	_, err = store.Get(context.Background(), "http://example.com")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPageNotFound)
}

func TestImportCSV(t *testing.T) {
	archive := `url,html
http://stats.espncricinfo.com/ci/engine/match/1.html,"<html><div class=""x"">one</div></html>"
http://stats.espncricinfo.com/ci/engine/match/1.html,<html>duplicate</html>
http://stats.espncricinfo.com/ci/engine/match/2.html,"<html>
multi line</html>"
onlyonecolumn
`
	store := NewMemoryStore()
	ctx := context.Background()

	result, err := ImportCSV(ctx, store, strings.NewReader(archive))
	require.NoError(t, err)
	require.Equal(t, 3, result.Read)
	require.Equal(t, 1, result.Malformed)
	require.Equal(t, 2, store.Len())

	html, err := store.Get(ctx, "http://stats.espncricinfo.com/ci/engine/match/1.html")
	require.NoError(t, err)
	require.Equal(t, `<html><div class="x">one</div></html>`, html)

	html, err = store.Get(ctx, "http://stats.espncricinfo.com/ci/engine/match/2.html")
	require.NoError(t, err)
	require.Equal(t, "<html>\nmulti line</html>", html)
}

func TestSQLStoreOnDisk(t *testing.T) {
	db := testutil.OpenDB(t, testutil.DBParams{Name: "pagecache-disk", Schema: Schema, OnDisk: true})
	store := NewSQLStore(db)
	ctx := context.Background()

	url := "http://stats.espncricinfo.com/ci/engine/ground/56490.html"
	require.NoError(t, store.Put(ctx, url, "<html>Sydney</html>"))

	html, err := store.Get(ctx, url)
	require.NoError(t, err)
	require.Equal(t, "<html>Sydney</html>", html)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}
