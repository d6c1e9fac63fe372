package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"odistats/internal/pagecache"
	"odistats/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const okPage = `<html><body><table><tbody><tr><td>India</td></tr></tbody></table></body></html>`
const errorPage = `<html><body><div class="error"><h1>Page error</h1><p>Please try again</p></div></body></html>`

type site struct {
	calls   atomic.Int64
	handler func(calls int64, w http.ResponseWriter, r *http.Request)
	server  *httptest.Server
}

func newSite(t testing.TB, handler func(calls int64, w http.ResponseWriter, r *http.Request)) *site {
	s := &site{handler: handler}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.calls.Add(1)
		s.handler(n, w, r)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *site) url(path string) string {
	return s.server.URL + path
}

type sleepRecorder struct {
	mutex  sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sleeps = append(r.sleeps, d)
	return ctx.Err()
}

func newTestFetcher(cache pagecache.Store, tel telemetry.API, sleeps *sleepRecorder, opts Options) *Fetcher {
	opts.Politeness = -1
	opts.Timeout = 5 * time.Second
	opts.Sleep = sleeps.sleep
	return New(cache, tel, opts)
}

func TestFetchCacheHitMakesNoRequest(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, okPage)
	})
	ctx := context.Background()

	cache := pagecache.NewMemoryStore()
	urls := []string{
		s.url("/ci/engine/match/64148.html"),
		s.url("/ci/content/player/28081.html"),
		s.url("/ci/engine/records/team/match_results.html?class=2;id=1971;type=year"),
	}
	for i, u := range urls {
		require.NoError(t, cache.Put(ctx, u, fmt.Sprintf("<p>cached %d</p>", i)))
	}

	sleeps := &sleepRecorder{}
	f := newTestFetcher(cache, &telemetry.Recorder{}, sleeps, Options{})
	for i, u := range urls {
		html, err := f.Fetch(ctx, u)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("<p>cached %d</p>", i), html)
	}

	require.Equal(t, int64(0), s.calls.Load())
	require.Empty(t, sleeps.sleeps)
	require.Equal(t, Stats{CacheHits: 3}, f.Stats())
}

func TestFetchMissIsWrittenBack(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, okPage)
	})
	ctx := context.Background()
	cache := pagecache.NewMemoryStore()
	f := newTestFetcher(cache, &telemetry.Recorder{}, &sleepRecorder{}, Options{})

	u := s.url("/ci/engine/match/64148.html")

	html, err := f.Fetch(ctx, u)
	require.NoError(t, err)
	require.Equal(t, okPage, html)

	cached, err := cache.Get(ctx, u)
	require.NoError(t, err)
	require.Equal(t, okPage, cached)

	html, err = f.Fetch(ctx, u)
	require.NoError(t, err)
	require.Equal(t, okPage, html)

	require.Equal(t, int64(1), s.calls.Load())
	require.Equal(t, Stats{CacheHits: 1, Requests: 1, Fetched: 1}, f.Stats())
}

func TestFetchGivesUpAfterFiveAttempts(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, errorPage)
	})
	ctx := context.Background()
	cache := pagecache.NewMemoryStore()
	tel := &telemetry.Recorder{}
	sleeps := &sleepRecorder{}
	f := newTestFetcher(cache, tel, sleeps, Options{})

	u := s.url("/ci/engine/match/1.html")
	_, err := f.Fetch(ctx, u)
	require.ErrorIs(t, err, ErrPageUnavailable)

	require.Equal(t, int64(5), s.calls.Load())
	require.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		3 * time.Second,
		4 * time.Second,
	}, sleeps.sleeps)

	_, err = cache.Get(ctx, u)
	require.ErrorIs(t, err, pagecache.ErrPageNotFound)
	require.Equal(t, 0, cache.Len())

	require.Len(t, tel.Reports("broken", report_fetcher_fetch), 1)
	require.Equal(t, int64(1), f.Stats().Failures)
}

func TestFetchRecoversFromTransientErrors(t *testing.T) {
	s := newSite(t, func(n int64, w http.ResponseWriter, _ *http.Request) {
		switch n {
		case 1:
			fmt.Fprint(w, errorPage)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, okPage)
		}
	})
	ctx := context.Background()
	cache := pagecache.NewMemoryStore()
	sleeps := &sleepRecorder{}
	f := newTestFetcher(cache, &telemetry.Recorder{}, sleeps, Options{})

	u := s.url("/ci/engine/match/2.html")
	html, err := f.Fetch(ctx, u)
	require.NoError(t, err)
	require.Equal(t, okPage, html)
	require.Equal(t, int64(3), s.calls.Load())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.sleeps)
	require.Equal(t, 1, cache.Len())
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	cache := pagecache.NewMemoryStore()
	f := newTestFetcher(cache, &telemetry.Recorder{}, &sleepRecorder{}, Options{})

	_, err := f.Fetch(context.Background(), s.url("/ci/content/player/404.html"))
	require.ErrorIs(t, err, ErrPageRejected)
	require.NotErrorIs(t, err, ErrPageUnavailable)
	require.Equal(t, int64(1), s.calls.Load())
	require.Equal(t, 0, cache.Len())
}

func TestFetchVolatileIsNotCached(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, okPage)
	})
	ctx := context.Background()

	now := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	volatile, err := CompileVolatile(DEFAULT_VOLATILE_PATTERNS, now)
	require.NoError(t, err)

	cache := pagecache.NewMemoryStore()
	f := newTestFetcher(cache, &telemetry.Recorder{}, &sleepRecorder{}, Options{Volatile: volatile})

	current := s.url("/ci/engine/records/team/match_results.html?class=2;id=2019;type=year")
	past := s.url("/ci/engine/records/team/match_results.html?class=2;id=2018;type=year")

	for i := 0; i < 2; i++ {
		_, err = f.Fetch(ctx, current)
		require.NoError(t, err)
		_, err = f.Fetch(ctx, past)
		require.NoError(t, err)
	}

	// current year: fetched twice, past year: fetched once then cached
	require.Equal(t, int64(3), s.calls.Load())
	require.Equal(t, 1, cache.Len())
	_, err = cache.Get(ctx, current)
	require.ErrorIs(t, err, pagecache.ErrPageNotFound)
	require.Equal(t, int64(2), f.Stats().VolatileSkips)
}

func TestFetchPoliteness(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, okPage)
	})
	f := New(pagecache.NewMemoryStore(), &telemetry.Recorder{}, Options{
		Politeness: 25 * time.Millisecond,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), s.url(fmt.Sprintf("/ci/engine/match/%d.html", i)))
		require.NoError(t, err)
	}
	// the first request waits too, so three requests take at least three intervals
	require.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestFetchCancelled(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, errorPage)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cache := pagecache.NewMemoryStore()
	f := New(cache, &telemetry.Recorder{}, Options{
		Politeness: -1,
		Sleep: func(_ context.Context, _ time.Duration) error {
			cancel()
			return context.Canceled
		},
	})

	_, err := f.Fetch(ctx, s.url("/ci/engine/match/3.html"))
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, int64(1), s.calls.Load())
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}

func (brokenStore) Put(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func TestFetchSurvivesBrokenCache(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, okPage)
	})
	tel := &telemetry.Recorder{}
	f := newTestFetcher(brokenStore{}, tel, &sleepRecorder{}, Options{})

	html, err := f.Fetch(context.Background(), s.url("/ci/engine/match/4.html"))
	require.NoError(t, err)
	require.Equal(t, okPage, html)
	require.Len(t, tel.Reports("warning", report_fetcher_cache), 2)
}

func TestCompileVolatile(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	patterns, err := CompileVolatile(DEFAULT_VOLATILE_PATTERNS, now)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	require.True(t, patterns[0].MatchString("http://stats.espncricinfo.com/ci/engine/records/team/match_results.html?class=2;id=2024;type=year"))
	require.False(t, patterns[0].MatchString("http://stats.espncricinfo.com/ci/engine/records/team/match_results.html?class=2;id=2023;type=year"))

	_, err = CompileVolatile([]string{"("}, now)
	require.Error(t, err)
}

func TestFetchDumpsExchanges(t *testing.T) {
	s := newSite(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, okPage)
	})
	dir := filepath.Join(t.TempDir(), "http")
	f := newTestFetcher(pagecache.NewMemoryStore(), &telemetry.Recorder{}, &sleepRecorder{}, Options{DumpDir: dir})

	_, err := f.Fetch(context.Background(), s.url("/ci/content/player/7133.html"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
