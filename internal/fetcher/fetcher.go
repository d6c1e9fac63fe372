// Package fetcher retrieves pages politely, going to the network only when the
// page cache does not already hold them.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"odistats/internal/pagecache"
	"odistats/lib/restyutil"
	"odistats/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_fetch    = "fetcher.fetch"
	report_fetcher_cache    = "fetcher.cache"
	report_fetcher_volatile = "fetcher.volatile"
	report_fetcher_dump     = "fetcher.dump"
)

// ErrPageUnavailable is returned when a page still could not be retrieved
// after the last attempt.
var ErrPageUnavailable = errors.New("page unavailable")

// ErrPageRejected is returned when the site answers with a client error,
// these are not retried.
var ErrPageRejected = errors.New("page rejected")

// errTransient marks an attempt that is worth repeating.
var errTransient = errors.New("transient page error")

// API is what every extractor depends on to obtain a page. Implementations
// report their own failures.
//
// note: fault injection point
type API interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Stats struct {
	CacheHits     int64
	Requests      int64
	Fetched       int64
	Failures      int64
	VolatileSkips int64
}

type Fetcher struct {
	cache   pagecache.Store
	http    *resty.Client
	limiter *rate.Limiter
	opts    Options
	tel     telemetry.API
	metrics instruments

	// serializes cache writes, the store must never see two writers for a key
	writeLock sync.Mutex

	cacheHits     atomic.Int64
	requests      atomic.Int64
	fetched       atomic.Int64
	failures      atomic.Int64
	volatileSkips atomic.Int64
}

func New(cache pagecache.Store, tel telemetry.API, opts Options) *Fetcher {
	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("fetcher", tel)

	httpClient := resty.New()
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRetryCount(0)

	telemetry.InstrumentResty(httpClient, tel)
	if opts.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			tel.ReportWarning(report_fetcher_dump, err, opts.DumpDir)
		} else {
			restyutil.InstrumentClient(httpClient, output)
		}
	}

	limit := rate.Inf
	if opts.Politeness > 0 {
		limit = rate.Every(opts.Politeness)
	}
	limiter := rate.NewLimiter(limit, 1)
	// the first request waits the politeness interval as well
	limiter.Allow()

	return &Fetcher{
		cache:   cache,
		http:    httpClient,
		limiter: limiter,
		opts:    opts,
		tel:     tel,
		metrics: newInstruments(),
	}
}

func (f *Fetcher) Stats() Stats {
	return Stats{
		CacheHits:     f.cacheHits.Load(),
		Requests:      f.requests.Load(),
		Fetched:       f.fetched.Load(),
		Failures:      f.failures.Load(),
		VolatileSkips: f.volatileSkips.Load(),
	}
}

func (f *Fetcher) isVolatile(url string) bool {
	for _, re := range f.opts.Volatile {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// Fetch returns the html of url, from the cache when possible.
//
// On a cache miss the page is requested at most MaxAttempts times, waiting
// `attempt` seconds between attempts while the site keeps serving its error
// page. The result is written back to the cache unless url is volatile.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := f.cache.Get(ctx, url)
	if err == nil {
		f.cacheHits.Add(1)
		f.metrics.page(ctx, outcome_cache_hit)
		return html, nil
	}
	if !errors.Is(err, pagecache.ErrPageNotFound) {
		f.tel.ReportWarning(report_fetcher_cache, fmt.Errorf("get: %w", err), url)
	}

	html, err = f.fetchWithRetry(ctx, url)
	if err != nil {
		f.failures.Add(1)
		f.metrics.page(ctx, outcome_failed)
		if ctx.Err() == nil {
			f.tel.ReportBroken(report_fetcher_fetch, err, url)
		}
		return "", err
	}
	f.fetched.Add(1)
	f.metrics.page(ctx, outcome_fetched)

	if f.isVolatile(url) {
		f.volatileSkips.Add(1)
		f.tel.ReportDebug(report_fetcher_volatile, url)
		return html, nil
	}

	f.writeLock.Lock()
	defer f.writeLock.Unlock()
	err = f.cache.Put(ctx, url, html)
	if err != nil {
		f.tel.ReportWarning(report_fetcher_cache, fmt.Errorf("put: %w", err), url)
	}

	return html, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			err := f.opts.Sleep(ctx, time.Duration(attempt-1)*time.Second)
			if err != nil {
				return "", err
			}
		}

		html, err := f.attempt(ctx, url)
		if err == nil {
			return html, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, errTransient) {
			return "", err
		}

		lastErr = err
		f.tel.ReportDebug("retrying page", url, attempt, err.Error())
	}

	return "", fmt.Errorf(
		"%w: %s after %d attempts: %w",
		ErrPageUnavailable, url, f.opts.MaxAttempts, lastErr,
	)
}

func (f *Fetcher) attempt(ctx context.Context, url string) (string, error) {
	err := f.limiter.Wait(ctx)
	if err != nil {
		return "", err
	}
	f.requests.Add(1)
	f.metrics.requests.Add(ctx, 1)

	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("%w: request: %w", errTransient, err)
	}
	if res.StatusCode() >= 500 {
		return "", fmt.Errorf("%w: status %s", errTransient, res.Status())
	}
	if res.StatusCode() >= 400 {
		return "", fmt.Errorf("%w: %s: status %s", ErrPageRejected, url, res.Status())
	}

	body := res.String()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse: %w", errTransient, err)
	}
	if strings.Contains(doc.Text(), f.opts.ErrorMarker) {
		return "", fmt.Errorf("%w: %q in page", errTransient, f.opts.ErrorMarker)
	}

	return body, nil
}
