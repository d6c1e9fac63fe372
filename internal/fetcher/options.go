package fetcher

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DEFAULT_POLITENESS   = 500 * time.Millisecond
	DEFAULT_TIMEOUT      = 30 * time.Second
	DEFAULT_MAX_ATTEMPTS = 5
	DEFAULT_ERROR_MARKER = "Page error"
	DEFAULT_USER_AGENT   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// DEFAULT_VOLATILE_PATTERNS matches the results listing of the year in progress,
// its content still changes so it is never cached.
var DEFAULT_VOLATILE_PATTERNS = []string{
	`match_results\.html\?class=2;id={year};type=year`,
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Options struct {
	// Politeness is the minimum interval between two outbound requests,
	// 0 means DEFAULT_POLITENESS, a negative value disables it.
	Politeness time.Duration
	// Timeout bounds a single request, 0 means DEFAULT_TIMEOUT.
	Timeout     time.Duration
	MaxAttempts int
	// ErrorMarker is the text the site embeds in a page when it failed to
	// render it, such pages are retried.
	ErrorMarker string
	UserAgent   string
	// Volatile urls are fetched normally but never written to the cache.
	Volatile         []*regexp.Regexp
	CloudflareBypass bool
	// DumpDir, when set, receives a copy of every http exchange.
	DumpDir string
	// Sleep is used for the backoff between attempts, it defaults to a
	// context aware timer.
	Sleep SleepFunc
}

func (o Options) withDefaults() Options {
	if o.Politeness == 0 {
		o.Politeness = DEFAULT_POLITENESS
	}
	if o.Timeout <= 0 {
		o.Timeout = DEFAULT_TIMEOUT
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DEFAULT_MAX_ATTEMPTS
	}
	if o.ErrorMarker == "" {
		o.ErrorMarker = DEFAULT_ERROR_MARKER
	}
	if o.UserAgent == "" {
		o.UserAgent = DEFAULT_USER_AGENT
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CompileVolatile compiles volatile url patterns, the placeholder `{year}`
// is replaced with the year of `now` before compiling.
func CompileVolatile(patterns []string, now time.Time) ([]*regexp.Regexp, error) {
	year := strconv.Itoa(now.Year())

	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(strings.ReplaceAll(p, "{year}", year))
		if err != nil {
			return nil, fmt.Errorf("volatile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
