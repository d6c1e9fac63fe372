// Package pagecache is the write-once store of raw pages keyed by the exact url
// they were fetched from.
package pagecache

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("odistats/internal/pagecache")

// ErrPageNotFound is returned by Store.Get on a cache miss.
var ErrPageNotFound = errors.New("page not found in cache")

// Store maps a url to the html previously fetched from it.
//
// Keys are compared as exact strings, two urls that differ only by a trailing
// slash or by query order are different keys. Put never overwrites an existing
// key, putting the same url twice leaves the first html in place.
type Store interface {
	Get(ctx context.Context, url string) (string, error)
	Put(ctx context.Context, url, html string) error
}

type Category string

const (
	CATEGORY_PLAYER Category = "player"
	CATEGORY_GROUND Category = "ground"
	CATEGORY_MATCH  Category = "match"
)

// Categories lists every category in display order.
var Categories = []Category{CATEGORY_MATCH, CATEGORY_GROUND, CATEGORY_PLAYER}

// Classify assigns a url to one of the archives it would have been kept in,
// anything that is not a player or ground page counts as a match page.
func Classify(url string) Category {
	switch {
	case strings.Contains(url, "player"):
		return CATEGORY_PLAYER
	case strings.Contains(url, "ground"):
		return CATEGORY_GROUND
	default:
		return CATEGORY_MATCH
	}
}
