package fetcher

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	outcome_cache_hit = "cache_hit"
	outcome_fetched   = "fetched"
	outcome_failed    = "failed"
)

type instruments struct {
	pages    metric.Int64Counter
	requests metric.Int64Counter
}

// newInstruments falls back to no-op counters if the meter refuses them.
func newInstruments() instruments {
	meter := otel.Meter("odistats/internal/fetcher")

	pages, err := meter.Int64Counter(
		"fetcher.pages",
		metric.WithDescription("Pages returned by Fetch, by outcome."),
	)
	if err != nil {
		pages = noop.Int64Counter{}
	}
	requests, err := meter.Int64Counter(
		"fetcher.requests",
		metric.WithDescription("Outbound http requests, retries included."),
	)
	if err != nil {
		requests = noop.Int64Counter{}
	}

	return instruments{pages: pages, requests: requests}
}

func (i instruments) page(ctx context.Context, outcome string) {
	i.pages.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
