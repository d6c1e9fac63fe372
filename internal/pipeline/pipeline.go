// Package pipeline walks the yearly results listings down to every player
// profile and assembles the result into tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"odistats/internal/cricinfo"
	"odistats/internal/fetcher"
	"odistats/internal/tables"
	"odistats/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("odistats/internal/pipeline")

const (
	report_pipeline_listing   = "pipeline.listing"
	report_pipeline_malformed = "pipeline.listing-malformed"
	report_pipeline_scorecard = "pipeline.scorecard"
	report_pipeline_profile   = "pipeline.profile"

	report_pipeline_matches            = "pipeline.matches"
	report_pipeline_no_result          = "pipeline.no_result"
	report_pipeline_malformed_rows     = "pipeline.malformed_rows"
	report_pipeline_scorecard_failures = "pipeline.scorecard_failures"
	report_pipeline_profiles           = "pipeline.profiles"
	report_pipeline_profile_failures   = "pipeline.profile_failures"
)

var ErrInvalidYears = errors.New("invalid year range")

type counters struct {
	matches           int64
	noResult          int64
	malformedRows     int64
	scorecardFailures int64
	profiles          int64
	profileFailures   int64
}

type Pipeline struct {
	fetch fetcher.API
	sites cricinfo.Sites
	tel   telemetry.API
}

func New(fetch fetcher.API, sites cricinfo.Sites, tel telemetry.API) Pipeline {
	return Pipeline{
		fetch: fetch,
		sites: sites,
		tel:   tel,
	}
}

// run holds the state of a single Run call.
type run struct {
	Pipeline
	counters counters
	// profile pages are read once per run, the age is derived per match
	profiles map[string]cricinfo.ProfileExtraction
}

// Run retrieves every ODI played from startYear to endYear inclusive. Pages
// that cannot be retrieved or read are reported and left empty in the
// dataset, only cancellation stops a run early.
func (p Pipeline) Run(ctx context.Context, startYear, endYear int) (tables.Dataset, error) {
	if startYear > endYear {
		return tables.Dataset{}, fmt.Errorf("%w: %d > %d", ErrInvalidYears, startYear, endYear)
	}

	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.Int("start_year", startYear),
		attribute.Int("end_year", endYear),
	))
	defer span.End()

	r := &run{
		Pipeline: p,
		profiles: map[string]cricinfo.ProfileExtraction{},
	}
	defer r.reportCounts()

	dataset := tables.Dataset{}
	for year := startYear; year <= endYear; year++ {
		matches, err := r.listing(ctx, year)
		if err != nil {
			return tables.Dataset{}, err
		}
		dataset.Matches = append(dataset.Matches, matches...)
	}

	for _, match := range dataset.Matches {
		record, err := r.record(ctx, match)
		if err != nil {
			return tables.Dataset{}, err
		}
		dataset.Records = append(dataset.Records, record)
	}

	return dataset, nil
}

func (r *run) reportCounts() {
	r.tel.ReportCount(report_pipeline_matches, r.counters.matches)
	r.tel.ReportCount(report_pipeline_no_result, r.counters.noResult)
	r.tel.ReportCount(report_pipeline_malformed_rows, r.counters.malformedRows)
	r.tel.ReportCount(report_pipeline_scorecard_failures, r.counters.scorecardFailures)
	r.tel.ReportCount(report_pipeline_profiles, r.counters.profiles)
	r.tel.ReportCount(report_pipeline_profile_failures, r.counters.profileFailures)
}

// get only fails on cancellation, other failures yield an empty page. The
// fetcher reports its own failures.
func (r *run) get(ctx context.Context, id, url string) (string, bool, error) {
	html, err := r.fetch.Fetch(ctx, url)
	if err == nil {
		return html, true, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	r.tel.ReportDebug("skipping unavailable page", "step", id, "url", url, "err", err)
	return "", false, nil
}

func (r *run) listing(ctx context.Context, year int) ([]cricinfo.MatchResult, error) {
	url := r.sites.ResultsURL(year)
	html, ok, err := r.get(ctx, report_pipeline_listing, url)
	if err != nil || !ok {
		return nil, err
	}

	list, err := cricinfo.ParseMatchResults(html, r.sites)
	if err != nil {
		r.tel.ReportBroken(report_pipeline_listing, err, url)
		return nil, nil
	}
	for _, row := range list.Malformed {
		r.tel.ReportWarning(report_pipeline_malformed, fmt.Errorf("row %d: %s", row.Index, row.Reason), url)
	}

	r.counters.matches += int64(len(list.Matches))
	r.counters.noResult += int64(list.NoResult)
	r.counters.malformedRows += int64(len(list.Malformed))
	r.tel.ReportDebug("read results listing", "year", year, "matches", len(list.Matches))

	return list.Matches, nil
}

func (r *run) scorecard(ctx context.Context, match cricinfo.MatchResult) (cricinfo.ScorecardDetails, error) {
	if match.ScorecardURL == "" {
		r.counters.scorecardFailures++
		r.tel.ReportWarning(report_pipeline_scorecard, fmt.Errorf("no scorecard link"), match.Scorecard)
		return cricinfo.ScorecardDetails{}, nil
	}

	html, ok, err := r.get(ctx, report_pipeline_scorecard, match.ScorecardURL)
	if err != nil {
		return cricinfo.ScorecardDetails{}, err
	}
	if !ok {
		r.counters.scorecardFailures++
		return cricinfo.ScorecardDetails{}, nil
	}

	details, err := cricinfo.ParseScorecard(html, r.sites)
	if err != nil {
		r.counters.scorecardFailures++
		r.tel.ReportBroken(report_pipeline_scorecard, err, match.ScorecardURL)
		return cricinfo.ScorecardDetails{}, nil
	}
	return details, nil
}

func (r *run) profile(ctx context.Context, url string) (cricinfo.ProfileExtraction, error) {
	if extraction, ok := r.profiles[url]; ok {
		return extraction, nil
	}

	html, ok, err := r.get(ctx, report_pipeline_profile, url)
	if err != nil {
		return cricinfo.ProfileExtraction{}, err
	}

	var extraction cricinfo.ProfileExtraction
	if ok {
		extraction = cricinfo.ParsePlayerProfile(html)
		if !extraction.Ok() {
			r.tel.ReportWarning(report_pipeline_profile, extraction.Failure, url)
		}
	} else {
		extraction = cricinfo.ProfileExtraction{Failure: fetcher.ErrPageUnavailable}
	}

	r.counters.profiles++
	if !extraction.Ok() {
		r.counters.profileFailures++
	}
	r.profiles[url] = extraction
	return extraction, nil
}

func (r *run) record(ctx context.Context, match cricinfo.MatchResult) (tables.MatchRecord, error) {
	details, err := r.scorecard(ctx, match)
	if err != nil {
		return tables.MatchRecord{}, err
	}

	record := tables.NewMatchRecord(match, details)
	for _, slot := range tables.Slots() {
		player := record.Sides[slot.Side].Players[slot.Slot]
		if player == nil {
			continue
		}
		extraction, err := r.profile(ctx, player.ProfileURL)
		if err != nil {
			return tables.MatchRecord{}, err
		}
		record.Sides[slot.Side].Stats[slot.Slot] = tables.StatsFromProfile(extraction, match.MatchDate)
	}
	return record, nil
}
