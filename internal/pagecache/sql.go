package pagecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "embed"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed schema.sql
var Schema string

// SQLStore is a Store backed by a sqlite or libsql database with Schema applied.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) SQLStore {
	return SQLStore{db: db, now: time.Now}
}

func (s SQLStore) Get(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", url))

	var html string
	err := s.db.QueryRowContext(ctx, "select html from pages where url = ?", url).Scan(&html)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPageNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page")
		return "", fmt.Errorf("get %s: %w", url, err)
	}

	span.SetAttributes(attribute.Int("contentlength", len(html)))
	return html, nil
}

func (s SQLStore) Put(ctx context.Context, url, html string) error {
	ctx, span := tracer.Start(ctx, "put")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", url))

	_, err := s.db.ExecContext(
		ctx,
		`insert into pages (url, category, html, fetched_at) values (?, ?, ?, ?)
		on conflict(url) do nothing`,
		url, string(Classify(url)), html, s.now().Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write page")
		return fmt.Errorf("put %s: %w", url, err)
	}
	return nil
}

// Stats returns the amount of cached pages per category.
func (s SQLStore) Stats(ctx context.Context) (map[Category]int64, error) {
	rows, err := s.db.QueryContext(ctx, "select category, count(*) from pages group by category")
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	out := map[Category]int64{}
	for _, c := range Categories {
		out[c] = 0
	}
	for rows.Next() {
		var category string
		var count int64
		err = rows.Scan(&category, &count)
		if err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		out[Category(category)] = count
	}
	return out, rows.Err()
}
