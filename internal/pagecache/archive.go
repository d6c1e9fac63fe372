package pagecache

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type ImportResult struct {
	// Read is the amount of (url, html) rows read from the archive.
	Read int
	// Malformed is the amount of rows that did not have a url and an html column.
	Malformed int
}

// ImportCSV copies a legacy archive of `url,html` rows into store. The header
// row is optional. Since Put never overwrites, the first row for a url wins,
// both within the archive and against what store already holds.
func ImportCSV(ctx context.Context, store Store, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var result ImportResult
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("import archive: %w", err)
		}

		if first {
			first = false
			if len(record) >= 2 && record[0] == "url" && record[1] == "html" {
				continue
			}
		}

		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			result.Malformed++
			continue
		}

		err = store.Put(ctx, record[0], record[1])
		if err != nil {
			return result, fmt.Errorf("import archive: %w", err)
		}
		result.Read++

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}
}
