package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"odistats/lib/sqliteutil"
	"odistats/lib/telemetry"
)

type DBParams struct {
	Name   string
	Schema string
	// if true, the database lives in a file under t.TempDir() instead of `:memory:`
	OnDisk bool
}

// OpenDB sets up test telemetry and a sqlite database with params.Schema
// applied, both are torn down when the test ends.
func OpenDB(t testing.TB, params DBParams) *sql.DB {
	t.Helper()

	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	path := ":memory:"
	if params.OnDisk {
		path = filepath.Join(t.TempDir(), params.Name+".db")
	}
	db, err := sqliteutil.OpenDB(params.Schema, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
