package sqliteutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT NOT NULL);`

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := OpenDB(testSchema, path)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO kv (k, v) VALUES ('a', '1')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// the schema is applied again on reopen and must not clobber data
	db, err = OpenDB(testSchema, path)
	require.NoError(t, err)
	defer db.Close()

	var v string
	err = db.QueryRow("SELECT v FROM kv WHERE k = 'a'").Scan(&v)
	require.NoError(t, err)
	require.Equal(t, "1", v)
}

func TestOpenDBErrors(t *testing.T) {
	_, err := OpenDB(testSchema, "")
	require.Error(t, err)

	_, err = OpenDB("this is not sql", ":memory:")
	require.Error(t, err)
}

func TestConfigDescribe(t *testing.T) {
	require.Equal(t, "pages.db", Config{File: "pages.db"}.Describe())
	require.Equal(t, "libsql://x.turso.io", Config{
		File:      "pages.db",
		Url:       "libsql://x.turso.io",
		AuthToken: "secret",
	}.Describe())
}
