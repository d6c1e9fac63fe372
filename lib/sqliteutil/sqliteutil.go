package sqliteutil

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens (creating if necessary) a local sqlite database and applies
// `schema`, the schema is expected to be idempotent (CREATE ... IF NOT EXISTS).
func OpenDB(schema, path string) (*sql.DB, error) {
	if path == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// sqlite only ever allows a single writer, see
	// https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, wrapOpenDB(err)
		}
	}

	return db, migrate(db, schema)
}

// OpenLibsql opens a remote libsql database and applies `schema`.
func OpenLibsql(schema, dbUrl, authToken string) (*sql.DB, error) {
	if authToken != "" {
		values := url.Values{}
		values.Add("authToken", authToken)
		sep := "?"
		if strings.Contains(dbUrl, "?") {
			sep = "&"
		}
		dbUrl = dbUrl + sep + values.Encode()
	}

	db, err := sql.Open("libsql", dbUrl)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return db, migrate(db, schema)
}

func migrate(db *sql.DB, schema string) error {
	if schema == "" {
		return nil
	}
	_, err := db.Exec(schema)
	if err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Config is the on-disk or remote location of a database, when Url is
// set it takes precedence over File.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB(schema string) (*sql.DB, error) {
	if config.Url != "" {
		return OpenLibsql(schema, config.Url, config.AuthToken)
	}
	return OpenDB(schema, config.File)
}

// Describe returns where the database lives without leaking credentials.
func (config Config) Describe() string {
	if config.Url != "" {
		return config.Url
	}
	return config.File
}
