package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Retries int               `json:"retries"`
	Nested  testNested        `json:"nested"`
	Headers map[string]string `json:"headers"`
}

type testNested struct {
	File string `json:"file"`
	Url  string `json:"url"`
}

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name   string
		expect string
	}{
		{name: "config.json5", expect: "config.local.json5"},
		{name: "dir/odistats.json5", expect: "dir/odistats.local.json5"},
		{name: "noext", expect: "noext.local"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, LocalPath(test.name))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	defaults := testConfig{
		Name:    "default",
		Retries: 5,
		Nested:  testNested{File: "pages.db"},
	}

	cfg, err := Load(path, defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	err = os.WriteFile(path, []byte(`{
		// comments and trailing commas are fine
		name: "from-file",
		nested: { url: "libsql://example.turso.io", },
	}`), 0600)
	require.NoError(t, err)

	err = os.WriteFile(LocalPath(path), []byte(`{ retries: 2 }`), 0600)
	require.NoError(t, err)

	cfg, err = Load(path, defaults)
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.Name)
	require.Equal(t, 2, cfg.Retries)
	require.Equal(t, "pages.db", cfg.Nested.File)
	require.Equal(t, "libsql://example.turso.io", cfg.Nested.Url)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{ name: `), 0600)
	require.NoError(t, err)

	defaults := testConfig{Name: "default"}
	cfg, err := Load(path, defaults)
	require.Error(t, err)
	require.Equal(t, defaults, cfg)
}
