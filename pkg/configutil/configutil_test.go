package configutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name   string     `json:"name"`
	Delay  int        `json:"delay"`
	Chats  []int64    `json:"chats"`
	Nested testNested `json:"nested"`
}

type testNested struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "boxwatch.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, os.WriteFile(name, []byte(`{
		// comments and trailing commas are fine
		name: "base",
		delay: 500,
		nested: { path: "./.cache", },
	}`), 0o644))

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Delay: 500, Nested: testNested{Path: "./.cache"}}, cfg)

	require.Equal(t, filepath.Join(dir, "boxwatch.local.json5"), LocalName(name))
	require.NoError(t, os.WriteFile(LocalName(name), []byte(`{
		delay: 1000,
		chats: [42],
		nested: { enabled: true },
	}`), 0o644))

	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Name:   "base",
		Delay:  1000,
		Chats:  []int64{42},
		Nested: testNested{Enabled: true, Path: "./.cache"},
	}, cfg)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "boxwatch.json5")
	require.NoError(t, os.WriteFile(LocalName(name), []byte(`{name: "local"}`), 0o644))

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Name)
}

func TestReadConfigMalformed(t *testing.T) {
	name := filepath.Join(t.TempDir(), "boxwatch.json5")
	require.NoError(t, os.WriteFile(name, []byte(`{name: `), 0o644))

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
	require.NotErrorIs(t, err, fs.ErrNotExist)
}
