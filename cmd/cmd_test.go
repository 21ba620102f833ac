package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tubeq/internal/library"
	"github.com/llehouerou/tubeq/internal/playlists"
)

var idPattern = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

// writeConfig points storage at a temp database and disables network lookups.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[storage]
path = "` + filepath.ToSlash(filepath.Join(dir, "tubeq.db")) + `"

[metadata]
offline = true

[log]
level = "error"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func extractID(t *testing.T, out string) string {
	t.Helper()
	m := idPattern.FindStringSubmatch(out)
	require.NotNil(t, m, "no id in output %q", out)
	return m[1]
}

func TestTracksLifecycle(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "tracks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No songs yet.")

	out, err = run(t, cfg, "tracks", "add", "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Video abc123")
	id := extractID(t, out)

	out, err = run(t, cfg, "tracks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Video abc123")
	assert.Contains(t, out, id)

	out, err = run(t, cfg, "tracks", "search", "abc123")
	require.NoError(t, err)
	assert.Contains(t, out, "Video abc123")

	_, err = run(t, cfg, "tracks", "delete", id)
	require.NoError(t, err)

	out, err = run(t, cfg, "tracks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No songs yet.")
}

func TestTracksAdd_InvalidURL(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "tracks", "add", "https://example.com/page")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to add song")
}

func TestTracksDelete_NotFound(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "tracks", "delete", "missing")

	require.ErrorIs(t, err, library.ErrNotFound)
}

func TestPlaylistsLifecycle(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "tracks", "add", "https://youtu.be/song1")
	require.NoError(t, err)
	trackID := extractID(t, out)

	out, err = run(t, cfg, "playlists", "create", "Road", "trip")
	require.NoError(t, err)
	assert.Contains(t, out, "Created playlist Road trip")
	plID := extractID(t, out)

	out, err = run(t, cfg, "playlists", "toggle", plID, trackID)
	require.NoError(t, err)
	assert.Contains(t, out, "Added to playlist")

	out, err = run(t, cfg, "playlists", "show", plID)
	require.NoError(t, err)
	assert.Contains(t, out, "Video song1")

	_, err = run(t, cfg, "playlists", "rename", plID, "Commute")
	require.NoError(t, err)

	out, err = run(t, cfg, "playlists", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Commute")
	assert.Contains(t, out, "1 songs")

	// Deleting the song purges it from the playlist.
	_, err = run(t, cfg, "tracks", "delete", trackID)
	require.NoError(t, err)
	out, err = run(t, cfg, "playlists", "show", plID)
	require.NoError(t, err)
	assert.Contains(t, out, "Playlist is empty.")

	_, err = run(t, cfg, "playlists", "delete", plID)
	require.NoError(t, err)
	out, err = run(t, cfg, "playlists", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No playlists yet.")
}

func TestPlaylistsShow_NotFound(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "playlists", "show", "nope")

	require.ErrorIs(t, err, playlists.ErrNotFound)
}

func TestHistory_Empty(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "tracks", "history")

	require.NoError(t, err)
	assert.Contains(t, out, "Nothing played yet.")
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "absent.toml"), "tracks", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
