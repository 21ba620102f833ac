package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tubeq/internal/app"
	"github.com/llehouerou/tubeq/internal/library"
	"github.com/llehouerou/tubeq/internal/metadata"
	"github.com/llehouerou/tubeq/internal/playback"
	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/playlists"
	"github.com/llehouerou/tubeq/internal/search"
	"github.com/llehouerou/tubeq/internal/state"
)

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, string) (metadata.Info, error) {
	return metadata.Info{}, errors.New("oembed: 503")
}

type snapshotBody struct {
	State   string           `json:"state"`
	Entries []playlist.Entry `json:"entries"`
	Index   int              `json:"index"`
	Current *playlist.Track  `json:"current"`
	Volume  int              `json:"volume"`
	Muted   bool             `json:"muted"`
}

type testServer struct {
	t     *testing.T
	app   *app.App
	video *player.Mock
	h     http.Handler
}

func newTestServer(t *testing.T, opts app.Options) *testServer {
	t.Helper()
	video := player.NewMock(playlist.SourceVideo)
	opts.Backends = append(opts.Backends, video)
	a, err := app.New(t.Context(), state.NewMock(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	bridge := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return &testServer{t: t, app: a, video: video, h: New(a, bridge, nil)}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) addSong(videoID string) playlist.Track {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/tracks", `{"url":"https://youtu.be/`+videoID+`"}`)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[playlist.Track](ts.t, rec)
}

func TestListTracks_Empty(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodGet, "/api/tracks", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAddTrack(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	tr := ts.addSong("abc123")

	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, "Video abc123", tr.Title)
	assert.Equal(t, playlist.SourceVideo, tr.Source)

	list := decodeBody[[]playlist.Track](t, ts.do(http.MethodGet, "/api/tracks", ""))
	require.Len(t, list, 1)
	assert.Equal(t, tr.ID, list[0].ID)
}

func TestAddTrack_Errors(t *testing.T) {
	tests := []struct {
		name       string
		opts       app.Options
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       `{"url":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Failed to add song",
		},
		{
			name:       "empty url",
			body:       `{"url":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "url is empty",
		},
		{
			name:       "not a video url",
			body:       `{"url":"https://example.com/x"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "not a recognized video url",
		},
		{
			name:       "unknown playlist",
			body:       `{"url":"https://youtu.be/abc","playlistId":"nope"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "playlist not found",
		},
		{
			name:       "metadata lookup fails",
			opts:       app.Options{Fetcher: failingFetcher{}},
			body:       `{"url":"https://youtu.be/abc"}`,
			wantStatus: http.StatusBadGateway,
			wantError:  "oembed: 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.opts)

			rec := ts.do(http.MethodPost, "/api/tracks", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody[errorResponse](t, rec)
			assert.Contains(t, body.Error, tt.wantError)
			assert.Zero(t, ts.app.Library.Len())
		})
	}
}

func TestAcceptResult(t *testing.T) {
	ts := newTestServer(t, app.Options{})
	pl, err := ts.app.Playlists.Create(t.Context(), "Mix")
	require.NoError(t, err)

	body := fmt.Sprintf(`{"id":"ignored","title":"Clip","thumbnail":"t.jpg",`+
		`"url":"https://music.example/x","previewUrl":"https://cdn.example/x.mp3",`+
		`"source":"audio","playlistId":%q}`, pl.ID)
	rec := ts.do(http.MethodPost, "/api/tracks/accept", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tr := decodeBody[playlist.Track](t, rec)
	assert.NotEqual(t, "ignored", tr.ID)
	assert.Equal(t, playlist.SourceAudio, tr.Source)
	assert.Equal(t, "https://cdn.example/x.mp3", tr.PreviewURL)

	got, err := ts.app.Playlists.Get(pl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tr.ID}, got.SongIDs)
}

func TestDeleteTrack(t *testing.T) {
	ts := newTestServer(t, app.Options{})
	tr := ts.addSong("abc")
	ts.do(http.MethodPost, "/api/queue", `{"trackId":"`+tr.ID+`"}`)

	rec := ts.do(http.MethodDelete, "/api/tracks/"+tr.ID, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, ts.app.Library.Len())
	assert.Empty(t, ts.app.Playback.Snapshot().Entries)

	rec = ts.do(http.MethodDelete, "/api/tracks/"+tr.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, app.Options{})
	ts.addSong("queen1")

	rec := ts.do(http.MethodGet, "/api/search?q=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/search?q=queen1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]playlist.Track](t, rec), 1)

	rec = ts.do(http.MethodGet, "/api/search?q=zzzzzz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPlaylistLifecycle(t *testing.T) {
	ts := newTestServer(t, app.Options{})
	tr := ts.addSong("abc")

	rec := ts.do(http.MethodPost, "/api/playlists", `{"name":"Road trip"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	pl := decodeBody[playlists.Playlist](t, rec)
	assert.Equal(t, "Road trip", pl.Name)

	rec = ts.do(http.MethodPatch, "/api/playlists/"+pl.ID, `{"name":"Commute"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Commute", decodeBody[playlists.Playlist](t, rec).Name)

	rec = ts.do(http.MethodPost, "/api/playlists/"+pl.ID+"/tracks/"+tr.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[membershipResponse](t, rec).Member)

	rec = ts.do(http.MethodPost, "/api/playlists/"+pl.ID+"/tracks/"+tr.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[membershipResponse](t, rec).Member)

	rec = ts.do(http.MethodPost, "/api/playlists/"+pl.ID+"/tracks/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/playlists/"+pl.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/api/playlists", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreatePlaylist_EmptyName(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodPost, "/api/playlists", `{"name":"  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error, "Failed to create playlist")
}

func TestQueueFlow(t *testing.T) {
	ts := newTestServer(t, app.Options{})
	a := ts.addSong("aaa")
	b := ts.addSong("bbb")

	rec := ts.do(http.MethodPost, "/api/queue/play-all", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeBody[snapshotBody](t, rec)
	assert.Equal(t, "Loading", snap.State)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, "aaa", ts.video.Media())

	rec = ts.do(http.MethodPost, "/api/queue/seek/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, b.ID, decodeBody[snapshotBody](t, rec).Current.ID)

	rec = ts.do(http.MethodPost, "/api/queue/move", `{"from":1,"to":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[snapshotBody](t, rec)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, a.ID, snap.Entries[1].Track.ID)

	keys := fmt.Sprintf(`{"keys":[%d,%d]}`, snap.Entries[1].Key, snap.Entries[0].Key)
	rec = ts.do(http.MethodPost, "/api/queue/reorder", keys)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[snapshotBody](t, rec)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, b.ID, snap.Current.ID)

	rec = ts.do(http.MethodPost, "/api/queue/reorder", `{"keys":[999]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/queue/7", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/queue/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[snapshotBody](t, rec)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, b.ID, snap.Current.ID)

	rec = ts.do(http.MethodDelete, "/api/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[snapshotBody](t, rec)
	assert.Equal(t, "Idle", snap.State)
	assert.Empty(t, snap.Entries)
}

func TestPlayNow(t *testing.T) {
	ts := newTestServer(t, app.Options{})
	tr := ts.addSong("abc")

	rec := ts.do(http.MethodPost, "/api/queue/play-now/"+tr.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tr.ID, decodeBody[snapshotBody](t, rec).Current.ID)

	rec = ts.do(http.MethodPost, "/api/queue/play-now/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayAll_Errors(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodPost, "/api/queue/play-all", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/queue/play-all", `{"playlistId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayerControls(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodPost, "/api/player/toggle", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	ts.addSong("aaa")
	ts.addSong("bbb")
	ts.do(http.MethodPost, "/api/queue/play-all", "")
	ts.app.Playback.HandleEvent(player.Event{
		Kind: player.EventReady, Source: playlist.SourceVideo, Media: "aaa",
	})
	assert.Equal(t, playback.StatePlaying, ts.app.Playback.State())

	rec = ts.do(http.MethodPost, "/api/player/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Paused", decodeBody[snapshotBody](t, rec).State)

	rec = ts.do(http.MethodPost, "/api/player/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[snapshotBody](t, rec).Index)

	rec = ts.do(http.MethodPost, "/api/player/previous", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[snapshotBody](t, rec).Index)

	rec = ts.do(http.MethodPost, "/api/player/mute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[snapshotBody](t, rec).Muted)
}

func TestSetVolume(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodPut, "/api/player/volume", `{"level":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decodeBody[snapshotBody](t, rec).Volume)

	rec = ts.do(http.MethodPut, "/api/player/volume", `{"level":250}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decodeBody[snapshotBody](t, rec).Volume)

	rec = ts.do(http.MethodPut, "/api/player/volume", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_Empty(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodGet, "/api/history", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodPut, "/api/tracks", `{}`)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/ws/player")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestPlayerSocketRoute(t *testing.T) {
	ts := newTestServer(t, app.Options{})

	rec := ts.do(http.MethodGet, "/ws/player", "")

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{library.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", playlists.ErrNotFound), http.StatusNotFound},
		{playback.ErrEmptyQueue, http.StatusConflict},
		{fmt.Errorf("%w: %w", app.ErrUpstream, search.ErrSuperseded), http.StatusConflict},
		{fmt.Errorf("%w: boom", app.ErrUpstream), http.StatusBadGateway},
		{app.ErrInvalidURL, http.StatusBadRequest},
		{playlist.ErrInvalidOrder, http.StatusBadRequest},
		{errBadRequest, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
