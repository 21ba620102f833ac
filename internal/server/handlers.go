package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/llehouerou/tubeq/internal/errmsg"
	"github.com/llehouerou/tubeq/internal/playlist"
)

type addTrackRequest struct {
	URL        string `json:"url"`
	PlaylistID string `json:"playlistId,omitempty"`
}

type acceptRequest struct {
	Title      string              `json:"title"`
	Thumbnail  string              `json:"thumbnail"`
	URL        string              `json:"url"`
	PreviewURL string              `json:"previewUrl,omitempty"`
	Source     playlist.SourceKind `json:"source"`
	PlaylistID string              `json:"playlistId,omitempty"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type trackRequest struct {
	TrackID string `json:"trackId"`
}

type reorderRequest struct {
	Keys []uint64 `json:"keys"`
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type playAllRequest struct {
	PlaylistID string `json:"playlistId,omitempty"`
}

type volumeRequest struct {
	Level *int `json:"level"`
}

type membershipResponse struct {
	PlaylistID string `json:"playlistId"`
	TrackID    string `json:"trackId"`
	Member     bool   `json:"member"`
}

// Songs

func (s *Server) listTracks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Library.Tracks())
}

func (s *Server) addTrack(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpSongAdd, err)
		return
	}
	t, err := s.app.AddSong(r.Context(), req.URL, req.PlaylistID)
	if err != nil {
		s.writeError(w, errmsg.OpSongAdd, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) acceptResult(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpSongAccept, err)
		return
	}
	candidate := playlist.Track{
		Title:      req.Title,
		Thumbnail:  req.Thumbnail,
		URL:        req.URL,
		PreviewURL: req.PreviewURL,
		Source:     req.Source,
	}
	t, err := s.app.AcceptResult(r.Context(), candidate, req.PlaylistID)
	if err != nil {
		s.writeError(w, errmsg.OpSongAccept, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) deleteTrack(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteTrack(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, errmsg.OpSongDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	results, err := s.app.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, errmsg.OpSearch, err)
		return
	}
	if results == nil {
		results = []playlist.Track{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Playlists

func (s *Server) listPlaylists(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Playlists.List())
}

func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpPlaylistCreate, err)
		return
	}
	pl, err := s.app.Playlists.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, errmsg.OpPlaylistCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

func (s *Server) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req nameRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpPlaylistRename, err)
		return
	}
	if err := s.app.Playlists.Rename(r.Context(), id, req.Name); err != nil {
		s.writeError(w, errmsg.OpPlaylistRename, err)
		return
	}
	pl, err := s.app.Playlists.Get(id)
	if err != nil {
		s.writeError(w, errmsg.OpPlaylistRename, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Playlists.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, errmsg.OpPlaylistDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) togglePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	member, err := s.app.TogglePlaylistTrack(r.Context(), vars["id"], vars["trackId"])
	if err != nil {
		s.writeError(w, errmsg.OpPlaylistToggle, err)
		return
	}
	writeJSON(w, http.StatusOK, membershipResponse{
		PlaylistID: vars["id"],
		TrackID:    vars["trackId"],
		Member:     member,
	})
}

// Queue

func (s *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Playback.Snapshot())
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpQueueAdd, err)
		return
	}
	if err := s.app.Enqueue(req.TrackID); err != nil {
		s.writeError(w, errmsg.OpQueueAdd, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) clearQueue(w http.ResponseWriter, r *http.Request) {
	s.app.Playback.ClearQueue()
	s.snapshot(w, r)
}

func (s *Server) removeFromQueue(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	if err := s.app.Playback.RemoveAt(index); err != nil {
		s.writeError(w, errmsg.OpQueueRemove, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) seek(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	if err := s.app.Playback.JumpTo(index); err != nil {
		s.writeError(w, errmsg.OpQueueSeek, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpQueueReorder, err)
		return
	}
	if err := s.app.Playback.Reorder(req.Keys); err != nil {
		s.writeError(w, errmsg.OpQueueReorder, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpQueueReorder, err)
		return
	}
	if err := s.app.Playback.Move(req.From, req.To); err != nil {
		s.writeError(w, errmsg.OpQueueReorder, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) shuffle(w http.ResponseWriter, r *http.Request) {
	s.app.Playback.ToggleShuffle()
	s.snapshot(w, r)
}

func (s *Server) playNow(w http.ResponseWriter, r *http.Request) {
	if err := s.app.PlayNow(mux.Vars(r)["trackId"]); err != nil {
		s.writeError(w, errmsg.OpPlayNow, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) playAll(w http.ResponseWriter, r *http.Request) {
	var req playAllRequest
	if err := decode(w, r, &req, true); err != nil {
		s.writeError(w, errmsg.OpPlayAll, err)
		return
	}
	if err := s.app.PlayAll(req.PlaylistID); err != nil {
		s.writeError(w, errmsg.OpPlayAll, err)
		return
	}
	s.snapshot(w, r)
}

// Player

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Playback.Toggle(); err != nil {
		s.writeError(w, errmsg.OpPlaybackToggle, err)
		return
	}
	s.snapshot(w, r)
}

func (s *Server) next(w http.ResponseWriter, r *http.Request) {
	s.app.Playback.Next()
	s.snapshot(w, r)
}

func (s *Server) previous(w http.ResponseWriter, r *http.Request) {
	s.app.Playback.Previous()
	s.snapshot(w, r)
}

func (s *Server) mute(w http.ResponseWriter, r *http.Request) {
	s.app.Playback.ToggleMute()
	s.snapshot(w, r)
}

func (s *Server) setVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decode(w, r, &req, false); err != nil {
		s.writeError(w, errmsg.OpVolume, err)
		return
	}
	if req.Level == nil {
		s.writeError(w, errmsg.OpVolume, errBadRequest)
		return
	}
	s.app.Playback.SetVolume(*req.Level)
	s.snapshot(w, r)
}

func (s *Server) history(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.History.Entries())
}
