package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/app"
	"github.com/llehouerou/tubeq/internal/errmsg"
	"github.com/llehouerou/tubeq/internal/library"
	"github.com/llehouerou/tubeq/internal/playback"
	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/playlists"
	"github.com/llehouerou/tubeq/internal/search"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, op errmsg.Op, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("op", string(op)), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: errmsg.Format(op, err)})
}

// statusFor maps an application error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound),
		errors.Is(err, playlists.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrSuperseded),
		errors.Is(err, playback.ErrEmptyQueue):
		return http.StatusConflict
	case errors.Is(err, app.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest),
		errors.Is(err, app.ErrEmptyURL),
		errors.Is(err, app.ErrInvalidURL),
		errors.Is(err, app.ErrEmptyQuery),
		errors.Is(err, app.ErrNothingToPlay),
		errors.Is(err, library.ErrEmptyTitle),
		errors.Is(err, library.ErrEmptyURL),
		errors.Is(err, playlists.ErrEmptyName),
		errors.Is(err, playlist.ErrInvalidIndex),
		errors.Is(err, playlist.ErrInvalidOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body is accepted when
// optional is set.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}
