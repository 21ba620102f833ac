// Package server exposes the application over HTTP: a JSON API for the
// library, playlists, queue and player, the websocket the player page
// attaches to, and the page itself.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/app"
)

//go:embed web
var webFS embed.FS

const shutdownTimeout = 5 * time.Second

// Server routes HTTP requests to the application.
type Server struct {
	app    *app.App
	bridge http.Handler
	logger *zap.Logger
	router *mux.Router
}

// New creates a server for a. The bridge serves the player websocket.
func New(a *app.App, bridge http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		app:    a,
		bridge: bridge,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)

	// Songs
	api.HandleFunc("/tracks", s.listTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks", s.addTrack).Methods(http.MethodPost)
	api.HandleFunc("/tracks/accept", s.acceptResult).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{id}", s.deleteTrack).Methods(http.MethodDelete)
	api.HandleFunc("/search", s.search).Methods(http.MethodGet)

	// Playlists
	api.HandleFunc("/playlists", s.listPlaylists).Methods(http.MethodGet)
	api.HandleFunc("/playlists", s.createPlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", s.renamePlaylist).Methods(http.MethodPatch)
	api.HandleFunc("/playlists/{id}", s.deletePlaylist).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks/{trackId}", s.togglePlaylistTrack).Methods(http.MethodPost)

	// Queue
	api.HandleFunc("/queue", s.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/queue", s.enqueue).Methods(http.MethodPost)
	api.HandleFunc("/queue", s.clearQueue).Methods(http.MethodDelete)
	api.HandleFunc("/queue/{index:[0-9]+}", s.removeFromQueue).Methods(http.MethodDelete)
	api.HandleFunc("/queue/seek/{index:[0-9]+}", s.seek).Methods(http.MethodPost)
	api.HandleFunc("/queue/reorder", s.reorder).Methods(http.MethodPost)
	api.HandleFunc("/queue/move", s.move).Methods(http.MethodPost)
	api.HandleFunc("/queue/shuffle", s.shuffle).Methods(http.MethodPost)
	api.HandleFunc("/queue/play-now/{trackId}", s.playNow).Methods(http.MethodPost)
	api.HandleFunc("/queue/play-all", s.playAll).Methods(http.MethodPost)

	// Player
	api.HandleFunc("/player", s.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/player/toggle", s.toggle).Methods(http.MethodPost)
	api.HandleFunc("/player/next", s.next).Methods(http.MethodPost)
	api.HandleFunc("/player/previous", s.previous).Methods(http.MethodPost)
	api.HandleFunc("/player/mute", s.mute).Methods(http.MethodPost)
	api.HandleFunc("/player/volume", s.setVolume).Methods(http.MethodPut)
	api.HandleFunc("/history", s.history).Methods(http.MethodGet)

	if s.bridge != nil {
		r.Handle("/ws/player", s.bridge).Methods(http.MethodGet)
	}

	page, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/").Handler(http.FileServerFS(page)).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
