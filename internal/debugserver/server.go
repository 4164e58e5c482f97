// Package debugserver exposes read-only pipeline diagnostics over HTTP.
package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"animal-vision-camera/internal/metrics"
)

// StatusSource is the part of a preview the server reports on.
type StatusSource interface {
	ID() string
	Stats() metrics.Snapshot
	SessionState() string
	FilterName() string
	OverlayState() string
}

// Status is the session/filter view returned by /debug/session.
type Status struct {
	PreviewID string `json:"preview_id"`
	Session   string `json:"session"`
	Filter    string `json:"filter"`
	Overlay   string `json:"overlay"`
}

// PipelineStatus is the body of /debug/pipeline.
type PipelineStatus struct {
	PreviewID string           `json:"preview_id"`
	Stats     metrics.Snapshot `json:"stats"`
	DropRate  float64          `json:"drop_rate"`
}

// NewRouter builds the diagnostics routes.
func NewRouter(src StatusSource) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/debug/pipeline", pipelineHandler(src)).Methods(http.MethodGet)
	r.HandleFunc("/debug/session", sessionHandler(src)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

func pipelineHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := src.Stats()
		writeJSON(w, PipelineStatus{
			PreviewID: src.ID(),
			Stats:     snap,
			DropRate:  snap.DropRate(),
		})
	}
}

func sessionHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, Status{
			PreviewID: src.ID(),
			Session:   src.SessionState(),
			Filter:    src.FilterName(),
			Overlay:   src.OverlayState(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Server runs the router until its context ends.
type Server struct {
	srv    *http.Server
	logger logrus.FieldLogger
}

// New creates a server on addr.
func New(addr string, src StatusSource, logger logrus.FieldLogger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(src),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.WithField("addr", ln.Addr().String()).Info("Debug server listening")

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
