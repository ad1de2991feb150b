// Package control exposes the running monitor on a local HTTP address so
// CLI commands can trigger polls and read its status.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unreadwatch/internal/domain"
)

const shutdownTimeout = 5 * time.Second

var ErrAlreadyRunning = errors.New("monitor is already running")

// Listen binds the control address. A busy address means another monitor
// instance owns it.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAlreadyRunning, err)
	}

	return ln, nil
}

type Monitor interface {
	RequestRefresh()
	RequestSettingsChanged()
	Status(ctx context.Context) (domain.Status, error)
}

type Server struct {
	monitor Monitor
	mux     *http.ServeMux
	log     *slog.Logger
}

func NewServer(monitor Monitor, log *slog.Logger) *Server {
	s := &Server{monitor: monitor, mux: http.NewServeMux(), log: log}

	s.mux.HandleFunc("POST /refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /settings-changed", s.handleSettingsChanged)
	s.mux.HandleFunc("GET /status", s.handleStatus)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve answers requests on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.InfoContext(ctx, "Control server is listening",
		"addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("serve control: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown control: %w", err)
	}

	return nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.monitor.RequestRefresh()

	s.log.InfoContext(r.Context(), "Refresh is requested",
		"remoteAddr", r.RemoteAddr)

	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) handleSettingsChanged(w http.ResponseWriter, r *http.Request) {
	s.monitor.RequestSettingsChanged()

	s.log.InfoContext(r.Context(), "Settings change is reported",
		"remoteAddr", r.RemoteAddr)

	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.monitor.Status(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to build status",
			"error", err)
		http.Error(w, "status is unavailable", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
