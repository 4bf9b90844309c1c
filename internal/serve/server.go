// Package serve hosts the dist dir over HTTP with a websocket-based
// autoreload channel for watch mode.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/ltfschoen/trunk/internal/config"
)

// ReloadPath is the websocket endpoint the injected client connects to.
const ReloadPath = "/_trunk/ws"

// Server serves the built site and broadcasts reload events to connected
// browsers after each successful rebuild.
type Server struct {
	rtc      *config.RtcServe
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates a dev server for the resolved config.
func New(rtc *config.RtcServe, logger *slog.Logger) *Server {
	return &Server{
		rtc:    rtc,
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Handler builds the router: the reload socket plus a static file server
// over the dist dir.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if !s.rtc.NoAutoreload {
		r.Get(ReloadPath, s.handleReloadSocket)
	}
	r.Handle("/*", http.FileServer(http.Dir(s.rtc.Dist)))
	return r
}

// ListenAndServe blocks until ctx is done, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.rtc.Address, s.rtc.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleReloadSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

// NotifyReload tells every connected browser to reload. Dead connections
// are dropped on write failure.
func (s *Server) NotifyReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}
