// Package livereload notifies connected browsers that generated assets
// changed. Clients subscribe to a server-sent event stream and reload on
// every broadcast.
package livereload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"assetpipe/internal/logs"
)

// Server fans reload events out to SSE subscribers.
type Server struct {
	addr   string
	logger *logs.Logger

	mu      sync.Mutex
	clients map[chan string]struct{}
}

// New creates a live-reload server listening on addr once started.
func New(addr string, logger *logs.Logger) *Server {
	return &Server{
		addr:    addr,
		logger:  logger,
		clients: make(map[chan string]struct{}),
	}
}

// Handler returns the HTTP routes: GET /events for the SSE stream and
// GET /healthz for probes.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/events", s.handleEvents)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Infof("livereload: listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("livereload server failed: %w", err)
	}
	return nil
}

// Broadcast sends a reload event to every connected client. Sends never
// block: a client that cannot keep up misses the event.
func (s *Server) Broadcast(rule string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- rule:
		default:
		}
	}
	s.logger.Debugf("livereload: broadcast '%s' to %d clients", rule, len(s.clients))
}

// ClientCount returns the number of connected subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, ch)
		s.mu.Unlock()
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case rule := <-ch:
			fmt.Fprintf(w, "event: reload\ndata: {\"rule\":%q}\n\n", rule)
			flusher.Flush()
		}
	}
}
