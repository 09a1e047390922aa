// Package mockengine serves a local stand-in for the remote simulation
// engine. It speaks the same JSON surface as the real engine, so the CLI and
// the HTTP client can be exercised without it.
package mockengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ackReset   = "Game has been reset."
	ackStopped = "Game stopped and state cleared."
	ackInvalid = "Invalid game ID."
)

type startRequest struct {
	Columns         int    `json:"columns"`
	Rows            int    `json:"rows"`
	Seed            int64  `json:"seed"`
	Gatherers       int    `json:"gatherers"`
	Scouts          int    `json:"scouts"`
	Resources       int    `json:"resources"`
	EmptyDisplay    string `json:"empty_display"`
	ObstacleDisplay string `json:"obstacle_display"`
	BaseDisplay     string `json:"base_display"`
	ScoutDisplay    string `json:"scout_display"`
	GathererDisplay string `json:"gatherer_display"`
	CrystalDisplay  string `json:"crystal_display"`
	EnergyDisplay   string `json:"energy_display"`
}

type stateResponse struct {
	Map          [][]string `json:"map"`
	CrystalCount int        `json:"crystal_count"`
	EnergyCount  int        `json:"energy_count"`
}

// Server holds the running worlds keyed by session id.
type Server struct {
	r      *chi.Mux
	logger zerolog.Logger

	mu     sync.Mutex
	worlds map[string]*world
}

func New(logger zerolog.Logger) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		logger: logger,
		worlds: make(map[string]*world),
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Post("/start", s.handleStart)
	s.r.Get("/state/{id}", s.handleState)
	s.r.Post("/reset/{id}", s.handleReset)
	s.r.Post("/stop/{id}", s.handleStop)

	return s
}

// Handler exposes the router, e.g. for httptest servers.
func (s *Server) Handler() http.Handler { return s.r }

// Len reports how many sessions are running.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.worlds)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", addr).Msg("mock engine listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.worlds[id] = newWorld(req.params())
	s.mu.Unlock()

	s.logger.Debug().Str("id", id).Int("columns", req.Columns).Int("rows", req.Rows).Msg("session started")
	_ = json.NewEncoder(w).Encode(id)
}

// handleState advances the world one step before rendering it.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	current, ok := s.worlds[id]
	var state stateResponse
	if ok {
		current.step()
		state = current.render()
	}
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ackInvalid)
		return
	}
	_ = json.NewEncoder(w).Encode(state)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, ok := s.worlds[id]
	if ok {
		s.worlds[id] = newWorld(req.params())
	}
	s.mu.Unlock()

	if !ok {
		_ = json.NewEncoder(w).Encode(ackInvalid)
		return
	}
	s.logger.Debug().Str("id", id).Msg("session reset")
	_ = json.NewEncoder(w).Encode(ackReset)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.worlds[id]
	delete(s.worlds, id)
	s.mu.Unlock()

	if !ok {
		_ = json.NewEncoder(w).Encode(ackInvalid)
		return
	}
	s.logger.Debug().Str("id", id).Msg("session stopped")
	_ = json.NewEncoder(w).Encode(ackStopped)
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
