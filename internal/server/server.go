package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"TickerCard/internal/model"
	"TickerCard/internal/store"
)

// CardSource exposes the latest card.
type CardSource interface {
	Card() model.Card
}

// RefreshRunner triggers and reports refresh cycles.
type RefreshRunner interface {
	RunNow(trigger model.TriggerType) (*model.RefreshResult, bool)
	LastResult() *model.RefreshResult
	Running() bool
}

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	Load() (model.Snapshot, error)
}

// History reports recorded refresh outcomes.
type History interface {
	RefreshCounts(since time.Time) (map[model.RefreshStatus]int, error)
}

// Server is the boundary to the presentation shell: it serves the rendering
// artifacts as JSON and pushes every new card over websocket.
type Server struct {
	router    *mux.Router
	server    *http.Server
	hub       *Hub
	cards     CardSource
	runner    RefreshRunner
	snapshots SnapshotReader
	history   History
}

// New creates a Server listening on addr.
func New(addr string, cards CardSource, runner RefreshRunner, snapshots SnapshotReader, history History) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		hub:       NewHub(),
		cards:     cards,
		runner:    runner,
		snapshots: snapshots,
		history:   history,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("[INFO] %s %s (%v)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
		})
	})

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SendErrorResponse(w, http.StatusNotFound, "not found", nil)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SendErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	// registered on the root router so a method mismatch answers 405
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	s.router.HandleFunc("/api/card", s.handleCard).Methods(http.MethodGet)
	s.router.HandleFunc("/api/views/{view}", s.handleView).Methods(http.MethodGet)
	s.router.HandleFunc("/api/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Broadcast pushes a new card to websocket clients. It matches the dashboard update hook.
func (s *Server) Broadcast(_, next model.Card) {
	s.hub.Broadcast(next)
}

// Start serves in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] http server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()
}

// Shutdown gracefully shuts down the server and closes websocket clients.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Close()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("[INFO] http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	SendSuccessResponse(w, map[string]interface{}{
		"status":     "ok",
		"ws_clients": s.hub.Clients(),
	})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	SendSuccessResponse(w, s.cards.Card())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	card := s.cards.Card()
	switch mux.Vars(r)["view"] {
	case "indicator":
		SendSuccessResponse(w, card.Indicator)
	case "line":
		SendSuccessResponse(w, card.Line)
	case "price":
		SendSuccessResponse(w, card.PriceLabel)
	default:
		SendErrorResponse(w, http.StatusNotFound, "unknown view", nil)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Load()
	if errors.Is(err, store.ErrNoSnapshot) {
		SendErrorResponse(w, http.StatusNotFound, "no snapshot yet", err)
		return
	}
	if err != nil {
		SendErrorResponse(w, http.StatusInternalServerError, "read snapshot", err)
		return
	}
	SendSuccessResponse(w, snap)
}

type refreshView struct {
	ID         string              `json:"id"`
	Trigger    model.TriggerType   `json:"trigger"`
	Status     model.RefreshStatus `json:"status"`
	Rows       int                 `json:"rows"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMs int64               `json:"duration_ms"`
}

func newRefreshView(res *model.RefreshResult) *refreshView {
	if res == nil {
		return nil
	}
	v := &refreshView{
		ID:         res.ID,
		Trigger:    res.Trigger,
		Status:     res.Status,
		Rows:       res.Rows,
		StartedAt:  res.StartedAt,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runner.RunNow(model.TriggerManual)
	if !ok {
		SendErrorResponse(w, http.StatusConflict, "a refresh is already running", nil)
		return
	}
	if res.Status != model.RefreshOK {
		writeJSON(w, http.StatusBadGateway, Response{Success: false, Data: newRefreshView(res), Message: string(res.Status)})
		return
	}
	SendSuccessResponse(w, newRefreshView(res))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.history.RefreshCounts(time.Now().Add(-24 * time.Hour))
	if err != nil {
		SendErrorResponse(w, http.StatusInternalServerError, "read refresh history", err)
		return
	}
	SendSuccessResponse(w, map[string]interface{}{
		"running":  s.runner.Running(),
		"last":     newRefreshView(s.runner.LastResult()),
		"last_24h": counts,
	})
}
