// Package web hosts the scripture reader: a static page whose location
// fragment drives a per-tab navigation session over a WebSocket.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
	"github.com/FocuswithJustin/ScripturesMapped/internal/router"
	"github.com/FocuswithJustin/ScripturesMapped/internal/server"
)

//go:embed static/*
var staticFS embed.FS

const shutdownTimeout = 5 * time.Second

// Config holds web host configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	MessageRate    float64
	MessageBurst   int
	MaxMessageSize int64
}

// Server serves the reader page and its sessions.
type Server struct {
	cfg      Config
	fetcher  router.ContentFetcher
	hub      *Hub
	upgrader websocket.Upgrader
	store    atomic.Pointer[catalog.Store]
}

// New creates a server. The catalog is supplied later by LoadCatalog or
// SetStore; sessions that connect before then wait for it.
func New(cfg Config, fetcher router.ContentFetcher) *Server {
	return &Server{
		cfg:     cfg,
		fetcher: fetcher,
		hub:     NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     server.CheckOrigin(cfg.AllowedOrigins),
		},
	}
}

// LoadCatalog starts loading both catalog feeds and publishes the store to
// every session once both have arrived. It does not block.
func (s *Server) LoadCatalog(ctx context.Context, src catalog.Source) {
	catalog.Load(ctx, src, func(store *catalog.Store, err error) {
		if err != nil {
			logging.Error("catalog load failed", "source", src.Name(), "error", err)
			return
		}
		s.SetStore(store)
	})
}

// SetStore makes the server ready. Only the first store is used.
func (s *Server) SetStore(store *catalog.Store) {
	if !s.store.CompareAndSwap(nil, store) {
		return
	}
	s.hub.SetStore(store)
}

// Store returns the catalog, or nil while loading.
func (s *Server) Store() *catalog.Store {
	return s.store.Load()
}

// Run runs the session hub until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Handler returns the HTTP handler with all routes and middleware. Run must
// be running while it serves.
func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}

	r := chi.NewRouter()
	r.Use(logging.CombinedMiddleware)
	r.Use(server.SecurityHeaders(server.ReaderCSPConfig()))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealth)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Run(ctx)

	logging.ServerStartup("reader", "http", s.cfg.Port,
		"url", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logging.Info("server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	// The request context ends when this handler returns.
	sess, err := newSession(context.WithoutCancel(r.Context()), s, conn)
	if err != nil {
		logging.ErrorContext(r.Context(), "failed to start session", "error", err)
		conn.Close()
		return
	}
	if !s.hub.Register(sess) {
		conn.Close()
		return
	}
	sess.start()
}

// HealthStatus is the /healthz response.
type HealthStatus struct {
	Ready    bool `json:"ready"`
	Books    int  `json:"books"`
	Volumes  int  `json:"volumes"`
	Sessions int  `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Sessions: s.hub.Count()}
	if store := s.Store(); store != nil {
		status.Ready = true
		status.Books = len(store.Books())
		status.Volumes = len(store.Volumes())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logging.WarnContext(r.Context(), "failed to write health status", "error", err)
	}
}
