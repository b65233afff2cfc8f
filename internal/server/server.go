package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buildboard/internal/logging"
	"buildboard/internal/ports"
	"buildboard/internal/services"
)

// Migrator re-applies the relational schema; used by POST /api/init.
type Migrator interface {
	Migrate() error
	Ping(ctx context.Context) error
}

// Server is the buildboard HTTP API server
type Server struct {
	addr       string
	sessions   *services.SessionService
	chat       *services.ChatService
	timer      *services.TimeService
	images     *services.ImageService
	providers  []ports.Provider
	migrator   Migrator
	httpServer *http.Server
}

// NewServer wires the API routes over the given services
func NewServer(addr string, sessions *services.SessionService, chat *services.ChatService, timer *services.TimeService, images *services.ImageService, providers []ports.Provider, migrator Migrator) *Server {
	s := &Server{
		addr:      addr,
		sessions:  sessions,
		chat:      chat,
		timer:     timer,
		images:    images,
		providers: providers,
		migrator:  migrator,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/init", s.handleInit)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/sessions/{id}/chat", s.handleChat)
	mux.HandleFunc("POST /api/sessions/{id}/run", s.handleRunSession)
	mux.HandleFunc("POST /api/time/start", s.handleTimeStart)
	mux.HandleFunc("POST /api/time/stop", s.handleTimeStop)
	mux.HandleFunc("GET /api/time/status", s.handleTimeStatus)
	mux.HandleFunc("GET /api/images", s.handleListImages)
	mux.HandleFunc("PUT /api/images/{key...}", s.handleUpsertImageMetadata)
	mux.HandleFunc("GET /api/test-keys", s.handleTestKeys)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // provider chains can be slow
	}

	return s
}

// Handler exposes the routed handler for tests
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves HTTP and blocks until shutdown
func (s *Server) Start() error {
	// Handle graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logging.Logger.Info("Starting HTTP server", "address", s.addr)
	fmt.Printf("buildboard listening on %s\n", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-done:
	}

	logging.Logger.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	logging.Logger.Info("HTTP server stopped")
	return nil
}

// corsMiddleware applies the permissive CORS policy to every response and
// answers preflight requests directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
