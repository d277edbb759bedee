// Package server sets up the Fetcharr local HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"fetcharr/internal/bridge"
	"fetcharr/internal/cookies"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads"
	"fetcharr/internal/models"
	"fetcharr/internal/notify"
	"fetcharr/internal/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultHost keeps the API off external interfaces.
const DefaultHost = "127.0.0.1"

// HistoryStore lists and deletes completed downloads.
type HistoryStore interface {
	List(ctx context.Context, limit, offset int) ([]*models.HistoryItem, error)
	Delete(ctx context.Context, id string) error
}

// StatusStore looks up persisted status for items no longer held in memory.
type StatusStore interface {
	GetStatus(ctx context.Context, id string) (models.StatusUpdate, error)
}

// Config wires the server to its collaborators. Board, History, Status and Cookies may be nil.
type Config struct {
	Downloads *downloads.Manager
	Bridge    *bridge.Service
	Cookies   *cookies.Manager
	Board     *notify.ProgressBoard
	History   HistoryStore
	Status    StatusStore
}

type server struct {
	Config
}

// NewRouter returns a http Handler.
func NewRouter(cfg Config) http.Handler {
	s := &server{Config: cfg}

	// Initialize router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/ping", s.handlePing)

	// Queue
	r.Get("/status", s.handleStatus)
	r.Get("/status/{id}", s.handleItemStatus)
	r.Get("/events/{id}", s.handleEvents)
	r.Post("/download", s.handleDownload)
	r.Post("/cancel", s.handleCancel)
	r.Get("/notifications", s.handleNotifications)

	// History
	r.Get("/history", s.handleListHistory)
	r.Delete("/history/{id}", s.handleDeleteHistory)

	// Desktop helpers
	r.Post("/open", s.handleOpen)
	r.Post("/reveal", s.handleReveal)
	r.Post("/cookies", s.handleCookies)

	// Generic bridge
	r.Post("/bridge/{op}", s.handleBridge)

	return r
}

// Start serves the API on addr until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, addr string, cfg Config) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, cfg)
}

// Serve serves the API on ln until ctx is done.
func Serve(ctx context.Context, ln net.Listener, cfg Config) error {
	srv := &http.Server{
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: consts.ServerReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.S("%s API listening on http://%s", consts.ProgramName, ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), consts.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestLogger logs each request through the program logger at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.D(2, "%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// cors lets the browser extension and local pages reach the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, Access-Control-Allow-Private-Network")
		h.Set("Access-Control-Allow-Private-Network", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
