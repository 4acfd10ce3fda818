// Package server exposes the sync engine over HTTP for the settings UI
// and the external cron trigger.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/mailsync"
	"github.com/omnidesk/mailsync/internal/probe"
	"github.com/omnidesk/mailsync/internal/syncerr"
)

// Server wires the HTTP handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates the HTTP server with all routes registered.
func New(addr string, db *database.DB, engine *mailsync.Engine, prober *probe.Prober, blobDir string, logger *slog.Logger) *Server {
	syncHandler := &SyncHandler{engine: engine, logger: logger}
	testHandler := &TestHandler{db: db, prober: prober, logger: logger}
	accountsHandler := &AccountsHandler{db: db, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sync", syncHandler.HandleSync)
	mux.HandleFunc("POST /api/deep-test", testHandler.HandleDeepTest)
	mux.HandleFunc("POST /api/accounts", accountsHandler.HandleCreate)
	mux.HandleFunc("GET /api/accounts", accountsHandler.HandleList)
	mux.HandleFunc("GET /api/accounts/{id}", accountsHandler.HandleGet)
	mux.HandleFunc("PATCH /api/accounts/{id}", accountsHandler.HandleSetActive)
	mux.HandleFunc("DELETE /api/accounts/{id}", accountsHandler.HandleDelete)
	mux.HandleFunc("GET /api/accounts/{id}/logs", accountsHandler.HandleLogs)
	mux.HandleFunc("GET /api/resolve", accountsHandler.HandleResolve)
	mux.Handle("GET /blobs/", http.StripPrefix("/blobs/", http.FileServer(http.Dir(blobDir))))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 15 * time.Minute, // sync runs can be slow
		},
		logger: logger.With("component", "server"),
	}
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// errorResponse is the wire shape of every failure.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the classified error onto an HTTP status: auth
// failures answer 401, a held sync lock 409, configuration problems
// 400, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	if code := syncerr.CodeOf(err); code != syncerr.CodeUnknown {
		resp.Code = string(code)
	}
	writeJSON(w, syncerr.HTTPStatus(err), resp)
}
