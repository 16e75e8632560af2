// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/despensa/internal/assistant"
	"github.com/Veraticus/despensa/internal/metrics"
)

// Chatter handles one message for one user.
type Chatter interface {
	Handle(ctx context.Context, userID, text string) (assistant.Reply, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Server serves the chat API.
type Server struct {
	chatter Chatter
	router  chi.Router
	opts    Options
}

// New builds the router. Zero timeouts use defaults.
func New(chatter Chatter, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{chatter: chatter, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.countRoute("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}))
	r.Handle("/metrics", promhttp.Handler())
	r.With(middleware.Timeout(opts.RequestTimeout)).
		Post("/v1/chat", s.countRoute("/v1/chat", s.handleChat))

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleChat(w http.ResponseWriter, req *http.Request) {
	var chatReq ChatRequest
	if err := json.NewDecoder(req.Body).Decode(&chatReq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(chatReq.UserID) == "" || strings.TrimSpace(chatReq.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "user_id and message are required"})
		return
	}

	reply, err := s.chatter.Handle(req.Context(), chatReq.UserID, chatReq.Message)
	if err != nil {
		slog.Error("chat failed",
			"request_id", middleware.GetReqID(req.Context()),
			"user", chatReq.UserID,
			"error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "request canceled"})
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("chat server started", "addr", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down chat server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// countRoute records the response status of route.
func (s *Server) countRoute(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next(ww, req)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
