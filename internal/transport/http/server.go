package http

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"hrevent/internal/app"
	"hrevent/internal/config"
	"hrevent/internal/i18n"
	"hrevent/internal/transport/ws"
)

// Server represents the HTTP server
type Server struct {
	server        *http.Server
	hub           *app.EventHub
	config        *config.Config
	logger        *slog.Logger
	webFS         fs.FS
	validate      *validator.Validate
	defaultLocale language.Tag
}

// NewServer creates a new HTTP server. webFS must contain a web directory
// with index.html and static assets.
func NewServer(cfg *config.Config, hub *app.EventHub, logger *slog.Logger, webFS fs.FS) *Server {
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		logger.Error("failed to get web subdirectory", "error", err)
	}

	s := &Server{
		hub:           hub,
		config:        cfg,
		logger:        logger,
		webFS:         webContent,
		validate:      validator.New(),
		defaultLocale: i18n.MustParse(cfg.Event.DefaultLocale),
	}

	// Set up routes
	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.middleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Events
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/events/{code}", s.handleGetEvent)
	mux.HandleFunc("DELETE /api/events/{code}", s.handleDeleteEvent)

	// Participant registry
	mux.HandleFunc("PUT /api/events/{code}/participants", s.handleSetParticipants)
	mux.HandleFunc("POST /api/events/{code}/participants/upload", s.handleUploadParticipants)
	mux.HandleFunc("POST /api/events/{code}/participants/sample", s.handleSampleParticipants)
	mux.HandleFunc("POST /api/events/{code}/participants/dedupe", s.handleDedupeParticipants)
	mux.HandleFunc("DELETE /api/events/{code}/participants", s.handleClearParticipants)

	// Lucky draw
	mux.HandleFunc("PUT /api/events/{code}/draw/settings", s.handleDrawSettings)
	mux.HandleFunc("POST /api/events/{code}/draw", s.handleDraw)
	mux.HandleFunc("POST /api/events/{code}/draw/reset", s.handleResetDraw)
	mux.HandleFunc("GET /api/events/{code}/draw/summary", s.handleDrawSummary)

	// Grouping
	mux.HandleFunc("POST /api/events/{code}/groups", s.handleGroups)
	mux.HandleFunc("GET /api/events/{code}/groups/summary", s.handleGroupsSummary)
	mux.HandleFunc("GET /api/events/{code}/groups/export", s.handleGroupsExport)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// WebSocket
	wsHandler := ws.NewHandler(s.hub, s.logger, ws.Options{
		DefaultLocale:    s.defaultLocale,
		DefaultGroupSize: s.config.Event.DefaultGroupSize,
	})
	mux.Handle("GET /ws", wsHandler)

	// Static files and SPA
	mux.HandleFunc("GET /static/", s.handleStatic)
	mux.HandleFunc("GET /", s.handleSPA)
}

// middleware wraps the handler with logging and other middleware
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Add CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// Log request (skip static files in production)
		if s.config.IsDevelopment() || !isStaticRequest(r.URL.Path) {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start),
			)
		}
	})
}

// writeTimeout leaves room for a draw request to wait out the whole spin
func writeTimeout(cfg *config.Config) time.Duration {
	return max(15*time.Second, cfg.Event.SpinDuration+cfg.Event.GroupingDelay+10*time.Second)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// isStaticRequest checks if the request is for a static file
func isStaticRequest(path string) bool {
	return strings.HasPrefix(path, "/static/") && len(path) > len("/static/")
}

