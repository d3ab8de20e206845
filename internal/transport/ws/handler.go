package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"hrevent/internal/app"
	"hrevent/internal/domain"
	"hrevent/internal/i18n"
)

// Options configures client defaults
type Options struct {
	DefaultLocale    language.Tag
	DefaultGroupSize int
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.EventHub
	upgrader websocket.Upgrader
	validate *validator.Validate
	opts     Options
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.EventHub, logger *slog.Logger, opts Options) *Handler {
	if opts.DefaultGroupSize < domain.MinGroupSize {
		opts.DefaultGroupSize = domain.DefaultGroupSize
	}
	if opts.DefaultLocale == language.Und {
		opts.DefaultLocale = i18n.TraditionalChinese
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Screens are served from the same binary; any origin may watch an event
				return true
			},
		},
		validate: validator.New(),
		opts:     opts,
		logger:   logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("eventCode")))
	if code == "" {
		http.Error(w, "eventCode is required", http.StatusBadRequest)
		return
	}

	session, err := h.hub.GetSession(code)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	printer := i18n.Printer(i18n.Resolve(r, h.opts.DefaultLocale))
	client := NewClient(conn, session, clientID, printer, h.opts, h.validate, h.logger)

	session.RegisterClient(clientID, client)

	h.logger.Info("websocket connected",
		"eventCode", code,
		"clientID", clientID,
	)

	client.sendConnected()
	client.Run()
}
