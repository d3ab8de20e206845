package app

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"hrevent/internal/domain"
)

const (
	// DefaultEventCodeLength is the default length for event codes
	DefaultEventCodeLength = 6

	// DefaultStaleEventTimeout is how long an unattended, idle event is kept
	DefaultStaleEventTimeout = 2 * time.Hour

	cleanupInterval = 10 * time.Minute
)

// EventCodeChars are characters used for event codes (no ambiguous chars)
const EventCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// HubOptions configures new events
type HubOptions struct {
	CodeLength        int
	StaleEventTimeout time.Duration
	MaxParticipants   int
	Timing            Timing
	Label             domain.LabelFunc // default group labels for requests without a locale
	RNG               domain.RNG
}

// EventHub manages all active event sessions
type EventHub struct {
	sessions map[string]*EventSession
	mu       sync.RWMutex
	opts     HubOptions
	entropy  io.Reader // source for event codes
	logger   *slog.Logger
	done     chan struct{}
	once     sync.Once
}

// NewEventHub creates a new event hub and starts its cleanup loop
func NewEventHub(opts HubOptions, logger *slog.Logger) *EventHub {
	if opts.CodeLength <= 0 {
		opts.CodeLength = DefaultEventCodeLength
	}
	if opts.StaleEventTimeout <= 0 {
		opts.StaleEventTimeout = DefaultStaleEventTimeout
	}
	if opts.RNG == nil {
		opts.RNG = domain.StdRNG{}
	}

	hub := &EventHub{
		sessions: make(map[string]*EventSession),
		opts:     opts,
		entropy:  rand.Reader,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go hub.cleanupLoop()

	return hub
}

// CreateEvent creates a new event and returns its session
func (h *EventHub) CreateEvent() (*EventSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var code string
	for attempts := 0; attempts < 10; attempts++ {
		var err error
		code, err = h.generateEventCode()
		if err != nil {
			return nil, err
		}
		if _, exists := h.sessions[code]; !exists {
			break
		}
	}

	if _, exists := h.sessions[code]; exists {
		return nil, fmt.Errorf("failed to generate unique event code")
	}

	event := domain.NewEvent(code, h.opts.RNG)
	event.Settings.MaxParticipants = h.opts.MaxParticipants

	session := NewEventSession(event, h.opts.Timing, h.opts.Label, h.logger)
	h.sessions[code] = session

	h.logger.Info("event created", "eventCode", code)

	return session, nil
}

// GetSession returns an event session by code
func (h *EventHub) GetSession(code string) (*EventSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[code]
	if !ok {
		return nil, domain.ErrEventNotFound
	}

	return session, nil
}

// DeleteSession closes and removes an event session
func (h *EventHub) DeleteSession(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, ok := h.sessions[code]; ok {
		session.Close()
		delete(h.sessions, code)
		h.logger.Info("event deleted", "eventCode", code)
	}
}

// GetSessionCount returns the number of active events
func (h *EventHub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GetTotalParticipantCount returns the number of participants across all events
func (h *EventHub) GetTotalParticipantCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.GetParticipantCount()
	}
	return total
}

// GetTotalClientCount returns the number of connected screens across all events
func (h *EventHub) GetTotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.GetClientCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *EventHub) Close() {
	h.once.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*EventSession)
}

// generateEventCode generates a random event code
func (h *EventHub) generateEventCode() (string, error) {
	b := make([]byte, h.opts.CodeLength)
	if _, err := io.ReadFull(h.entropy, b); err != nil {
		return "", fmt.Errorf("generate event code: %w", err)
	}

	code := make([]byte, h.opts.CodeLength)
	for i := range code {
		code[i] = EventCodeChars[int(b[i])%len(EventCodeChars)]
	}

	return string(code), nil
}

// cleanupLoop periodically removes stale events
func (h *EventHub) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			h.CleanupStale(now)
		}
	}
}

// CleanupStale removes idle events that no screen is attached to and that
// have not changed for longer than the stale timeout. It returns the number
// of events removed.
func (h *EventHub) CleanupStale(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stale := make([]string, 0)
	for code, session := range h.sessions {
		if session.GetClientCount() > 0 || !session.Activity().IsIdle() {
			continue
		}
		if now.Sub(session.LastActivity()) > h.opts.StaleEventTimeout {
			stale = append(stale, code)
		}
	}

	for _, code := range stale {
		h.sessions[code].Close()
		delete(h.sessions, code)
		h.logger.Info("stale event cleaned up", "eventCode", code)
	}

	return len(stale)
}
