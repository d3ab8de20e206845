package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/message"

	"hrevent/internal/domain"
	"hrevent/internal/export"
	"hrevent/internal/ingest"
)

// ClientConnection represents a connected screen
type ClientConnection interface {
	Send(msg interface{}) error
	GetClientID() string
	Close() error
}

// DrawOutcome is delivered once an animated draw finishes
type DrawOutcome struct {
	Winner    domain.RankedWinner
	Remaining int
	Limited   bool
	Err       error
}

// GroupingOutcome is delivered once an animated grouping finishes
type GroupingOutcome struct {
	Groups []domain.Group
	Err    error
}

// EventSession wraps an event with concurrency control, animation timers and
// client management
type EventSession struct {
	event     *domain.Event
	mu        sync.Mutex
	clients   map[string]ClientConnection // clientID -> client
	clientsMu sync.RWMutex
	logger    *slog.Logger
	timing    Timing
	label     domain.LabelFunc

	spinTimer       *time.Timer
	groupingTimer   *time.Timer
	pendingDraw     chan DrawOutcome
	pendingGrouping chan GroupingOutcome
	closed          bool

	// Update channel for broadcasting
	updates chan *domain.Update
	done    chan struct{}
}

// NewEventSession creates a new event session. A nil label falls back to
// domain.DefaultLabel.
func NewEventSession(event *domain.Event, timing Timing, label domain.LabelFunc, logger *slog.Logger) *EventSession {
	if label == nil {
		label = domain.DefaultLabel
	}

	session := &EventSession{
		event:   event,
		clients: make(map[string]ClientConnection),
		logger:  logger.With("eventCode", event.Code),
		timing:  timing.normalize(),
		label:   label,
		updates: make(chan *domain.Update, 100),
		done:    make(chan struct{}),
	}

	go session.updateLoop()

	return session
}

// GetEventCode returns the event code
func (s *EventSession) GetEventCode() string {
	return s.event.Code
}

// GetCreatedAt returns when the event was created
func (s *EventSession) GetCreatedAt() time.Time {
	return s.event.CreatedAt
}

// LastActivity returns when the event last changed
func (s *EventSession) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event.UpdatedAt
}

// GetParticipantCount returns the registry size
func (s *EventSession) GetParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event.ParticipantCount()
}

// Activity returns what is currently in flight
func (s *EventSession) Activity() domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event.Activity()
}

// Timing returns the animation timing
func (s *EventSession) Timing() Timing {
	return s.timing
}

// Snapshot returns the full read model
func (s *EventSession) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event.Snapshot()
}

// RegisterClient registers a screen
func (s *EventSession) RegisterClient(clientID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[clientID] = client
}

// UnregisterClient removes a screen
func (s *EventSession) UnregisterClient(clientID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, clientID)
}

// GetClientCount returns the number of connected screens
func (s *EventSession) GetClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// SetParticipants rebuilds the registry from raw names
func (s *EventSession) SetParticipants(names []string) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrEventClosed
	}

	participants, err := s.event.SetParticipants(names)
	if err != nil {
		return nil, err
	}

	s.logger.Info("participants imported", "count", len(participants))
	s.queueRoster()
	return participants, nil
}

// ImportText parses pasted text and rebuilds the registry
func (s *EventSession) ImportText(text string) ([]domain.Participant, error) {
	return s.SetParticipants(ingest.ParseText(text))
}

// ImportUpload parses an uploaded file and rebuilds the registry
func (s *EventSession) ImportUpload(r io.Reader, filename string, limit int64) ([]domain.Participant, error) {
	names, err := ingest.ParseUpload(r, filename, limit)
	if err != nil {
		return nil, err
	}
	return s.SetParticipants(names)
}

// LoadSample rebuilds the registry from the demo roster
func (s *EventSession) LoadSample() ([]domain.Participant, error) {
	return s.SetParticipants(ingest.SampleNames())
}

// Deduplicate keeps one participant per distinct name
func (s *EventSession) Deduplicate() ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrEventClosed
	}

	before := s.event.ParticipantCount()
	participants, err := s.event.Deduplicate()
	if err != nil {
		return nil, err
	}

	s.logger.Info("duplicates removed", "removed", before-len(participants), "count", len(participants))
	s.queueRoster()
	return participants, nil
}

// Clear empties the registry. confirm must be true.
func (s *EventSession) Clear(confirm bool) error {
	if !confirm {
		return domain.ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrEventClosed
	}
	if err := s.event.Clear(); err != nil {
		return err
	}

	s.logger.Info("participants cleared")
	s.queueRoster()
	return nil
}

// SetAllowDuplicates changes the draw mode
func (s *EventSession) SetAllowDuplicates(allow bool) (domain.DrawSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.event.SetAllowDuplicates(allow); err != nil {
		return domain.DrawSettings{}, err
	}

	settings := s.event.DrawSettings()
	s.queueUpdate(domain.NewUpdate(domain.EventSettingsChanged, s.event.Code, settings))
	return settings, nil
}

// ResetDraw refills the pool and clears the winners. confirm must be true.
func (s *EventSession) ResetDraw(confirm bool) error {
	if !confirm {
		return domain.ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.event.ResetDraw(); err != nil {
		return err
	}

	s.logger.Info("draw reset")
	s.queueUpdate(domain.NewUpdate(domain.EventDrawReset, s.event.Code, s.event.Snapshot().Draw))
	return nil
}

// StartDraw begins an animated draw. The returned channel receives exactly
// one outcome when the spin ends or the session closes.
func (s *EventSession) StartDraw(prize string) (<-chan DrawOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrEventClosed
	}
	if err := s.event.BeginDraw(); err != nil {
		return nil, err
	}

	result := make(chan DrawOutcome, 1)
	s.pendingDraw = result

	schedule := s.timing.SpinSchedule()
	s.queueUpdate(domain.NewUpdate(domain.EventDrawStarted, s.event.Code, &domain.DrawStartedPayload{
		Prize:      prize,
		DurationMS: Total(schedule).Milliseconds(),
	}))
	s.logger.Debug("draw started", "prize", prize, "ticks", len(schedule))

	s.scheduleSpin(prize, schedule, 0, 0)
	return result, nil
}

// scheduleSpin arms the timer for tick. Caller must hold s.mu.
func (s *EventSession) scheduleSpin(prize string, schedule []time.Duration, tick int, elapsed time.Duration) {
	elapsed += schedule[tick]
	s.spinTimer = time.AfterFunc(schedule[tick], func() {
		s.spinTick(prize, schedule, tick, elapsed)
	})
}

func (s *EventSession) spinTick(prize string, schedule []time.Duration, tick int, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pendingDraw == nil {
		return
	}

	if tick == len(schedule)-1 {
		s.finishDraw(prize)
		return
	}

	if p, ok := s.event.DrawGlimpse(); ok {
		s.queueUpdate(domain.NewUpdate(domain.EventDrawSpin, s.event.Code, &domain.DrawSpinPayload{
			Display:   p.Name,
			Tick:      tick,
			ElapsedMS: elapsed.Milliseconds(),
		}))
	}

	s.scheduleSpin(prize, schedule, tick+1, elapsed)
}

// finishDraw commits the winner and resolves the pending outcome. Caller must hold s.mu.
func (s *EventSession) finishDraw(prize string) {
	result := s.pendingDraw
	s.pendingDraw = nil
	s.spinTimer = nil

	winner, err := s.event.CommitDraw(prize, time.Now())
	if err != nil {
		s.logger.Warn("draw failed", "error", err)
		s.queueUpdate(domain.NewUpdate(domain.EventError, s.event.Code, &domain.ErrorPayload{
			Code:    "DRAW_FAILED",
			Message: err.Error(),
		}))
		result <- DrawOutcome{Err: err}
		return
	}

	draw := s.event.Snapshot().Draw
	remaining, limited := draw.Remaining, draw.Limited
	ranked := domain.RankedWinner{Winner: winner, Rank: len(draw.Winners)}

	s.logger.Info("winner drawn", "winner", winner.Name, "rank", ranked.Rank, "remaining", remaining)
	s.queueUpdate(domain.NewUpdate(domain.EventDrawResult, s.event.Code, &domain.DrawResultPayload{
		Winner:    ranked,
		Remaining: remaining,
		Limited:   limited,
	}))

	result <- DrawOutcome{Winner: ranked, Remaining: remaining, Limited: limited}
}

// Draw runs an animated draw and waits for the winner. Cancelling ctx stops
// the wait but not the draw.
func (s *EventSession) Draw(ctx context.Context, prize string) (DrawOutcome, error) {
	result, err := s.StartDraw(prize)
	if err != nil {
		return DrawOutcome{}, err
	}

	select {
	case outcome := <-result:
		return outcome, outcome.Err
	case <-ctx.Done():
		return DrawOutcome{}, fmt.Errorf("waiting for draw: %w", ctx.Err())
	}
}

// Winners returns the winners log, most recent first
func (s *EventSession) Winners() []domain.Winner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event.Winners()
}

// WinnersText renders the winners for the clipboard
func (s *EventSession) WinnersText() string {
	return export.WinnersText(s.Winners())
}

// StartGrouping begins an animated grouping. A nil label uses the session's
// default labels.
func (s *EventSession) StartGrouping(size int, label domain.LabelFunc) (<-chan GroupingOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrEventClosed
	}
	if err := s.event.BeginGrouping(size); err != nil {
		return nil, err
	}
	if label == nil {
		label = s.label
	}

	result := make(chan GroupingOutcome, 1)
	s.pendingGrouping = result

	s.queueUpdate(domain.NewUpdate(domain.EventGroupingStarted, s.event.Code, &domain.GroupingStartedPayload{Size: size}))

	s.groupingTimer = time.AfterFunc(s.timing.GroupingDelay, func() {
		s.finishGrouping(size, label)
	})
	return result, nil
}

func (s *EventSession) finishGrouping(size int, label domain.LabelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pendingGrouping == nil {
		return
	}

	result := s.pendingGrouping
	s.pendingGrouping = nil
	s.groupingTimer = nil

	groups, err := s.event.CommitGrouping(label)
	if err != nil {
		s.logger.Warn("grouping failed", "error", err)
		result <- GroupingOutcome{Err: err}
		return
	}

	s.logger.Info("groups formed", "size", size, "groups", len(groups))
	s.queueUpdate(domain.NewUpdate(domain.EventGroupingResult, s.event.Code, &domain.GroupingResultPayload{
		Size:   size,
		Groups: groups,
	}))

	result <- GroupingOutcome{Groups: groups}
}

// Group runs an animated grouping and waits for the result
func (s *EventSession) Group(ctx context.Context, size int, label domain.LabelFunc) ([]domain.Group, error) {
	result, err := s.StartGrouping(size, label)
	if err != nil {
		return nil, err
	}

	select {
	case outcome := <-result:
		return outcome.Groups, outcome.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for grouping: %w", ctx.Err())
	}
}

// Groups returns the current grouping result
func (s *EventSession) Groups() []domain.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event.Groups()
}

// GroupsText renders the groups for the clipboard
func (s *EventSession) GroupsText() string {
	return export.GroupsText(s.Groups())
}

// WriteGroupsCSV writes the current groups as a CSV download
func (s *EventSession) WriteGroupsCSV(w io.Writer, p *message.Printer) error {
	groups := s.Groups()
	if len(groups) == 0 {
		return domain.ErrNoGroups
	}
	return export.GroupsCSV(w, groups, p)
}

// Notify sends an error update to a single client
func (s *EventSession) Notify(clientID, code, msg string) {
	s.queueUpdate(domain.NewClientUpdate(domain.EventError, s.event.Code, clientID, &domain.ErrorPayload{
		Code:    code,
		Message: msg,
	}))
}

func (s *EventSession) queueRoster() {
	snapshot := s.event.Snapshot()
	s.queueUpdate(domain.NewUpdate(domain.EventRosterUpdated, s.event.Code, &domain.RosterPayload{
		Participants:   snapshot.Participants,
		DuplicateNames: snapshot.DuplicateNames,
		Remaining:      snapshot.Draw.Remaining,
		Limited:        snapshot.Draw.Limited,
	}))
}

// queueUpdate adds an update to the broadcast queue
func (s *EventSession) queueUpdate(update *domain.Update) {
	select {
	case s.updates <- update:
	default:
		s.logger.Warn("update queue full, dropping update", "type", update.Type)
	}
}

// updateLoop broadcasts queued updates to clients
func (s *EventSession) updateLoop() {
	for {
		select {
		case <-s.done:
			return
		case update := <-s.updates:
			s.broadcastUpdate(update)
		}
	}
}

// broadcastUpdate sends an update to the addressed clients
func (s *EventSession) broadcastUpdate(update *domain.Update) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if update.ClientID != "" {
		if client, ok := s.clients[update.ClientID]; ok {
			if err := client.Send(update); err != nil {
				s.logger.Debug("failed to send to client", "clientID", update.ClientID, "error", err)
			}
		}
		return
	}

	for clientID, client := range s.clients {
		if err := client.Send(update); err != nil {
			s.logger.Debug("failed to send to client", "clientID", clientID, "error", err)
		}
	}
}

// Close stops pending animations and disconnects every client. An in-flight
// draw or grouping resolves with domain.ErrEventClosed.
func (s *EventSession) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}

	s.mu.Lock()
	s.closed = true
	if s.spinTimer != nil {
		s.spinTimer.Stop()
		s.spinTimer = nil
	}
	if s.pendingDraw != nil {
		s.event.AbortDraw()
		s.pendingDraw <- DrawOutcome{Err: domain.ErrEventClosed}
		s.pendingDraw = nil
	}
	if s.groupingTimer != nil {
		s.groupingTimer.Stop()
		s.groupingTimer = nil
	}
	if s.pendingGrouping != nil {
		s.event.AbortGrouping()
		s.pendingGrouping <- GroupingOutcome{Err: domain.ErrEventClosed}
		s.pendingGrouping = nil
	}
	s.mu.Unlock()

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
