package domain

import "time"

// EventType represents the type of a live event update
type EventType string

const (
	EventRosterUpdated   EventType = "ROSTER_UPDATED"
	EventSettingsChanged EventType = "SETTINGS_CHANGED"
	EventDrawStarted     EventType = "DRAW_STARTED"
	EventDrawSpin        EventType = "DRAW_SPIN"
	EventDrawResult      EventType = "DRAW_RESULT"
	EventDrawReset       EventType = "DRAW_RESET"
	EventGroupingStarted EventType = "GROUPING_STARTED"
	EventGroupingResult  EventType = "GROUPING_RESULT"
	EventError           EventType = "ERROR"
)

// Update is a change broadcast to every screen attached to an event
type Update struct {
	Type      EventType   `json:"type"`
	EventCode string      `json:"eventCode"`
	ClientID  string      `json:"clientId,omitempty"` // If update is client-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewUpdate creates a new broadcast update
func NewUpdate(eventType EventType, eventCode string, payload interface{}) *Update {
	return &Update{
		Type:      eventType,
		EventCode: eventCode,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewClientUpdate creates an update addressed to a single client
func NewClientUpdate(eventType EventType, eventCode, clientID string, payload interface{}) *Update {
	return &Update{
		Type:      eventType,
		EventCode: eventCode,
		ClientID:  clientID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Payload types for different updates

// RosterPayload is sent when the participant list changes
type RosterPayload struct {
	Participants   []RosterEntry `json:"participants"`
	DuplicateNames []string      `json:"duplicateNames"`
	Remaining      int           `json:"remaining"`
	Limited        bool          `json:"limited"`
}

// DrawStartedPayload is sent when a spin begins
type DrawStartedPayload struct {
	Prize      string `json:"prize,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// DrawSpinPayload is sent on every animation tick
type DrawSpinPayload struct {
	Display   string `json:"display"`
	Tick      int    `json:"tick"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// DrawResultPayload is sent when the winner is committed
type DrawResultPayload struct {
	Winner    RankedWinner `json:"winner"`
	Remaining int          `json:"remaining"`
	Limited   bool         `json:"limited"`
}

// GroupingStartedPayload is sent when a grouping begins
type GroupingStartedPayload struct {
	Size int `json:"size"`
}

// GroupingResultPayload is sent when groups are committed
type GroupingResultPayload struct {
	Size   int     `json:"size"`
	Groups []Group `json:"groups"`
}

// ErrorPayload is sent when an error occurs
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
