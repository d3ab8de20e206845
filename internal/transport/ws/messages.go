package ws

import (
	"encoding/json"
	"time"

	"hrevent/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgStartDraw     MessageType = "start_draw"
	MsgStartGrouping MessageType = "start_grouping"
	MsgPing          MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected       MessageType = "connected"
	MsgError           MessageType = "error"
	MsgRosterUpdate    MessageType = "roster_update"
	MsgSettingsUpdate  MessageType = "settings_update"
	MsgDrawStarted     MessageType = "draw_started"
	MsgDrawSpin        MessageType = "draw_spin"
	MsgDrawResult      MessageType = "draw_result"
	MsgDrawReset       MessageType = "draw_reset"
	MsgGroupingStarted MessageType = "grouping_started"
	MsgGroupingResult  MessageType = "grouping_result"
	MsgPong            MessageType = "pong"
)

// updateTypes maps session updates to the messages screens receive
var updateTypes = map[domain.EventType]MessageType{
	domain.EventRosterUpdated:   MsgRosterUpdate,
	domain.EventSettingsChanged: MsgSettingsUpdate,
	domain.EventDrawStarted:     MsgDrawStarted,
	domain.EventDrawSpin:        MsgDrawSpin,
	domain.EventDrawResult:      MsgDrawResult,
	domain.EventDrawReset:       MsgDrawReset,
	domain.EventGroupingStarted: MsgGroupingStarted,
	domain.EventGroupingResult:  MsgGroupingResult,
	domain.EventError:           MsgError,
}

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// fromUpdate converts a session update into a server message
func fromUpdate(u *domain.Update) (*ServerMessage, bool) {
	msgType, ok := updateTypes[u.Type]
	if !ok {
		return nil, false
	}
	return &ServerMessage{
		Type:      msgType,
		Payload:   u.Payload,
		Timestamp: u.Timestamp.UTC().Format(time.RFC3339),
	}, true
}

// Client message payloads

// StartDrawPayload is the payload for start_draw message
type StartDrawPayload struct {
	Prize string `json:"prize" validate:"max=100"`
}

// StartGroupingPayload is the payload for start_grouping message. A missing
// size uses the configured default.
type StartGroupingPayload struct {
	Size *int `json:"size" validate:"omitnil,min=2"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	ClientID  string           `json:"clientId"`
	EventCode string           `json:"eventCode"`
	State     *domain.Snapshot `json:"state"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrCodeInvalidMessage is sent for malformed or unknown client messages.
// Domain failures use the codes from the errcode package.
const ErrCodeInvalidMessage = "INVALID_MESSAGE"
