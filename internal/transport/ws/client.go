package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"golang.org/x/text/message"

	"hrevent/internal/app"
	"hrevent/internal/domain"
	"hrevent/internal/i18n"
	"hrevent/internal/transport/errcode"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer. A spin produces a few dozen ticks.
	sendBufferSize = 256
)

// Client represents one screen attached to an event
type Client struct {
	conn      *websocket.Conn
	session   *app.EventSession
	clientID  string
	send      chan []byte
	done      chan struct{}
	logger    *slog.Logger
	printer   *message.Printer
	validate  *validator.Validate
	groupSize int
	mu        sync.Mutex
	closed    bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, session *app.EventSession, clientID string, printer *message.Printer, opts Options, validate *validator.Validate, logger *slog.Logger) *Client {
	return &Client{
		conn:      conn,
		session:   session,
		clientID:  clientID,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		logger:    logger,
		printer:   printer,
		validate:  validate,
		groupSize: opts.DefaultGroupSize,
	}
}

// GetClientID returns the ID of this screen
func (c *Client) GetClientID() string {
	return c.clientID
}

// Send implements app.ClientConnection. Session updates are converted to
// server messages.
func (c *Client) Send(msg interface{}) error {
	if u, ok := msg.(*domain.Update); ok {
		converted, ok := fromUpdate(u)
		if !ok {
			return nil
		}
		msg = converted
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("send buffer full, message dropped", "clientID", c.clientID)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.UnregisterClient(c.clientID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(data)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
// Each frame carries exactly one JSON message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, c.printer.Sprintf(i18n.KeyInvalidRequest))
		return
	}

	switch msg.Type {
	case MsgStartDraw:
		c.handleStartDraw(msg.Payload)
	case MsgStartGrouping:
		c.handleStartGrouping(msg.Payload)
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, c.printer.Sprintf(i18n.KeyInvalidRequest))
	}
}

// handleStartDraw handles a start_draw message. The outcome reaches every
// screen through the session broadcast.
func (c *Client) handleStartDraw(raw json.RawMessage) {
	var payload StartDrawPayload
	if err := c.decode(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, c.printer.Sprintf(i18n.KeyInvalidRequest))
		return
	}

	if _, err := c.session.StartDraw(payload.Prize); err != nil {
		c.sendDomainError(err)
	}
}

// handleStartGrouping handles a start_grouping message
func (c *Client) handleStartGrouping(raw json.RawMessage) {
	var payload StartGroupingPayload
	if err := c.decode(raw, &payload); err != nil {
		c.sendDomainError(domain.ErrInvalidGroupSize)
		return
	}

	size := c.groupSize
	if payload.Size != nil {
		size = *payload.Size
	}

	if _, err := c.session.StartGrouping(size, i18n.GroupLabel(c.printer)); err != nil {
		c.sendDomainError(err)
	}
}

// decode unmarshals an optional payload and validates it
func (c *Client) decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
	}
	return c.validate.Struct(dst)
}

// sendConnected sends the current event state to the client
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		ClientID:  c.clientID,
		EventCode: c.session.GetEventCode(),
		State:     c.session.Snapshot(),
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendDomainError reports err to this screen only, through the session queue
// so it stays ordered with the broadcasts the request may have triggered
func (c *Client) sendDomainError(err error) {
	info := errcode.Lookup(err)
	c.session.Notify(c.clientID, info.Code, info.Message(c.printer))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, msg string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: msg,
	}

	c.Send(NewServerMessage(MsgError, payload))
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}
