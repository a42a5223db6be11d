package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client wraps one websocket connection. A connection moves through three
// states: connected (pumps running, not in the presence table), identified
// (after a join event bound it to a user id), and closed (pumps stopped,
// presence entry removed by connection identity).
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// identity verified from the handshake bearer token; empty when the
	// client connected without one.
	tokenUserID string

	send      chan OutboundEvent
	closeOnce sync.Once

	// mu orders Deliver against close so a late relay push cannot write to
	// a closed send channel.
	mu     sync.Mutex
	closed bool
}

// NewClient wires a freshly upgraded connection to the hub.
func NewClient(hub *Hub, conn *websocket.Conn, tokenUserID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		tokenUserID: tokenUserID,
		send:        make(chan OutboundEvent, hub.cfg.SendBuffer),
	}
}

// Deliver queues evt for writing without blocking. It reports false when
// the per-connection queue is full or the client is shutting down; the
// caller treats that as a dropped notification.
func (c *Client) Deliver(evt OutboundEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

// Run starts the read and write pumps and blocks until the connection
// closes. Cleanup (presence removal by connection identity, socket close)
// runs exactly once regardless of which pump exits first.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// close tears the connection down: presence cleanup by identity, socket
// close, and send-channel close so the write pump drains and exits.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.hub.Drop(c)
		_ = c.conn.Close()
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump decodes inbound events until the connection errors or closes.
// Malformed frames and unknown event types are ignored: one bad event must
// not take the relay down for other connections.
func (c *Client) readPump() {
	defer c.close()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Msg("ws read error")
			}
			return
		}

		var evt InboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.hub.log.Debug().Err(err).Msg("ws: malformed event, ignoring")
			continue
		}

		switch evt.Type {
		case EventJoin:
			c.handleJoin(evt.UserID)
		case EventSendMessage:
			if evt.ChatID == "" || evt.Message == nil {
				continue
			}
			c.hub.Relay(context.Background(), evt.ChatID, *evt.Message)
		default:
			c.hub.log.Debug().Str("type", evt.Type).Msg("ws: unknown event type")
		}
	}
}

// handleJoin binds this connection in the presence table. When the
// handshake carried a verified token identity, that identity wins over the
// client-asserted id; a bare client-supplied id is still accepted for
// compatibility with the original socket protocol, but flagged in the logs
// as untrusted.
func (c *Client) handleJoin(claimedID string) {
	userID := c.tokenUserID
	if userID == "" {
		if claimedID == "" {
			return
		}
		userID = claimedID
		c.hub.log.Warn().
			Str("user_id", userID).
			Msg("ws: join with unverified client-supplied user id")
	} else if claimedID != "" && claimedID != userID {
		c.hub.log.Warn().
			Str("token_user_id", userID).
			Str("claimed_user_id", claimedID).
			Msg("ws: join id differs from token identity, using token")
	}
	c.hub.Join(userID, c)
}

// writePump writes queued events and keepalive pings until the send
// channel closes or a write fails.
func (c *Client) writePump() {
	cfg := c.hub.cfg
	pingPeriod := cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
