package realtime

import (
	"context"
	"encoding/json"
	"time"

	"lms-realtime/internal/models"
	"lms-realtime/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// EventHandler receives decoded frames from a client's read pump. Events
// from one connection arrive in order, one at a time.
type EventHandler interface {
	HandleEvent(ctx context.Context, client *Client, env models.Envelope)
	HandleDisconnect(client *Client)
}

// Identity is the optional handshake identity carried by a verified
// connection token. The join events remain the canonical identity
// announcement; this only annotates the connection.
type Identity struct {
	UserID string
	Role   string
	Name   string
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler EventHandler

	socketID   string
	remoteAddr string
	userAgent  string
	identity   *Identity

	// rooms is guarded by hub.mu.
	rooms map[string]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, handler EventHandler, remoteAddr, userAgent string, identity *Identity) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		handler:    handler,
		socketID:   uuid.NewString(),
		remoteAddr: remoteAddr,
		userAgent:  userAgent,
		identity:   identity,
		rooms:      make(map[string]bool),
	}
}

func (c *Client) SocketID() string   { return c.socketID }
func (c *Client) RemoteAddr() string { return c.remoteAddr }
func (c *Client) UserAgent() string  { return c.userAgent }

// Identity returns the handshake identity, or nil for anonymous
// connections.
func (c *Client) Identity() *Identity { return c.identity }

// Join adds this client to a room.
func (c *Client) Join(room string) {
	c.hub.Join(c, room)
}

// Send queues an event for this client only. Frames to a full send buffer
// are dropped; the client can recover missed history on reconnect.
func (c *Client) Send(event string, payload interface{}) {
	data, err := json.Marshal(models.OutgoingEvent{Event: event, Data: payload})
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event, err)
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("Dropping %s event for slow client %s", event, c.socketID)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.handler.HandleDisconnect(c)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", c.socketID, err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Error("Error unmarshaling frame from %s: %v", c.socketID, err)
			continue
		}

		c.handler.HandleEvent(context.Background(), c, env)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Write error on %s: %v", c.socketID, err)
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
