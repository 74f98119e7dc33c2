package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shannu2342/wholexale-backend/pkg/config"
)

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	handler *Handler
	userID  uuid.UUID
	send    chan []byte
	cfg     config.RealtimeConfig
}

// NewClient registers a fresh connection with the hub and returns it ready
// for Serve.
func NewClient(hub *Hub, handler *Handler, conn *websocket.Conn, userID uuid.UUID, cfg config.RealtimeConfig) *Client {
	client := &Client{
		hub:     hub,
		conn:    conn,
		handler: handler,
		userID:  userID,
		send:    make(chan []byte, cfg.SendBufferSize),
		cfg:     cfg,
	}
	hub.register(client)
	return client
}

// Serve runs the read and write pumps until the connection dies or the
// context is canceled.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	go c.writePump(ctx, cancel)
	c.readPump(ctx, cancel)
}

func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		cancel()
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.sendError("VALIDATION_ERROR", "malformed frame")
			continue
		}
		c.handler.HandleFrame(ctx, c, frame)
	}
}

func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		cancel()
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// reply queues a frame on this connection only.
func (c *Client) reply(frame Frame) {
	encoded, err := frame.Encode()
	if err != nil {
		return
	}
	select {
	case c.send <- encoded:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	frame, err := NewFrame(EventError, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	c.reply(frame)
}
