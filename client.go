package main

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 60
)

// outFrame is one queued websocket write
type outFrame struct {
	binary bool
	data   []byte
}

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan outFrame
	id         ConnID
	remoteAddr string
	packState  bool // state frames as msgpack binary
	limiter    *rate.Limiter
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, packState bool) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan outFrame, sendBufSize),
		remoteAddr: remoteAddr,
		packState:  packState,
		limiter:    rate.NewLimiter(rate.Limit(maxMessagesPerSec), maxMessagesPerSec),
	}
}

// ReadPump reads messages from the WebSocket connection in arrival order
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msgType := websocket.TextMessage
			if frame.binary {
				msgType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(msgType, frame.data); err != nil {
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

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.enqueue(outFrame{data: data})
}

// SendFrame queues f, picking the msgpack rendition when the client asked
// for it and one exists
func (c *Client) SendFrame(f Frame) {
	if c.packState && f.Binary != nil {
		c.enqueue(outFrame{binary: true, data: f.Binary})
		return
	}
	c.enqueue(outFrame{data: f.Text})
}

// enqueue must only be called while the client is in the hub's table, or
// from its own read pump; the hub closes send after removing it.
func (c *Client) enqueue(frame outFrame) {
	select {
	case c.send <- frame:
	default:
		// Client too slow, drop message
	}
}

func (c *Client) sendError(code string) {
	c.SendJSON(NewErrorMsg(code))
}

// handleMessage decodes one frame and dispatches the intent
func (c *Client) handleMessage(raw []byte) {
	intent, err := DecodeIntent(raw)
	if err != nil {
		log.Printf("conn %d: %v", c.id, err)
		c.sendError(ErrCodeInvalidJSON)
		return
	}

	switch in := intent.(type) {
	case JoinIntent:
		c.handleJoin(in)
	case MoveIntent:
		c.handleMove(in)
	case LeaveIntent:
		c.handleLeave()
	case BounceIntent:
		c.handleBounce(in)
	default:
		log.Printf("conn %d: unhandled intent %T", c.id, intent)
	}
}

func (c *Client) handleJoin(msg JoinIntent) {
	_, err := c.hub.arena.Join(c.id, msg.Username)
	switch {
	case err == nil:
	case errors.Is(err, ErrUsernameTaken):
		c.sendError(ErrCodeUsernameTaken)
	case errors.Is(err, ErrAlreadyJoined):
		log.Printf("conn %d: join while already joined, ignored", c.id)
	default:
		log.Printf("conn %d: join: %v", c.id, err)
	}
}

func (c *Client) handleMove(msg MoveIntent) {
	if err := c.hub.arena.Move(c.id, msg); err != nil {
		log.Printf("conn %d: move: %v", c.id, err)
		c.sendError(ErrCodeInvalidJSON)
	}
}

func (c *Client) handleLeave() {
	if !c.hub.arena.Leave(c.id) {
		log.Printf("conn %d: leave without player, ignored", c.id)
	}
}

func (c *Client) handleBounce(msg BounceIntent) {
	if err := c.hub.arena.Bounce(c.id, msg); err != nil {
		log.Printf("conn %d: bounce: %v", c.id, err)
		c.sendError(ErrCodeInvalidJSON)
	}
}
