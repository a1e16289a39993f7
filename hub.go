package main

import (
	"log"
	"sync"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub owns the table of open connections and fans frames out to them.
// It implements Fanout for the Arena.
type Hub struct {
	mu         sync.RWMutex
	clients    map[ConnID]*Client
	nextID     ConnID
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	arena      *Arena
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a Hub with its arena
func NewHub(events EventTracker) *Hub {
	h := &Hub{
		clients:    make(map[ConnID]*Client),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
		ipConns:    make(map[string]int),
	}
	h.arena = NewArena(h, events)
	return h
}

// Arena returns the hub's arena
func (h *Hub) Arena() *Arena {
	return h.arena
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register adds a client to the table and assigns its ConnID
func (h *Hub) Register(c *Client) ConnID {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c.id = h.nextID
	h.clients[c.id] = c
	return c.id
}

// Run starts the arena and processes unregister events until Stop
func (h *Hub) Run() {
	go h.arena.Run()

	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			// Connection is out of the fan-out table before its player goes
			h.arena.Disconnect(client.id)
			log.Printf("hub: conn %d from %s closed", client.id, client.remoteAddr)

		case <-h.done:
			return
		}
	}
}

// Stop halts the unregister loop and the arena
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.arena.Stop()
	})
}

// Broadcast enqueues f on every open connection except one
func (h *Hub) Broadcast(f Frame, except ConnID) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == except {
			continue
		}
		c.SendFrame(f)
	}
}

// SendTo enqueues f on one connection
func (h *Hub) SendTo(conn ConnID, f Frame) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	c.SendFrame(f)
	return true
}

// ConnState reports the protocol state of conn
func (h *Hub) ConnState(conn ConnID) ConnState {
	h.mu.RLock()
	_, open := h.clients[conn]
	h.mu.RUnlock()
	if !open {
		return StateClosed
	}
	return h.arena.State(conn)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
