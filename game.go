package main

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	TickRate     = 30 // simulation ticks per second
	TickDuration = time.Second / TickRate
)

// ConnState is the protocol state of one connection
type ConnState int

const (
	StateConnected ConnState = iota // open, no player record
	StateJoined
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("ConnState(%d)", int(s))
}

// Fanout delivers frames to open connections without blocking
type Fanout interface {
	// Broadcast sends f to every open connection except one
	Broadcast(f Frame, except ConnID)
	// SendTo sends f to a single connection; false if it is gone
	SendTo(conn ConnID, f Frame) bool
}

// EventTracker records gameplay events
type EventTracker interface {
	Track(evtType, playerID, username, data string)
}

// Arena owns the player registry and the bands. Every mutation and every
// tick runs under mu, and frames are handed to the fanout before mu is
// released so each connection sees updates in production order.
type Arena struct {
	mu       sync.RWMutex
	players  *Registry
	bands    []*Band
	out      Fanout
	events   EventTracker
	tick     uint64
	stop     chan struct{}
	stopOnce sync.Once
}

// NewArena creates an empty arena with the default rim bands
func NewArena(out Fanout, events EventTracker) *Arena {
	return &Arena{
		players: NewRegistry(),
		bands:   DefaultBands(DefaultBandCount),
		out:     out,
		events:  events,
		stop:    make(chan struct{}),
	}
}

// Run starts the tick loop
func (a *Arena) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.step()
		case <-a.stop:
			return
		}
	}
}

// Stop terminates the tick loop
func (a *Arena) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Greet sends the current roster to a freshly opened connection
func (a *Arena) Greet(conn ConnID) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	a.sendTo(conn, PlayerListMsg{Type: MsgPlayerList, Players: a.players.Snapshot()})
}

// Join creates a player for conn, welcomes it and tells everyone else
func (a *Arena) Join(conn ConnID, username string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := a.players.Join(username, conn)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			a.track(EvtJoinRejected, "", username, "")
		}
		return "", err
	}
	log.Printf("arena: %s joined as %s", username, p.ID)
	a.track(EvtPlayerJoin, p.ID, p.Username, "")

	roster := a.players.Snapshot()
	a.sendTo(conn, WelcomeMsg{Type: MsgWelcome, PlayerID: p.ID, Players: roster})
	a.broadcast(PlayerListMsg{Type: MsgPlayerList, Players: roster}, conn)
	return p.ID, nil
}

// Move applies a move intent from conn and pushes the roster immediately.
// An unknown sender is logged and ignored.
func (a *Arena) Move(conn ConnID, m MoveIntent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.players.ByConn(conn)
	if !ok {
		log.Printf("arena: move from conn %d with no player, ignored", conn)
		return nil
	}

	var next Kinematics
	var err error
	if m.Position != nil {
		next, err = ApplyReport(
			Vec2{X: m.Position.PosX, Y: m.Position.PosY},
			Vec2{X: m.Position.DX, Y: m.Position.DY},
		)
	} else {
		next, err = ApplyDirection(p.Kinematics(), Vec2{X: m.Direction.DX, Y: m.Direction.DY})
	}
	if err != nil {
		return err
	}
	if !a.players.UpdateKinematics(p.ID, next) {
		return nil
	}
	a.broadcast(PlayerListMsg{Type: MsgPlayerList, Players: a.players.Snapshot()}, noConn)
	return nil
}

// Bounce applies a reported band collision to the sender's player
func (a *Arena) Bounce(conn ConnID, b BounceIntent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.players.ByConn(conn)
	if !ok {
		log.Printf("arena: bounce from conn %d with no player, ignored", conn)
		return nil
	}
	band := a.band(b.BandID)
	if band == nil {
		log.Printf("arena: bounce from %s against unknown band %d, ignored", p.ID, b.BandID)
		return nil
	}

	next, stretch, err := ApplyBounce(p.Kinematics(), Vec2{X: b.Velocity.VX, Y: b.Velocity.VY}, band.SpringConstant)
	if err != nil {
		return err
	}
	if !a.players.UpdateKinematics(p.ID, next) {
		return nil
	}
	band.Stretch = stretch
	a.track(EvtBandBounce, p.ID, p.Username, fmt.Sprintf(`{"band":%d,"stretch":%g}`, band.ID, stretch))
	return nil
}

// Leave removes the player owned by conn. It reports whether a record was
// removed; repeated calls are no-ops.
func (a *Arena) Leave(conn ConnID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remove(conn)
}

// Disconnect is Leave for a connection that has closed
func (a *Arena) Disconnect(conn ConnID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.remove(conn) {
		log.Printf("arena: conn %d closed while joined", conn)
	}
}

func (a *Arena) remove(conn ConnID) bool {
	p, ok := a.players.Remove(conn)
	if !ok {
		return false
	}
	log.Printf("arena: %s (%s) left", p.Username, p.ID)
	a.track(EvtPlayerLeave, p.ID, p.Username, "")
	a.broadcast(PlayerListMsg{Type: MsgPlayerList, Players: a.players.Snapshot()}, noConn)
	return true
}

// State returns the protocol state of conn as far as the arena knows
func (a *Arena) State(conn ConnID) ConnState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.players.ByConn(conn); ok {
		return StateJoined
	}
	return StateConnected
}

// PlayerCount returns the number of live players
func (a *Arena) PlayerCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.players.Len()
}

// Tick returns the number of completed ticks
func (a *Arena) Tick() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tick
}

// step runs one tick: eliminate everyone outside the rim, then broadcast
func (a *Arena) step() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tick++

	// Judge every player on start-of-tick positions before removing any
	var out []*Player
	for _, p := range a.players.Players() {
		if OutsideArena(p.Position) {
			out = append(out, p)
		}
	}
	for _, p := range out {
		a.players.Remove(p.Conn)
		log.Printf("arena: eliminated %s (%s) at distance %.1f", p.Username, p.ID, p.DistanceFromCenter())
		a.track(EvtPlayerEliminated, p.ID, p.Username, fmt.Sprintf(`{"distance":%g}`, p.DistanceFromCenter()))
		a.sendTo(p.Conn, EliminatedMsg{Type: MsgEliminated, PlayerID: p.ID})
	}

	roster := a.players.Snapshot()
	if len(out) > 0 {
		a.broadcast(PlayerListMsg{Type: MsgPlayerList, Players: roster}, noConn)
	}
	a.broadcastState(roster)
}

func (a *Arena) broadcastState(roster []PlayerView) {
	state := StateMsg{
		Type:    MsgState,
		Tick:    a.tick,
		Players: roster,
		Bands:   make([]BandView, 0, len(a.bands)),
	}
	for _, b := range a.bands {
		state.Bands = append(state.Bands, b.ToView())
	}

	f, err := StateFrame(state)
	if err != nil {
		log.Printf("arena: encode state: %v", err)
		return
	}
	a.out.Broadcast(f, noConn)
}

func (a *Arena) broadcast(msg interface{}, except ConnID) {
	f, err := TextFrame(msg)
	if err != nil {
		log.Printf("arena: encode: %v", err)
		return
	}
	a.out.Broadcast(f, except)
}

func (a *Arena) sendTo(conn ConnID, msg interface{}) {
	f, err := TextFrame(msg)
	if err != nil {
		log.Printf("arena: encode: %v", err)
		return
	}
	a.out.SendTo(conn, f)
}

func (a *Arena) band(id int) *Band {
	for _, b := range a.bands {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (a *Arena) track(evtType, playerID, username, data string) {
	if a.events != nil {
		a.events.Track(evtType, playerID, username, data)
	}
}
