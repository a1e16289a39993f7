package main

import (
	"errors"
	"sort"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrAlreadyJoined = errors.New("connection already joined")
)

// Registry maps connections to player records. It is not safe for
// concurrent use; the Arena serializes access.
type Registry struct {
	byConn map[ConnID]*Player
	byID   map[string]*Player
	byName map[string]*Player // folded username -> player
	newID  func() string
}

// NewRegistry creates an empty registry that assigns UUIDv7 player IDs
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[ConnID]*Player),
		byID:   make(map[string]*Player),
		byName: make(map[string]*Player),
		newID:  NewPlayerID,
	}
}

// Join creates a player for conn. Usernames are compared case-insensitively.
func (r *Registry) Join(username string, conn ConnID) (*Player, error) {
	if _, ok := r.byConn[conn]; ok {
		return nil, ErrAlreadyJoined
	}
	key := FoldName(username)
	if _, ok := r.byName[key]; ok {
		return nil, ErrUsernameTaken
	}

	id := r.newID()
	for r.byID[id] != nil {
		id = r.newID()
	}
	p := NewPlayer(id, username, conn)
	r.byConn[conn] = p
	r.byID[id] = p
	r.byName[key] = p
	return p, nil
}

// Remove deletes the player owned by conn. Removing an absent connection
// is a no-op.
func (r *Registry) Remove(conn ConnID) (*Player, bool) {
	p, ok := r.byConn[conn]
	if !ok {
		return nil, false
	}
	delete(r.byConn, conn)
	delete(r.byID, p.ID)
	delete(r.byName, FoldName(p.Username))
	return p, true
}

func (r *Registry) ByConn(conn ConnID) (*Player, bool) {
	p, ok := r.byConn[conn]
	return p, ok
}

func (r *Registry) ByID(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// UpdateKinematics overwrites position and velocity of player id. Every
// kinematic write goes through here.
func (r *Registry) UpdateKinematics(id string, k Kinematics) bool {
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	p.SetKinematics(k)
	return true
}

// Len returns the number of live players
func (r *Registry) Len() int {
	return len(r.byConn)
}

// Players returns the live records ordered by ID
func (r *Registry) Players() []*Player {
	list := make([]*Player, 0, len(r.byID))
	for _, p := range r.byID {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Snapshot returns a read-only projection of every live player
func (r *Registry) Snapshot() []PlayerView {
	players := r.Players()
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, p.ToView())
	}
	return views
}
