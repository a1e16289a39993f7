package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgJoin   = "join"
	MsgMove   = "move"
	MsgLeave  = "leave"
	MsgBounce = "bounce" // client-detected band collision
)

// Server -> Client message types
const (
	MsgWelcome    = "welcome"
	MsgPlayerList = "playerList"
	MsgState      = "state"
	MsgEliminated = "eliminated"
	MsgError      = "error"
)

// Error codes carried by MsgError
const (
	ErrCodeUsernameTaken = "username_taken"
	ErrCodeInvalidJSON   = "invalid_json"
)

// MaxNameLen is the longest accepted username, in runes
const MaxNameLen = 16

// ErrInvalidMessage wraps every inbound decoding failure
var ErrInvalidMessage = errors.New("invalid message")

// InEnvelope peeks at the type tag; the payload fields sit beside it
type InEnvelope struct {
	Type string `json:"type"`
}

// Intent is a decoded client request. The set of implementations is closed:
// JoinIntent, MoveIntent, LeaveIntent and BounceIntent.
type Intent interface {
	isIntent()
}

type JoinIntent struct {
	Username string `json:"username"`
}

// MoveIntent carries either a full kinematic report or a direction input
type MoveIntent struct {
	Position  *PositionReport `json:"position,omitempty"`
	Direction *DirectionInput `json:"direction,omitempty"`
}

type PositionReport struct {
	PosX float64 `json:"posx"`
	PosY float64 `json:"posy"`
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
}

type DirectionInput struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type LeaveIntent struct{}

// BounceIntent reports that the sender hit band BandID at Velocity
type BounceIntent struct {
	BandID   int             `json:"bandId"`
	Velocity *BounceVelocity `json:"velocity"`
}

type BounceVelocity struct {
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

func (JoinIntent) isIntent()   {}
func (MoveIntent) isIntent()   {}
func (LeaveIntent) isIntent()  {}
func (BounceIntent) isIntent() {}

// DecodeIntent parses one inbound frame
func DecodeIntent(raw []byte) (Intent, error) {
	env, err := decodeAs[InEnvelope](raw)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case MsgJoin:
		msg, err := decodeAs[JoinIntent](raw)
		if err != nil {
			return nil, err
		}
		msg.Username = strings.TrimSpace(msg.Username)
		if msg.Username == "" {
			return nil, fmt.Errorf("%w: empty username", ErrInvalidMessage)
		}
		if utf8.RuneCountInString(msg.Username) > MaxNameLen {
			return nil, fmt.Errorf("%w: username longer than %d", ErrInvalidMessage, MaxNameLen)
		}
		return msg, nil
	case MsgMove:
		msg, err := decodeAs[MoveIntent](raw)
		if err != nil {
			return nil, err
		}
		if msg.Position == nil && msg.Direction == nil {
			return nil, fmt.Errorf("%w: move without position or direction", ErrInvalidMessage)
		}
		return msg, nil
	case MsgLeave:
		return LeaveIntent{}, nil
	case MsgBounce:
		msg, err := decodeAs[BounceIntent](raw)
		if err != nil {
			return nil, err
		}
		if msg.Velocity == nil {
			return nil, fmt.Errorf("%w: bounce without velocity", ErrInvalidMessage)
		}
		return msg, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, env.Type)
}

func decodeAs[T any](raw []byte) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("%w: empty frame", ErrInvalidMessage)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return out, nil
}

// PlayerView is the broadcast projection of a player
type PlayerView struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Mass     float64 `json:"mass"`
	Radius   float64 `json:"radius"`
}

// BandView is the broadcast projection of a band
type BandView struct {
	ID             int     `json:"id"`
	Angle          float64 `json:"angle"`
	SpringConstant float64 `json:"springConstant"`
	Stretch        float64 `json:"stretch"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	Type     string       `json:"type"`
	PlayerID string       `json:"playerId"`
	Players  []PlayerView `json:"players"`
}

// PlayerListMsg is broadcast whenever the roster changes
type PlayerListMsg struct {
	Type    string       `json:"type"`
	Players []PlayerView `json:"players"`
}

// StateMsg is the per-tick broadcast
type StateMsg struct {
	Type    string       `json:"type"`
	Tick    uint64       `json:"tick"`
	Players []PlayerView `json:"players"`
	Bands   []BandView   `json:"bands"`
}

// EliminatedMsg notifies a player they left the arena
type EliminatedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// ErrorMsg sends an error code to the offending client
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorMsg(code string) ErrorMsg {
	return ErrorMsg{Type: MsgError, Message: code}
}

// Frame is one outbound message. Binary is an optional msgpack rendition
// for clients that asked for it.
type Frame struct {
	Text   []byte
	Binary []byte
}

// TextFrame encodes msg as JSON
func TextFrame(msg interface{}) (Frame, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Text: data}, nil
}

// StateFrame encodes a state snapshot as both JSON and msgpack
func StateFrame(msg StateMsg) (Frame, error) {
	f, err := TextFrame(msg)
	if err != nil {
		return Frame{}, err
	}
	packed, err := encodePack(msg)
	if err != nil {
		return Frame{}, err
	}
	f.Binary = packed
	return f, nil
}

// encodePack uses the json tags so both encodings share field names
func encodePack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
