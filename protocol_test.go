package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// decodePack mirrors encodePack for tests
func decodePack(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func TestDecodeJoin(t *testing.T) {
	in, err := DecodeIntent([]byte(`{"type":"join","username":"  Ana "}`))
	if err != nil {
		t.Fatal(err)
	}
	join, ok := in.(JoinIntent)
	if !ok {
		t.Fatalf("expected JoinIntent, got %T", in)
	}
	if join.Username != "Ana" {
		t.Errorf("expected trimmed username Ana, got %q", join.Username)
	}
}

func TestDecodeMovePosition(t *testing.T) {
	in, err := DecodeIntent([]byte(`{"type":"move","position":{"posx":390,"posy":-1,"dx":2,"dy":3}}`))
	if err != nil {
		t.Fatal(err)
	}
	move := in.(MoveIntent)
	if move.Position == nil || move.Direction != nil {
		t.Fatalf("expected position report only, got %+v", move)
	}
	if *move.Position != (PositionReport{PosX: 390, PosY: -1, DX: 2, DY: 3}) {
		t.Errorf("unexpected report %+v", *move.Position)
	}
}

func TestDecodeMoveDirection(t *testing.T) {
	in, err := DecodeIntent([]byte(`{"type":"move","direction":{"dx":-1,"dy":0.5}}`))
	if err != nil {
		t.Fatal(err)
	}
	move := in.(MoveIntent)
	if move.Direction == nil || *move.Direction != (DirectionInput{DX: -1, DY: 0.5}) {
		t.Errorf("unexpected direction %+v", move.Direction)
	}
}

func TestDecodeLeaveAndBounce(t *testing.T) {
	in, err := DecodeIntent([]byte(`{"type":"leave"}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := in.(LeaveIntent); !ok {
		t.Errorf("expected LeaveIntent, got %T", in)
	}

	in, err = DecodeIntent([]byte(`{"type":"bounce","bandId":3,"velocity":{"vx":4,"vy":3}}`))
	if err != nil {
		t.Fatal(err)
	}
	b := in.(BounceIntent)
	if b.BandID != 3 || b.Velocity == nil || b.Velocity.VX != 4 || b.Velocity.VY != 3 {
		t.Errorf("unexpected bounce %+v", b)
	}
}

func TestDecodeInvalid(t *testing.T) {
	cases := []string{
		``,
		`{not json`,
		`[]`,
		`{"type":"dance"}`,
		`{"type":"join"}`,
		`{"type":"join","username":"   "}`,
		`{"type":"join","username":42}`,
		`{"type":"move"}`,
		`{"type":"move","position":{"posx":"far"}}`,
		`{"type":"bounce","bandId":1}`,
	}
	for _, raw := range cases {
		if _, err := DecodeIntent([]byte(raw)); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("%q: expected ErrInvalidMessage, got %v", raw, err)
		}
	}
}

func TestErrorMsgWireShape(t *testing.T) {
	f, err := TextFrame(NewErrorMsg(ErrCodeUsernameTaken))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	if err := json.Unmarshal(f.Text, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "error" || m["message"] != "username_taken" {
		t.Errorf("unexpected error frame %s", f.Text)
	}
}

func TestStateFrameMsgpackMatchesJSON(t *testing.T) {
	state := StateMsg{
		Type: MsgState,
		Tick: 42,
		Players: []PlayerView{{
			ID: "p1", Username: "Ana",
			Position: Vec2{X: 1.5, Y: -2}, Velocity: Vec2{X: 3, Y: 4},
			Mass: 1, Radius: 10,
		}},
		Bands: []BandView{{ID: 0, SpringConstant: 2, Stretch: 2.5}},
	}
	f, err := StateFrame(state)
	if err != nil {
		t.Fatal(err)
	}
	if f.Binary == nil {
		t.Fatal("expected a msgpack rendition")
	}

	var fromJSON, fromPack StateMsg
	if err := json.Unmarshal(f.Text, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if err := decodePack(f.Binary, &fromPack); err != nil {
		t.Fatal(err)
	}
	if fromPack.Tick != 42 || fromPack.Type != MsgState {
		t.Errorf("unexpected msgpack header %+v", fromPack)
	}
	if len(fromPack.Players) != 1 || fromPack.Players[0] != fromJSON.Players[0] {
		t.Errorf("msgpack players differ: %+v vs %+v", fromPack.Players, fromJSON.Players)
	}
	if len(fromPack.Bands) != 1 || fromPack.Bands[0].Stretch != 2.5 {
		t.Errorf("unexpected msgpack bands %+v", fromPack.Bands)
	}

	// Field names match the JSON wire names
	var raw map[string]interface{}
	if err := decodePack(f.Binary, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["players"]; !ok {
		t.Errorf("msgpack keys should follow json tags, got %v", raw)
	}
}

func TestDecodeJoinNameLength(t *testing.T) {
	longest := "ÄÖÜäöüßÄÖÜäöüßÄÖ" // 16 runes, 32 bytes
	in, err := DecodeIntent([]byte(`{"type":"join","username":"` + longest + `"}`))
	if err != nil {
		t.Fatalf("16-rune name should be accepted: %v", err)
	}
	if in.(JoinIntent).Username != longest {
		t.Errorf("name altered: %q", in.(JoinIntent).Username)
	}

	// Longer names are rejected, not cut, so two of them never collide on a prefix
	for _, name := range []string{longest + "x", longest + "y"} {
		if _, err := DecodeIntent([]byte(`{"type":"join","username":"` + name + `"}`)); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("%q: expected ErrInvalidMessage, got %v", name, err)
		}
	}
}
