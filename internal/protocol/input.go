// Package protocol defines the JSON payloads exchanged with game clients.
//
// Client to server, once per client frame, a nine element array:
//
//	[[[mouseX, mouseY], [button1, button2, ...]],
//	 [w, up], [s, down], [a, left], [d, right],
//	 shift, e, f, b]
//
// Server to client, a record per visible entity (see Record). A falsy
// client payload (null, [], false, 0, "") means the client is leaving.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lightsout/server/internal/geom"
)

// ErrDisconnect is returned by DecodeInput for the falsy leave message.
var ErrDisconnect = errors.New("client disconnect")

const inputFields = 9

// KeyPair holds the two keys bound to one movement direction
// (a letter key and an arrow key).
type KeyPair [2]bool

func (k KeyPair) Any() bool { return k[0] || k[1] }

// Input is one snapshot of a client's controls.
type Input struct {
	Mouse    geom.Vec2 // cursor position relative to the player
	Buttons  []bool
	Up       KeyPair // w / up arrow: forward
	Down     KeyPair // s / down arrow: backward
	Left     KeyPair // a / left arrow: strafe left
	Right    KeyPair // d / right arrow: strafe right
	Sprint   bool    // shift
	Interact bool    // e: pick up / put down
	Weapon   bool    // f: draw / holster
	B        bool    // b: sent by clients, unbound on the server
}

// Button reports whether mouse button i (0 = primary) is pressed.
func (in Input) Button(i int) bool {
	return i >= 0 && i < len(in.Buttons) && in.Buttons[i]
}

// Clone returns a copy that shares no memory with in.
func (in Input) Clone() Input {
	out := in
	if in.Buttons != nil {
		out.Buttons = append([]bool(nil), in.Buttons...)
	}
	return out
}

func (in Input) MarshalJSON() ([]byte, error) {
	buttons := in.Buttons
	if buttons == nil {
		buttons = []bool{}
	}
	return json.Marshal([inputFields]any{
		[2]any{[2]float64{in.Mouse.X, in.Mouse.Y}, buttons},
		in.Up, in.Down, in.Left, in.Right,
		in.Sprint, in.Interact, in.Weapon, in.B,
	})
}

func (in *Input) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if len(fields) != inputFields {
		return fmt.Errorf("input: want %d fields, got %d", inputFields, len(fields))
	}

	var mouse []json.RawMessage
	if err := json.Unmarshal(fields[0], &mouse); err != nil || len(mouse) != 2 {
		return fmt.Errorf("input: malformed mouse field")
	}
	var pos []float64
	if err := json.Unmarshal(mouse[0], &pos); err != nil || len(pos) != 2 {
		return fmt.Errorf("input: malformed mouse vector")
	}
	buttons, err := decodeBools(mouse[1])
	if err != nil {
		return fmt.Errorf("input: mouse buttons: %w", err)
	}

	var out Input
	out.Mouse = geom.V(pos[0], pos[1])
	out.Buttons = buttons
	for i, dst := range []*KeyPair{&out.Up, &out.Down, &out.Left, &out.Right} {
		pair, err := decodeBools(fields[1+i])
		if err != nil || len(pair) != 2 {
			return fmt.Errorf("input: malformed key pair %d", i)
		}
		*dst = KeyPair{pair[0], pair[1]}
	}
	for i, dst := range []*bool{&out.Sprint, &out.Interact, &out.Weapon, &out.B} {
		v, err := decodeBool(fields[5+i])
		if err != nil {
			return fmt.Errorf("input: field %d: %w", 5+i, err)
		}
		*dst = v
	}
	*in = out
	return nil
}

// decodeBool accepts JSON booleans and numbers (non-zero is pressed), which
// is how key states arrive from clients that send key scan results as ints.
func decodeBool(raw json.RawMessage) (bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case nil:
		return false, nil
	}
	return false, fmt.Errorf("not a key state: %s", raw)
}

func decodeBools(raw json.RawMessage) ([]bool, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]bool, len(items))
	for i, item := range items {
		v, err := decodeBool(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// IsFalsy reports whether payload is the leave message.
func IsFalsy(payload []byte) bool {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// DecodeInput parses one client payload. It returns ErrDisconnect for the
// leave message and a wrapped decode error for anything malformed.
func DecodeInput(payload []byte) (Input, error) {
	if IsFalsy(payload) {
		return Input{}, ErrDisconnect
	}
	var in Input
	if err := json.Unmarshal(payload, &in); err != nil {
		return Input{}, err
	}
	return in, nil
}

// EncodeInput is the client-side counterpart of DecodeInput.
func EncodeInput(in Input) ([]byte, error) {
	return json.Marshal(in)
}

// LeaveMessage is the payload a client sends to disconnect.
var LeaveMessage = []byte("[]")
