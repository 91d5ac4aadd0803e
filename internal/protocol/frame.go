package protocol

import (
	"encoding/json"
)

// NoImage is the sprite key for an entity the client has no image for.
const NoImage = "None"

// Record is the server's description of one entity for rendering.
type Record struct {
	Focus    bool       `json:"focus"`
	Image    string     `json:"image"`
	Position [2]float64 `json:"position"`
	Angle    float64    `json:"angle"`
}

// Entry is a record tagged with the entity that owns it, so that each
// session can mark its own player as the focus.
type Entry struct {
	Owner uint64
	Record
}

// Frame is the world as published at the end of one tick. Characters come
// first, then objects and bullets. A published Frame is never mutated, so
// sessions may encode it concurrently.
type Frame struct {
	Tick    uint64
	Match   string
	Entries []Entry
}

// Records returns the frame as seen by the client controlling focus.
func (f *Frame) Records(focus uint64) []Record {
	if f == nil {
		return []Record{}
	}
	out := make([]Record, len(f.Entries))
	for i, e := range f.Entries {
		out[i] = e.Record
		out[i].Focus = focus != 0 && e.Owner == focus
	}
	return out
}

// Encode renders the reply payload for the client controlling focus.
func (f *Frame) Encode(focus uint64) ([]byte, error) {
	return json.Marshal(f.Records(focus))
}

// EncodeRecord renders a single record, used for the welcome message.
func EncodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecords parses a frame reply on the client side.
func DecodeRecords(payload []byte) ([]Record, error) {
	var out []Record
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeRecord parses the welcome message on the client side.
func DecodeRecord(payload []byte) (Record, error) {
	var r Record
	err := json.Unmarshal(payload, &r)
	return r, err
}

// Focus returns the first record marked as the client's own.
func Focus(records []Record) (Record, bool) {
	for _, r := range records {
		if r.Focus {
			return r, true
		}
	}
	return Record{}, false
}
