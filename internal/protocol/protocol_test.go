package protocol

import (
	"encoding/json"
	"testing"

	"github.com/lightsout/server/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputRoundTrip(t *testing.T) {
	in := Input{
		Mouse:    geom.V(12.5, -40),
		Buttons:  []bool{true, false, true},
		Up:       KeyPair{true, false},
		Down:     KeyPair{false, false},
		Left:     KeyPair{false, true},
		Right:    KeyPair{true, true},
		Sprint:   true,
		Interact: false,
		Weapon:   true,
		B:        true,
	}
	payload, err := EncodeInput(in)
	require.NoError(t, err)

	out, err := DecodeInput(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestInputWireShape(t *testing.T) {
	payload, err := EncodeInput(Input{
		Mouse:   geom.V(1, 2),
		Buttons: []bool{false, false, false},
		Up:      KeyPair{true, false},
		Sprint:  true,
	})
	require.NoError(t, err)

	var raw []any
	require.NoError(t, json.Unmarshal(payload, &raw))
	require.Len(t, raw, 9)
	mouse := raw[0].([]any)
	require.Len(t, mouse, 2)
	assert.Equal(t, []any{1.0, 2.0}, mouse[0])
	assert.Equal(t, []any{false, false, false}, mouse[1])
	assert.Equal(t, []any{true, false}, raw[1])
	assert.Equal(t, true, raw[5])
	assert.Equal(t, false, raw[8])
}

func TestDecodeInputAcceptsIntegerKeys(t *testing.T) {
	payload := []byte(`[[[3, 4], [1, 0, 0]], [0, 1], [0, 0], [0, 0], [0, 0], 1, 0, 0, 0]`)
	in, err := DecodeInput(payload)
	require.NoError(t, err)
	assert.True(t, in.Up.Any())
	assert.True(t, in.Button(0))
	assert.False(t, in.Button(1))
	assert.False(t, in.Button(7))
	assert.True(t, in.Sprint)
	assert.Equal(t, geom.V(3, 4), in.Mouse)
}

func TestDecodeInputFalsyIsDisconnect(t *testing.T) {
	for _, p := range []string{"", "  ", "null", "[]", "false", "0", `""`, "{}"} {
		_, err := DecodeInput([]byte(p))
		assert.ErrorIs(t, err, ErrDisconnect, "payload %q", p)
	}
	assert.True(t, IsFalsy(LeaveMessage))
}

func TestDecodeInputMalformed(t *testing.T) {
	for _, p := range []string{
		"{not json",
		"[1, 2, 3]",
		`[[[1], []], [0,0], [0,0], [0,0], [0,0], 0, 0, 0, 0]`,
		`[[[1, 2], []], [0], [0,0], [0,0], [0,0], 0, 0, 0, 0]`,
		`[[[1, 2], []], [0,0], [0,0], [0,0], [0,0], "x", 0, 0, 0]`,
		`"hello"`,
	} {
		_, err := DecodeInput([]byte(p))
		require.Error(t, err, "payload %q", p)
		assert.NotErrorIs(t, err, ErrDisconnect)
	}
}

func TestFrameFocus(t *testing.T) {
	f := &Frame{Entries: []Entry{
		{Owner: 7, Record: Record{Image: "manBlue_stand", Position: [2]float64{1, 2}}},
		{Owner: 9, Record: Record{Image: "hitman1_gun"}},
		{Owner: 11, Record: Record{Image: "bullet", Angle: 45}},
	}}

	recs := f.Records(9)
	require.Len(t, recs, 3)
	assert.False(t, recs[0].Focus)
	assert.True(t, recs[1].Focus)
	assert.False(t, recs[2].Focus)
	assert.False(t, f.Entries[1].Focus, "published frame is not mutated")

	payload, err := f.Encode(7)
	require.NoError(t, err)
	decoded, err := DecodeRecords(payload)
	require.NoError(t, err)
	me, ok := Focus(decoded)
	require.True(t, ok)
	assert.Equal(t, "manBlue_stand", me.Image)
	assert.Equal(t, [2]float64{1, 2}, me.Position)

	none := f.Records(0)
	_, ok = Focus(none)
	assert.False(t, ok)
}

func TestRecordJSONKeys(t *testing.T) {
	payload, err := EncodeRecord(Record{Focus: true, Image: NoImage, Position: [2]float64{3, 4}, Angle: 90})
	require.NoError(t, err)
	assert.JSONEq(t, `{"focus":true,"image":"None","position":[3,4],"angle":90}`, string(payload))
}

func TestNilFrameEncodesEmptyList(t *testing.T) {
	var f *Frame
	payload, err := f.Encode(1)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}
