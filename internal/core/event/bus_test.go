package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []BulletFired
	Subscribe(b, func(e BulletFired) { got = append(got, e) })

	Emit(b, BulletFired{Shooter: 1, Bullet: 2})
	assert.Equal(t, 0, b.DispatchAll(), "not visible before swap")

	b.SwapBuffers()
	assert.Equal(t, 1, b.DispatchAll())
	assert.Equal(t, []BulletFired{{Shooter: 1, Bullet: 2}}, got)

	b.SwapBuffers()
	assert.Equal(t, 0, b.DispatchAll(), "front buffer is cleared on the next swap")
}

func TestBusRoutesByType(t *testing.T) {
	b := NewBus()
	var joined, left int
	Subscribe(b, func(PlayerJoined) { joined++ })
	Subscribe(b, func(PlayerLeft) { left++ })

	Emit(b, PlayerJoined{SessionID: 1})
	Emit(b, PlayerJoined{SessionID: 2})
	Emit(b, PlayerLeft{SessionID: 1})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, 2, joined)
	assert.Equal(t, 1, left)
}

func TestEmitOnNilBus(t *testing.T) {
	assert.NotPanics(t, func() { Emit[PlayerLeft](nil, PlayerLeft{}) })
}
