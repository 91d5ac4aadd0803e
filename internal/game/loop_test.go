package game

import (
	"context"
	stdnet "net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightsout/server/internal/client"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/geom"
	"github.com/lightsout/server/internal/metrics"
	"github.com/lightsout/server/internal/net"
	"github.com/lightsout/server/internal/persist"
	"github.com/lightsout/server/internal/protocol"
	"github.com/lightsout/server/internal/world"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTick = 5 * time.Millisecond

type harness struct {
	addr    string
	loop    *Loop
	metrics *metrics.Metrics
	journal *memJournal
}

type memJournal struct {
	mu   sync.Mutex
	rows []persist.Entry
}

func (j *memJournal) Record(e persist.Entry) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, e)
	return true
}

func (j *memJournal) kinds() []persist.EntryKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]persist.EntryKind, len(j.rows))
	for i, r := range j.rows {
		out[i] = r.Kind
	}
	return out
}

func start(t *testing.T, level *data.Map, combat world.Combat) *harness {
	t.Helper()
	frames := NewFrameBuffer()
	srv, err := net.NewServer("127.0.0.1:0", frames, net.Options{}, zap.NewNop())
	require.NoError(t, err)

	h := &harness{addr: srv.Addr().String(), metrics: metrics.New(), journal: &memJournal{}}
	h.loop, err = NewLoop(level, srv, frames, Options{
		TickRate:            testTick,
		MaxInputsPerTick:    4,
		DespawnOnDisconnect: true,
		Tuning:              world.DefaultTuning(),
		Combat:              combat,
		Journal:             h.journal,
		Metrics:             h.metrics,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); srv.Serve(ctx) }()
	go func() { defer wg.Done(); h.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return h
}

func dial(t *testing.T, addr string) *client.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	return c
}

func idle() protocol.Input {
	return protocol.Input{Buttons: []bool{false, false, false}}
}

func emptyLevel() *data.Map {
	return &data.Map{Name: "test", Width: 1000, Height: 1000, Spawn: geom.V(200, 200)}
}

func TestDisconnectLeavesOtherSessionUndisturbed(t *testing.T) {
	h := start(t, emptyLevel(), nil)

	a := dial(t, h.addr)
	b := dial(t, h.addr)
	assert.True(t, a.Welcome.Focus)
	assert.True(t, b.Welcome.Focus)

	// Both players show up in B's frames.
	require.Eventually(t, func() bool {
		recs, err := b.Send(idle())
		if err != nil {
			return false
		}
		return len(recs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())

	// A's player is despawned; B keeps getting frames with itself in focus.
	require.Eventually(t, func() bool {
		recs, err := b.Send(idle())
		if err != nil {
			return false
		}
		_, focused := protocol.Focus(recs)
		return len(recs) == 1 && focused
	}, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 20; i++ {
		recs, err := b.Send(idle())
		require.NoError(t, err)
		require.Len(t, recs, 1)
	}
	b.Close()

	assert.Eventually(t, func() bool {
		n := 0
		for _, k := range h.journal.kinds() {
			if k == persist.SessionLeft {
				n++
			}
		}
		return n == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLeaveClosesConnection(t *testing.T) {
	h := start(t, emptyLevel(), nil)
	a := dial(t, h.addr)

	_, err := a.Send(idle())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// A fresh connection still works.
	c := dial(t, h.addr)
	defer c.Close()
	_, err = c.Send(idle())
	assert.NoError(t, err)
}

// panicOnce panics the first time a bullet lands.
type panicOnce struct {
	fired atomic.Bool
}

func (p *panicOnce) BulletDamage(_, _ string, _, base int) int {
	if p.fired.CompareAndSwap(false, true) {
		panic("combat formula exploded")
	}
	return base
}

func TestPanicStartsNewMatchAndRebindsSessions(t *testing.T) {
	level := emptyLevel()
	// A guard parked next to the spawn shoots the player right away.
	level.Guards = [][]geom.Vec2{{geom.V(300, 200)}}
	combat := &panicOnce{}
	h := start(t, level, combat)

	c := dial(t, h.addr)
	defer c.Close()

	require.Eventually(t, func() bool {
		if _, err := c.Send(idle()); err != nil {
			return false
		}
		return combat.fired.Load()
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Restarts) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The session survives and is bound to a player in the new world.
	require.Eventually(t, func() bool {
		recs, err := c.Send(idle())
		if err != nil {
			return false
		}
		_, focused := protocol.Focus(recs)
		return focused
	}, 2*time.Second, 10*time.Millisecond)

	h.journal.mu.Lock()
	defer h.journal.mu.Unlock()
	var ended, started []string
	for _, r := range h.journal.rows {
		switch r.Kind {
		case persist.MatchEnded:
			ended = append(ended, r.Match)
		case persist.MatchStarted:
			started = append(started, r.Match)
		}
	}
	require.NotEmpty(t, ended)
	require.GreaterOrEqual(t, len(started), 2)
	assert.Equal(t, started[0], ended[0])
	assert.NotEqual(t, ended[0], started[len(started)-1], "new match gets a new id")
}

// brokenSource panics in the Input phase once armed.
type brokenSource struct {
	armed bool
	newCh chan *net.Session
}

func (b *brokenSource) NewSessions() <-chan *net.Session {
	if b.armed {
		panic("session source broke")
	}
	return b.newCh
}

func (b *brokenSource) DeadSessions() <-chan uint64 { return nil }

func TestRestartKeepsRowsPendingInTheFailedMatch(t *testing.T) {
	src := &brokenSource{newCh: make(chan *net.Session)}
	journal := &memJournal{}
	l, err := NewLoop(emptyLevel(), src, NewFrameBuffer(), Options{
		TickRate: testTick,
		Tuning:   world.DefaultTuning(),
		Journal:  journal,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, l.tick())

	first := l.Match()
	l.match.journal.Record(persist.Entry{Kind: persist.Kill, Match: first, Skin: "manBlue"})
	src.armed = true
	err = l.tick()
	require.Error(t, err)
	src.armed = false
	require.NoError(t, l.restart(err.Error()))

	assert.Equal(t, []persist.EntryKind{
		persist.MatchStarted, persist.Kill, persist.MatchEnded, persist.MatchStarted,
	}, journal.kinds())
	assert.NotEqual(t, first, l.Match())
}

func TestHangupEndsOnlyThatClient(t *testing.T) {
	h := start(t, emptyLevel(), nil)
	b := dial(t, h.addr)
	defer b.Close()

	// Connect, take the welcome, hang up without the leave message.
	conn, err := stdnet.Dial("tcp", h.addr)
	require.NoError(t, err)
	_, err = net.ReadFrame(conn, 0)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		recs, err := b.Send(idle())
		if err != nil {
			return false
		}
		return len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewLoopRejectsZeroTick(t *testing.T) {
	_, err := NewLoop(emptyLevel(), nil, NewFrameBuffer(), Options{}, zap.NewNop())
	assert.Error(t, err)
}
