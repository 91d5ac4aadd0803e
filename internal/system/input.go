package system

import (
	"time"

	"github.com/lightsout/server/internal/core/ecs"
	coresys "github.com/lightsout/server/internal/core/system"
	"github.com/lightsout/server/internal/metrics"
	"github.com/lightsout/server/internal/net"
	"github.com/lightsout/server/internal/persist"
	"github.com/lightsout/server/internal/protocol"
	"github.com/lightsout/server/internal/world"
	"go.uber.org/zap"
)

// SessionSource is the accept side of the network server.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
}

// Journal receives match rows. *persist.Writer implements it.
type Journal interface {
	Record(e persist.Entry) bool
}

// InputSystem binds new sessions to players, retires dead ones and drains
// each session's input queue into the world. Phase 0 (Input).
type InputSystem struct {
	sessions   SessionSource
	store      *net.SessionStore
	world      *world.State
	maxPerTick int
	despawn    bool
	journal    Journal
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewInputSystem(
	sessions SessionSource,
	store *net.SessionStore,
	ws *world.State,
	maxPerTick int,
	despawnOnDisconnect bool,
	journal Journal,
	m *metrics.Metrics,
	log *zap.Logger,
) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 8
	}
	return &InputSystem{
		sessions:   sessions,
		store:      store,
		world:      ws,
		maxPerTick: maxPerTick,
		despawn:    despawnOnDisconnect,
		journal:    journal,
		metrics:    m,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.sessions.NewSessions():
			if sess.IsClosed() {
				continue
			}
			s.store.Add(sess)
			s.join(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.sessions.DeadSessions():
			if sess := s.store.Get(id); sess != nil {
				s.leave(sess)
			}
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain inputs from each session (up to maxPerTick per session).
	// Only the last one matters: inputs are full snapshots.
	applied := 0
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			s.leave(sess)
			return
		}
		player, alive := s.world.PlayerBySession(sess.ID)
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case in := <-sess.InQueue:
				if alive && s.world.ApplyInput(player, in) {
					applied++
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	})

	if s.metrics != nil {
		s.metrics.InputsApplied.Add(float64(applied))
		s.metrics.Sessions.Set(float64(s.store.Len()))
	}
}

// Bind spawns a player for the session in the current world and attaches
// it. welcome is false when rebinding after a world rebuild: the client
// only ever receives one welcome record. A welcome that cannot be encoded
// closes the session rather than leaving the client waiting for it.
func Bind(ws *world.State, sess *net.Session, welcome bool, log *zap.Logger) ecs.EntityID {
	id := ws.SpawnPlayer(sess.ID)
	var data []byte
	if welcome {
		if rec, ok := ws.Welcome(id); ok {
			var err error
			if data, err = protocol.EncodeRecord(rec); err != nil {
				log.Error("encode welcome, closing",
					zap.Uint64("session", sess.ID),
					zap.Uint64("entity", uint64(id)),
					zap.Error(err),
				)
				sess.Close()
				return id
			}
		}
	}
	sess.Bind(ws.Match, uint64(id), data)
	return id
}

func (s *InputSystem) join(sess *net.Session) {
	id := Bind(s.world, sess, true, s.log)
	skin := ""
	if ch, ok := s.world.Character(id); ok {
		skin = ch.Skin
	}
	s.log.Info("player spawned",
		zap.Uint64("session", sess.ID),
		zap.Uint64("entity", uint64(id)),
		zap.String("skin", skin),
	)
	s.record(persist.Entry{
		Kind:       persist.SessionJoined,
		Match:      s.world.Match,
		Session:    sess.ID,
		RemoteAddr: sess.IP,
		Skin:       skin,
	})
}

func (s *InputSystem) leave(sess *net.Session) {
	s.store.Remove(sess.ID)
	sess.Close()

	if id, ok := s.world.PlayerBySession(sess.ID); ok {
		if s.despawn {
			s.world.DespawnPlayer(id)
		} else {
			s.world.ClearInput(id)
		}
	}
	s.log.Info("session closed", zap.Uint64("session", sess.ID), zap.Bool("despawned", s.despawn))
	s.record(persist.Entry{
		Kind:    persist.SessionLeft,
		Match:   s.world.Match,
		Session: sess.ID,
	})
}

func (s *InputSystem) record(e persist.Entry) {
	if s.journal != nil {
		s.journal.Record(e)
	}
}
