package game

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/lightsout/server/internal/core/event"
	coresys "github.com/lightsout/server/internal/core/system"
	"github.com/lightsout/server/internal/data"
	"github.com/lightsout/server/internal/metrics"
	"github.com/lightsout/server/internal/net"
	"github.com/lightsout/server/internal/persist"
	"github.com/lightsout/server/internal/protocol"
	"github.com/lightsout/server/internal/system"
	"github.com/lightsout/server/internal/world"
	"go.uber.org/zap"
)

// FrameBuffer holds the most recently published frame. Sessions read it
// from their own goroutines; only the game loop writes it.
type FrameBuffer struct {
	cur atomic.Pointer[protocol.Frame]
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Frame returns the latest frame, or nil before the first tick.
func (b *FrameBuffer) Frame() *protocol.Frame { return b.cur.Load() }

func (b *FrameBuffer) Publish(f *protocol.Frame) { b.cur.Store(f) }

// Options configures the loop. Journal and Metrics may be nil.
type Options struct {
	TickRate            time.Duration
	MaxInputsPerTick    int
	DespawnOnDisconnect bool
	Tuning              world.Tuning
	Combat              world.Combat
	Journal             system.Journal
	Metrics             *metrics.Metrics
}

// Loop runs the fixed-step simulation. Each world instance is a match;
// a tick that panics ends the match and a fresh one takes over with every
// connected session respawned.
type Loop struct {
	opts     Options
	level    *data.Map
	sessions system.SessionSource
	store    *net.SessionStore
	frames   *FrameBuffer
	log      *zap.Logger

	match *match
}

type match struct {
	world   *world.State
	runner  *coresys.Runner
	journal *system.JournalSystem // nil without a journal
}

func NewLoop(level *data.Map, sessions system.SessionSource, frames *FrameBuffer, opts Options, log *zap.Logger) (*Loop, error) {
	if opts.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive")
	}
	l := &Loop{
		opts:     opts,
		level:    level,
		sessions: sessions,
		store:    net.NewSessionStore(),
		frames:   frames,
		log:      log,
	}
	m, err := l.newMatch()
	if err != nil {
		return nil, err
	}
	l.match = m
	frames.Publish(m.world.Snapshot())
	return l, nil
}

// Match returns the current match id. Game loop goroutine only.
func (l *Loop) Match() string { return l.match.world.Match }

// Sessions returns the live session store. Game loop goroutine only.
func (l *Loop) Sessions() *net.SessionStore { return l.store }

func (l *Loop) newMatch() (*match, error) {
	bus := event.NewBus()
	ws, err := world.New(l.level, world.Options{
		Tuning: l.opts.Tuning,
		Bus:    bus,
		Combat: l.opts.Combat,
	})
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	var journal system.Journal
	var journalSys *system.JournalSystem
	if l.opts.Journal != nil {
		journalSys = system.NewJournalSystem(l.opts.Journal)
		journal = journalSys
		l.opts.Journal.Record(persist.Entry{
			Kind:    persist.MatchStarted,
			Match:   ws.Match,
			MapName: l.level.Name,
		})
	}

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(l.sessions, l.store, ws,
		l.opts.MaxInputsPerTick, l.opts.DespawnOnDisconnect, journal, l.opts.Metrics, l.log))
	runner.Register(system.NewEventSystem(bus, ws, journal, l.opts.Metrics, l.log))
	runner.Register(system.NewSimulationSystem(ws))
	runner.Register(system.NewOutputSystem(ws, l.frames, l.opts.Metrics))
	if journalSys != nil {
		runner.Register(journalSys)
	}
	runner.Register(system.NewCleanupSystem(ws))

	c := ws.Counts()
	l.log.Info("match started",
		zap.String("match", ws.Match),
		zap.String("map", l.level.Name),
		zap.Int("guards", c.Guards),
		zap.Int("objects", c.Objects),
		zap.Int("obstacles", c.Obstacles),
	)
	return &match{world: ws, runner: runner, journal: journalSys}, nil
}

// Run ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.tick(); err != nil {
				l.log.Error("tick failed, starting a new match", zap.String("match", l.Match()), zap.Error(err))
				if err := l.restart(err.Error()); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			l.endMatch("shutdown")
			l.store.ForEach(func(sess *net.Session) { sess.Close() })
			return nil
		}
	}
}

func (l *Loop) tick() (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			l.log.Error("tick panicked", zap.ByteString("stack", debug.Stack()))
		}
	}()

	l.match.runner.Tick(l.opts.TickRate)

	if l.opts.Metrics != nil {
		l.opts.Metrics.TickDuration.Observe(time.Since(start).Seconds())
		l.opts.Metrics.Ticks.Inc()
	}
	return nil
}

// restart replaces the world and rebinds every connected session to a new
// player. Accepting connections is unaffected.
func (l *Loop) restart(reason string) error {
	l.endMatch(reason)
	m, err := l.newMatch()
	if err != nil {
		return err
	}
	l.match = m
	if l.opts.Metrics != nil {
		l.opts.Metrics.Restarts.Inc()
	}

	// Readers keep replying from the old match's frame until the publish
	// below; sessions only mark focus in frames of the match they are bound to.
	l.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			l.store.Remove(sess.ID)
			return
		}
		id := system.Bind(m.world, sess, false, l.log)
		if l.opts.Journal != nil {
			skin := ""
			if ch, ok := m.world.Character(id); ok {
				skin = ch.Skin
			}
			l.opts.Journal.Record(persist.Entry{
				Kind:       persist.SessionJoined,
				Match:      m.world.Match,
				Session:    sess.ID,
				RemoteAddr: sess.IP,
				Skin:       skin,
			})
		}
	})
	l.frames.Publish(m.world.Snapshot())
	return nil
}

// endMatch hands over the rows the match produced since its last Persist
// phase, then closes it in the journal.
func (l *Loop) endMatch(reason string) {
	if l.match.journal != nil {
		l.match.journal.Flush()
	}
	l.log.Info("match ended", zap.String("match", l.Match()), zap.String("reason", reason))
	if l.opts.Journal != nil {
		l.opts.Journal.Record(persist.Entry{
			Kind:   persist.MatchEnded,
			Match:  l.Match(),
			Reason: reason,
		})
	}
}
