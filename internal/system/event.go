package system

import (
	"time"

	"github.com/lightsout/server/internal/core/event"
	coresys "github.com/lightsout/server/internal/core/system"
	"github.com/lightsout/server/internal/metrics"
	"github.com/lightsout/server/internal/persist"
	"github.com/lightsout/server/internal/world"
	"go.uber.org/zap"
)

// EventSystem makes last tick's events readable and delivers them to the
// metrics, journal and log handlers. Phase 1 (PreUpdate).
type EventSystem struct {
	bus     *event.Bus
	world   *world.State
	journal Journal
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewEventSystem(bus *event.Bus, ws *world.State, journal Journal, m *metrics.Metrics, log *zap.Logger) *EventSystem {
	s := &EventSystem{bus: bus, world: ws, journal: journal, metrics: m, log: log}
	event.Subscribe(bus, s.onKilled)
	event.Subscribe(bus, s.onFired)
	event.Subscribe(bus, s.onHit)
	event.Subscribe(bus, func(e event.ObjectPickedUp) {
		s.log.Debug("object picked up", zap.Uint64("object", uint64(e.Object)), zap.Uint64("holder", uint64(e.Holder)))
	})
	event.Subscribe(bus, func(e event.ObjectDropped) {
		s.log.Debug("object dropped", zap.Uint64("object", uint64(e.Object)))
	})
	return s
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

func (s *EventSystem) onKilled(e event.CharacterKilled) {
	victim := "guard"
	if e.SessionID != 0 {
		victim = "player"
	}
	killerSkin := ""
	if ch, ok := s.world.Character(e.Killer); ok {
		killerSkin = ch.Skin
	}

	s.log.Info("character killed",
		zap.String("victim", e.VictimSkin),
		zap.String("killer", killerSkin),
		zap.Uint64("session", e.SessionID),
	)
	if s.metrics != nil {
		s.metrics.Kills.WithLabelValues(victim).Inc()
	}
	if s.journal != nil {
		s.journal.Record(persist.Entry{
			Kind:       persist.Kill,
			Match:      s.world.Match,
			Tick:       s.world.Tick(),
			Session:    e.SessionID,
			Skin:       e.VictimSkin,
			KillerSkin: killerSkin,
		})
	}
}

func (s *EventSystem) onFired(event.BulletFired) {
	if s.metrics != nil {
		s.metrics.BulletsFired.Inc()
	}
}

func (s *EventSystem) onHit(e event.CharacterHit) {
	s.log.Debug("character hit",
		zap.Uint64("target", uint64(e.Target)),
		zap.Int("damage", e.Damage),
		zap.Int("health", e.Health),
	)
}
