package system

import (
	"time"

	coresys "github.com/lightsout/server/internal/core/system"
	"github.com/lightsout/server/internal/metrics"
	"github.com/lightsout/server/internal/protocol"
	"github.com/lightsout/server/internal/world"
)

// Publisher receives the frame sessions reply with until the next tick.
type Publisher interface {
	Publish(f *protocol.Frame)
}

// OutputSystem snapshots the world after the update and publishes it.
// Phase 3 (Output).
type OutputSystem struct {
	world   *world.State
	pub     Publisher
	metrics *metrics.Metrics
}

func NewOutputSystem(ws *world.State, pub Publisher, m *metrics.Metrics) *OutputSystem {
	return &OutputSystem{world: ws, pub: pub, metrics: m}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.pub.Publish(s.world.Snapshot())

	if s.metrics == nil {
		return
	}
	c := s.world.Counts()
	s.metrics.Entities.WithLabelValues("player").Set(float64(c.Players))
	s.metrics.Entities.WithLabelValues("guard").Set(float64(c.Guards))
	s.metrics.Entities.WithLabelValues("object").Set(float64(c.Objects))
	s.metrics.Entities.WithLabelValues("bullet").Set(float64(c.Bullets))
	s.metrics.Entities.WithLabelValues("obstacle").Set(float64(c.Obstacles))
}
