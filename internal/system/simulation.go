package system

import (
	"time"

	coresys "github.com/lightsout/server/internal/core/system"
	"github.com/lightsout/server/internal/world"
)

// SimulationSystem advances the world by one fixed step. Phase 2 (Update).
type SimulationSystem struct {
	world *world.State
}

func NewSimulationSystem(ws *world.State) *SimulationSystem {
	return &SimulationSystem{world: ws}
}

func (s *SimulationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulationSystem) Update(dt time.Duration) {
	s.world.Advance(dt)
}
