package system

import (
	"time"

	coresys "github.com/lightsout/server/internal/core/system"
	"github.com/lightsout/server/internal/persist"
)

// JournalSystem collects the rows produced during a tick and hands them
// to the background writer in one go. Phase 4 (Persist).
type JournalSystem struct {
	out     Journal
	pending []persist.Entry
}

func NewJournalSystem(out Journal) *JournalSystem {
	return &JournalSystem{out: out}
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// Record implements Journal. Rows wait for the Persist phase, stamped
// with the time they were produced.
func (s *JournalSystem) Record(e persist.Entry) bool {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.pending = append(s.pending, e)
	return true
}

func (s *JournalSystem) Update(_ time.Duration) { s.Flush() }

// Flush forwards pending rows. The writer accounts for any it drops.
func (s *JournalSystem) Flush() {
	for _, e := range s.pending {
		s.out.Record(e)
	}
	s.pending = s.pending[:0]
}
