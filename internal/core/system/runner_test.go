package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"advance", PhaseUpdate, &log})
	r.Register(recorder{"accept", PhaseInput, &log})
	r.Register(recorder{"drain", PhaseInput, &log})
	r.Register(recorder{"publish", PhaseOutput, &log})

	r.Tick(time.Second / 60)
	assert.Equal(t, []string{"accept", "drain", "advance", "publish", "cleanup"}, log)
	assert.Equal(t, 5, r.Len())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "update", PhaseUpdate.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
