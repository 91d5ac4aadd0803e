package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSink struct {
	mu      sync.Mutex
	batches [][]Entry
	err     error
}

func (m *memSink) WriteBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]Entry(nil), entries...))
	return m.err
}

func (m *memSink) rows() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func TestRecordDropsWhenFull(t *testing.T) {
	w := NewWriter(&memSink{}, 2, zap.NewNop())
	drops := 0
	w.OnDrop(func() { drops++ })

	assert.True(t, w.Record(Entry{Kind: Kill}))
	assert.True(t, w.Record(Entry{Kind: Kill}))
	assert.False(t, w.Record(Entry{Kind: Kill}))
	assert.Equal(t, 1, drops)
}

func TestRunFlushesInOrderOnShutdown(t *testing.T) {
	sink := &memSink{}
	w := NewWriter(sink, 16, zap.NewNop())
	w.Record(Entry{Kind: MatchStarted, Match: "m"})
	w.Record(Entry{Kind: SessionJoined, Match: "m", Session: 1})
	w.Record(Entry{Kind: Kill, Match: "m", Session: 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("writer did not stop")
	}

	rows := sink.rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []EntryKind{MatchStarted, SessionJoined, Kill},
		[]EntryKind{rows[0].Kind, rows[1].Kind, rows[2].Kind})
	assert.False(t, rows[0].At.IsZero(), "timestamp filled on record")
}

func TestRunSurvivesSinkErrors(t *testing.T) {
	sink := &memSink{err: errors.New("db down")}
	w := NewWriter(sink, 256, zap.NewNop())
	for i := 0; i < maxBatch+1; i++ {
		w.Record(Entry{Kind: Kill})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.rows()) >= maxBatch }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Len(t, sink.rows(), maxBatch+1)
}

func TestEntrySQLCoversEveryKind(t *testing.T) {
	for _, k := range []EntryKind{MatchStarted, MatchEnded, SessionJoined, SessionLeft, Kill} {
		sql, args := entrySQL(Entry{Kind: k, Match: "m"})
		assert.NotEmpty(t, sql, k.String())
		assert.Equal(t, "m", args[0], k.String())
	}
	sql, _ := entrySQL(Entry{})
	assert.Empty(t, sql)
}
