package persist

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BatchWriter is the storage side of the journal. JournalRepo implements it.
type BatchWriter interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

const (
	maxBatch      = 64
	flushInterval = time.Second
	writeTimeout  = 5 * time.Second
)

// Writer hands journal rows from the game loop to a background goroutine.
// Record never blocks: rows are dropped when the queue is full.
type Writer struct {
	sink   BatchWriter
	queue  chan Entry
	onDrop func()
	log    *zap.Logger
}

func NewWriter(sink BatchWriter, buffer int, log *zap.Logger) *Writer {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Writer{
		sink:  sink,
		queue: make(chan Entry, buffer),
		log:   log,
	}
}

// OnDrop registers a callback invoked for every dropped row.
func (w *Writer) OnDrop(fn func()) { w.onDrop = fn }

// Record queues an entry. Returns false if it was dropped.
func (w *Writer) Record(e Entry) bool {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	select {
	case w.queue <- e:
		return true
	default:
		if w.onDrop != nil {
			w.onDrop()
		}
		return false
	}
}

// Run writes queued rows in batches until ctx is cancelled, then flushes
// whatever is still queued.
func (w *Writer) Run(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, maxBatch)
	for {
		select {
		case e := <-w.queue:
			batch = append(batch, e)
			if len(batch) >= maxBatch {
				batch = w.flush(batch)
			}
		case <-ticker.C:
			batch = w.flush(batch)
		case <-ctx.Done():
			for {
				select {
				case e := <-w.queue:
					batch = append(batch, e)
				default:
					goto drained
				}
			}
		drained:
			w.flush(batch)
			return nil
		}
	}
}

func (w *Writer) flush(batch []Entry) []Entry {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.sink.WriteBatch(ctx, batch); err != nil {
		w.log.Error("journal write failed", zap.Int("rows", len(batch)), zap.Error(err))
	}
	return batch[:0]
}
