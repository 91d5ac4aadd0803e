package net

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightsout/server/internal/protocol"
	"go.uber.org/zap"
)

// FrameSource hands out the most recently published world frame.
// Implementations must be safe for concurrent use.
type FrameSource interface {
	Frame() *protocol.Frame
}

// Options configures per-session queues and deadlines.
type Options struct {
	InQueueSize  int
	OutQueueSize int
	MaxFrame     int
	ReadTimeout  time.Duration // 0 = block until the client sends or closes
	WriteTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.InQueueSize <= 0 {
		o.InQueueSize = 8
	}
	if o.OutQueueSize <= 0 {
		o.OutQueueSize = 16
	}
	if o.MaxFrame <= 0 {
		o.MaxFrame = DefaultMaxFrame
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; world state is touched only by the game loop,
// which reads InQueue and publishes frames through the FrameSource.
type Session struct {
	ID   uint64
	conn net.Conn

	InQueue  chan protocol.Input // game loop reads inputs from here
	OutQueue chan []byte         // writer goroutine reads from here

	IP string

	bound     atomic.Pointer[binding] // nil until bound
	boundCh   chan struct{}
	boundOnce sync.Once

	frames FrameSource
	opts   Options

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	onClose   func(id uint64)

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, frames FrameSource, opts Options, log *zap.Logger) *Session {
	opts = opts.withDefaults()
	return &Session{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan protocol.Input, opts.InQueueSize),
		OutQueue: make(chan []byte, opts.OutQueueSize),
		IP:       conn.RemoteAddr().String(),
		boundCh:  make(chan struct{}),
		frames:   frames,
		opts:     opts,
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// binding is the entity a session controls within one match.
type binding struct {
	match  string
	player uint64
}

// Bind attaches the session to its player entity in match and queues the
// welcome record. The first call releases the reader; later calls (after a
// world rebuild) only swap the player.
func (s *Session) Bind(match string, player uint64, welcome []byte) {
	s.bound.Store(&binding{match: match, player: player})
	if welcome != nil {
		s.Send(welcome)
	}
	s.boundOnce.Do(func() { close(s.boundCh) })
}

// Player returns the bound player entity, or 0.
func (s *Session) Player() uint64 {
	if b := s.bound.Load(); b != nil {
		return b.player
	}
	return 0
}

// focus returns the entity to mark as the client's own in f. Entity ids
// restart with every match, so a frame from another match has none.
func (s *Session) focus(f *protocol.Frame) uint64 {
	b := s.bound.Load()
	if b == nil || f == nil || f.Match != b.match {
		return 0
	}
	return b.player
}

// Send queues a payload for the writer. If OutQueue is full the client is
// not keeping up and the session is disconnected (backpressure).
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- data:
	default:
		s.log.Warn("output queue full, dropping slow client")
		s.Close()
	}
}

// Close shuts the session down. Safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
		if s.onClose != nil {
			s.onClose(s.ID)
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// readLoop waits for the bind, then for every input frame decodes it,
// hands it to the game loop and replies with the latest published frame.
func (s *Session) readLoop() {
	defer s.Close()

	select {
	case <-s.boundCh:
	case <-s.closeCh:
		return
	}

	for {
		if s.opts.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}
		payload, err := ReadFrame(s.conn, s.opts.MaxFrame)
		if err != nil {
			if !s.closed.Load() && !errors.Is(err, io.EOF) {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		in, err := protocol.DecodeInput(payload)
		if errors.Is(err, protocol.ErrDisconnect) {
			s.log.Info("client left")
			return
		}
		if err != nil {
			s.log.Warn("malformed input, closing", zap.Error(err), zap.Int("len", len(payload)))
			return
		}

		s.enqueue(in)

		f := s.frames.Frame()
		reply, err := f.Encode(s.focus(f))
		if err != nil {
			s.log.Error("encode frame", zap.Error(err))
			return
		}
		s.Send(reply)
	}
}

// enqueue never blocks the reader: inputs are full snapshots of the
// controls, so when the game loop falls behind the oldest one is dropped.
func (s *Session) enqueue(in protocol.Input) {
	for {
		select {
		case s.InQueue <- in:
			return
		default:
		}
		select {
		case <-s.InQueue:
		default:
		}
	}
}

// writeLoop drains OutQueue to the connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOne(data) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(data []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
