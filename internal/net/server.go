package net

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Server accepts TCP connections and creates Sessions.
// New/dead sessions are communicated to the game loop via channels.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64 // session IDs of dead sessions
	frames   FrameSource
	opts     Options
	log      *zap.Logger
	closeCh  chan struct{}
	closed   atomic.Bool
}

func NewServer(bindAddr string, frames FrameSource, opts Options, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 256),
		frames:   frames,
		opts:     opts.withDefaults(),
		log:      log,
		closeCh:  make(chan struct{}),
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections, creates
// sessions and pushes them onto the newConns channel for the game loop to
// bind. It returns nil once Shutdown has been called.
func (s *Server) AcceptLoop() error {
	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			s.log.Error("accept failed", zap.Error(err), zap.Duration("retry", backoff))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.frames, s.opts, s.log)
		sess.onClose = s.NotifyDead
		sess.Start()

		s.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("connection queue full, rejecting client", zap.Uint64("session", id))
			sess.Close()
		}
	}
}

// Serve runs AcceptLoop until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			s.Shutdown()
		case <-s.closeCh:
		}
	}()
	return s.AcceptLoop()
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a dead session ID to the game loop. If the channel is
// full the game loop still finds the session through IsClosed.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session IDs.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Shutdown stops accepting new connections. Established sessions are
// left to the game loop.
func (s *Server) Shutdown() {
	if s.closed.Swap(true) {
		return
	}
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
