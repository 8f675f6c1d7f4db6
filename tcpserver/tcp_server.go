package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cyberinferno/boggle-server/idgenerator"
	"github.com/cyberinferno/boggle-server/logger"
	"github.com/cyberinferno/boggle-server/safemap"
)

// NewSessionFunc creates the session that will own an accepted connection.
type NewSessionFunc func(id uint32, conn net.Conn) TCPServerSession

// TCPServer accepts connections and hands each one to a session created by
// NewSession. Live sessions are tracked by id until their Handle returns.
type TCPServer struct {
	Logger      logger.Logger
	Name        string
	Addr        string
	Sessions    *safemap.SafeMap[uint32, TCPServerSession]
	NewSession  NewSessionFunc
	IdGenerator *idgenerator.IdGenerator

	listener net.Listener
	running  atomic.Bool
	handlers sync.WaitGroup
	done     chan struct{}
}

// New returns a server that is ready to Start.
func New(name, addr string, newSession NewSessionFunc, log logger.Logger) *TCPServer {
	return &TCPServer{
		Logger:      log,
		Name:        name,
		Addr:        addr,
		Sessions:    safemap.NewSafeMap[uint32, TCPServerSession](),
		NewSession:  newSession,
		IdGenerator: idgenerator.NewIdGenerator(0),
	}
}

// Start binds Addr and runs the accept loop in a goroutine.
//
// Returns:
//   - An error if the server is already running or if listening on Addr fails
func (s *TCPServer) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("server %s already running", s.Name)
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.running.Store(false)
		s.Logger.Error("server failed to start", logger.Field{Key: "error", Value: err})
		return fmt.Errorf("server %s failed to start: %w", s.Name, err)
	}

	s.listener = ln
	s.done = make(chan struct{})

	s.Logger.Info(fmt.Sprintf("%s server started", s.Name), logger.Field{Key: "addr", Value: ln.Addr().String()})
	go s.acceptLoop(ln, s.done)

	return nil
}

// ListenAddr returns the bound address, which differs from Addr when Addr
// asks for port 0. It is nil before Start.
func (s *TCPServer) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Running reports whether the accept loop is active.
func (s *TCPServer) Running() bool {
	return s.running.Load()
}

// Stop closes the listener and waits for in-flight sessions to finish. When
// ctx ends first, the remaining sessions are closed and ctx.Err is returned.
// Safe to call when the server is not running.
func (s *TCPServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	_ = s.listener.Close()
	<-s.done

	finished := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.Logger.Info(fmt.Sprintf("%s server stopped", s.Name))
		return nil
	case <-ctx.Done():
	}

	s.Sessions.Range(func(_ uint32, session TCPServerSession) bool {
		_ = session.Close()
		return true
	})
	<-finished

	s.Logger.Warn(fmt.Sprintf("%s server stopped with sessions closed early", s.Name))
	return ctx.Err()
}

// AddSession stores a session under the given id.
func (s *TCPServer) AddSession(id uint32, session TCPServerSession) {
	s.Sessions.Store(id, session)
}

// RemoveSession forgets the session with the given id.
func (s *TCPServer) RemoveSession(id uint32) {
	s.Sessions.Delete(id)
}

// GetSession returns the live session for id, if present.
func (s *TCPServer) GetSession(id uint32) (TCPServerSession, bool) {
	return s.Sessions.Load(id)
}

func (s *TCPServer) acceptLoop(ln net.Listener, done chan struct{}) {
	defer close(done)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			s.Logger.Error(fmt.Sprintf("%s server accept error", s.Name), logger.Field{Key: "error", Value: err})
			continue
		}

		id := s.IdGenerator.Id()
		session := s.NewSession(id, conn)
		s.AddSession(id, session)

		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			defer s.RemoveSession(id)
			session.Handle()
		}()
	}
}
