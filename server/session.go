package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cyberinferno/boggle-server/logger"
	"github.com/cyberinferno/boggle-server/perfmonitor"
	"github.com/cyberinferno/boggle-server/protocol"
	"github.com/cyberinferno/boggle-server/tcpserver"
)

// Options bound the resources a single connection may use.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		MaxBodyBytes: protocol.DefaultMaxBodyBytes,
	}
}

// Session serves exactly one request on one connection and then closes it.
type Session struct {
	id      uint32
	conn    net.Conn
	handler *Handler
	opts    Options
	log     logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewSessionFunc returns a tcpserver.NewSessionFunc that creates sessions
// sharing handler.
func NewSessionFunc(handler *Handler, opts Options, log logger.Logger) tcpserver.NewSessionFunc {
	return func(id uint32, conn net.Conn) tcpserver.TCPServerSession {
		return NewSession(id, conn, handler, opts, log)
	}
}

// NewSession wraps conn.
func NewSession(id uint32, conn net.Conn, handler *Handler, opts Options, log logger.Logger) *Session {
	return &Session{
		id:      id,
		conn:    conn,
		handler: handler,
		opts:    opts,
		log: log.With(
			logger.Field{Key: "conn", Value: id},
			logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
		),
	}
}

// ID implements tcpserver.TCPServerSession.
func (s *Session) ID() uint32 {
	return s.id
}

// Handle reads one request, answers it and closes the connection.
func (s *Session) Handle() {
	defer s.Close()

	perf := perfmonitor.NewPerformanceMonitor()
	perf.Start()

	if s.opts.ReadTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}

	req, err := protocol.ReadRequest(bufio.NewReader(s.conn), s.opts.MaxBodyBytes)
	if err != nil {
		if !protocol.IsParseError(err) {
			if !errors.Is(err, io.EOF) && !errors.Is(err, protocol.ErrIncompleteRequest) {
				s.log.Debug("connection read failed", logger.Field{Key: "error", Value: err})
			}
			return
		}

		s.log.Warn("malformed request", logger.Field{Key: "error", Value: err})
		s.respond(protocol.Empty(protocol.StatusInternalServerError))
		return
	}

	ctx := context.Background()
	if s.opts.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ReadTimeout)
		defer cancel()
	}

	resp := s.serve(ctx, req)
	s.respond(resp)

	perf.Stop()
	s.log.Info("request served",
		logger.Field{Key: "route", Value: req.Route.String()},
		logger.Field{Key: "status", Value: int(resp.Status)},
		logger.Field{Key: "elapsed_ms", Value: perf.ElapsedMilliseconds()},
	)
}

// serve runs the handler, turning a panic into a 500.
func (s *Session) serve(ctx context.Context, req *protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("request panicked", logger.Field{Key: "route", Value: req.Route.String()}, logger.Field{Key: "panic", Value: fmt.Sprint(r)})
			resp = protocol.Empty(protocol.StatusInternalServerError)
		}
	}()

	resp, err := s.handler.Serve(ctx, req)
	if resp.Status == protocol.StatusInternalServerError {
		s.log.Error("request failed", logger.Field{Key: "route", Value: req.Route.String()}, logger.Field{Key: "error", Value: err})
	}

	return resp
}

func (s *Session) respond(resp protocol.Response) {
	if err := s.Send(resp.Bytes()); err != nil {
		s.log.Debug("failed to write response", logger.Field{Key: "error", Value: err})
	}
}

// Send implements tcpserver.TCPServerSession.
func (s *Session) Send(data []byte) error {
	if s.opts.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			return err
		}
	}

	_, err := s.conn.Write(data)
	return err
}

// Close implements tcpserver.TCPServerSession.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})

	return s.closeErr
}
