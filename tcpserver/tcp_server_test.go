package tcpserver

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/boggle-server/logger"
)

// lineSession echoes one line back and closes, or waits for Close when hold
// is set.
type lineSession struct {
	id   uint32
	conn net.Conn
	hold bool
	once sync.Once
}

func (l *lineSession) ID() uint32 { return l.id }

func (l *lineSession) Handle() {
	defer l.Close()

	line, err := bufio.NewReader(l.conn).ReadString('\n')
	if err != nil {
		return
	}

	_ = l.Send([]byte(line))
	if l.hold {
		_, _ = l.conn.Read(make([]byte, 1))
	}
}

func (l *lineSession) Close() error {
	var err error
	l.once.Do(func() { err = l.conn.Close() })
	return err
}

func (l *lineSession) Send(data []byte) error {
	_, err := l.conn.Write(data)
	return err
}

func startServer(t *testing.T, hold bool) *TCPServer {
	t.Helper()
	s := New("test", "127.0.0.1:0", func(id uint32, conn net.Conn) TCPServerSession {
		return &lineSession{id: id, conn: conn, hold: hold}
	}, logger.NewNopLogger())

	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestTCPServer_Start(t *testing.T) {
	t.Run("serves connections", func(t *testing.T) {
		s := startServer(t, false)
		assert.True(t, s.Running())

		for range 3 {
			conn, err := net.Dial("tcp", s.ListenAddr().String())
			require.NoError(t, err)

			_, err = conn.Write([]byte("hello\n"))
			require.NoError(t, err)

			line, err := bufio.NewReader(conn).ReadString('\n')
			require.NoError(t, err)
			assert.Equal(t, "hello\n", line)
			_ = conn.Close()
		}

		assert.Eventually(t, func() bool { return s.Sessions.Len() == 0 }, time.Second, 10*time.Millisecond)
		assert.Equal(t, uint32(3), s.IdGenerator.Issued())
	})

	t.Run("second start fails", func(t *testing.T) {
		s := startServer(t, false)
		assert.Error(t, s.Start())
	})

	t.Run("bad address", func(t *testing.T) {
		s := New("test", "256.0.0.1:99999", nil, logger.NewNopLogger())
		assert.Error(t, s.Start())
		assert.False(t, s.Running())
	})
}

func TestTCPServer_Stop(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		s := New("test", "127.0.0.1:0", nil, logger.NewNopLogger())
		assert.NoError(t, s.Stop(context.Background()))
	})

	t.Run("closes lingering sessions when the deadline passes", func(t *testing.T) {
		s := startServer(t, true)

		conn, err := net.Dial("tcp", s.ListenAddr().String())
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("hi\n"))
		require.NoError(t, err)
		_, err = bufio.NewReader(conn).ReadString('\n')
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
		assert.False(t, s.Running())
		assert.Equal(t, 0, s.Sessions.Len())

		_, err = net.DialTimeout("tcp", s.ListenAddr().String(), 100*time.Millisecond)
		assert.Error(t, err)
	})
}
