// Package client talks to the game server over its line protocol. Every call
// dials a fresh connection, sends one request and reads one response.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cyberinferno/boggle-server/game"
	"github.com/cyberinferno/boggle-server/protocol"
)

// Config holds connection settings.
type Config struct {
	// Address is the "host:port" of the server.
	Address string
	// DialTimeout bounds connection setup; 0 means no timeout.
	DialTimeout time.Duration
	// ReadTimeout bounds waiting for the response; 0 means no timeout.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the request; 0 means no timeout.
	WriteTimeout time.Duration
	// PathPrefix is prepended to every request path.
	PathPrefix string
}

// DefaultConfig returns a Config for address with the standard service prefix.
func DefaultConfig(address string) Config {
	return Config{
		Address:      address,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		PathPrefix:   "/BoggleService",
	}
}

// StatusError is returned when the server answers with a non-success status.
type StatusError struct {
	Code protocol.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded %d %s", int(e.Code), e.Code.Reason())
}

// Client is safe for concurrent use; it holds no connection between calls.
type Client struct {
	config Config
	dialer net.Dialer
}

// New returns a client for config.
func New(config Config) *Client {
	return &Client{
		config: config,
		dialer: net.Dialer{Timeout: config.DialTimeout},
	}
}

// Register creates a user and returns its token.
func (c *Client) Register(ctx context.Context, nickname string) (string, error) {
	var token string
	err := c.do(ctx, "POST", "/users", nickname, &token)
	return token, err
}

// Join enters the pending game, or creates one.
func (c *Client) Join(ctx context.Context, token string, timeLimit int) (game.JoinResult, error) {
	var res game.JoinResult
	err := c.do(ctx, "POST", "/games", map[string]any{"UserToken": token, "TimeLimit": timeLimit}, &res)
	return res, err
}

// Cancel withdraws from the pending game.
func (c *Client) Cancel(ctx context.Context, token string) error {
	return c.do(ctx, "PUT", "/games", token, nil)
}

// PlayWord submits word and returns its score.
func (c *Client) PlayWord(ctx context.Context, gameID, token, word string) (int, error) {
	var score int
	err := c.do(ctx, "PUT", "/games/"+gameID, map[string]string{"UserToken": token, "Word": word}, &score)
	return score, err
}

// Status fetches a game's status. The shape of the result depends on the
// game's state; fields that do not apply are left zero.
func (c *Client) Status(ctx context.Context, gameID string, brief bool) (Status, error) {
	var st Status
	err := c.do(ctx, "GET", fmt.Sprintf("/games/%s/%t", gameID, brief), nil, &st)
	return st, err
}

// Raw sends pre-framed bytes and returns the parsed response.
func (c *Client) Raw(ctx context.Context, request []byte) (protocol.Response, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.config.Address)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to connect to %s: %w", c.config.Address, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if c.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}

	if _, err := conn.Write(request); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to send request: %w", err)
	}

	if c.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}

	resp, err := protocol.ReadResponse(bufio.NewReader(conn), 0)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	req, err := protocol.NewRequest(method, strings.TrimRight(c.config.PathPrefix, "/")+path, body)
	if err != nil {
		return err
	}

	resp, err := c.Raw(ctx, req)
	if err != nil {
		return err
	}

	if resp.Status != protocol.StatusOK && resp.Status != protocol.StatusNoContent {
		return &StatusError{Code: resp.Status}
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
