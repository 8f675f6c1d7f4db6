package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrUnknownRoute      = errors.New("request line matches no route")
	ErrBadContentLength  = errors.New("invalid Content-Length")
	ErrBodyTooLarge      = errors.New("request body too large")
	ErrLineTooLong       = errors.New("request line too long")
	ErrIncompleteRequest = errors.New("connection closed before request was complete")
)

// DefaultMaxBodyBytes bounds the body when the caller sets no limit.
const DefaultMaxBodyBytes = 64 << 10

// MaxLineBytes bounds a single request or header line.
const MaxLineBytes = 8 << 10

// State is the parser's position within a request.
type State int

const (
	AwaitingRequestLine State = iota
	AwaitingHeaders
	AwaitingBody
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingRequestLine:
		return "awaiting-request-line"
	case AwaitingHeaders:
		return "awaiting-headers"
	case AwaitingBody:
		return "awaiting-body"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Parser assembles one request from a byte stream. Lines are fed through
// FeedLine; once the headers end the body is read in one piece.
type Parser struct {
	state         State
	req           Request
	contentLength int
	maxBody       int
}

// NewParser returns a parser awaiting a request line. maxBody <= 0 selects
// DefaultMaxBodyBytes.
func NewParser(maxBody int) *Parser {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &Parser{maxBody: maxBody}
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// ContentLength returns the body length announced so far.
func (p *Parser) ContentLength() int {
	return p.contentLength
}

// FeedLine advances the state machine by one line, without its terminator.
// It must not be called once the parser is awaiting the body.
func (p *Parser) FeedLine(line string) error {
	switch p.state {
	case AwaitingRequestLine:
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("%w: %q", ErrUnknownRoute, line)
		}

		req, ok := matchRoute(fields[0], fields[1])
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRoute, line)
		}

		p.req = req
		p.state = AwaitingHeaders
		return nil

	case AwaitingHeaders:
		if strings.TrimSpace(line) == "" {
			p.state = AwaitingBody
			if p.contentLength == 0 {
				p.state = Complete
			}
			return nil
		}

		name, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			return nil
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %q", ErrBadContentLength, value)
		}

		if n > p.maxBody {
			return fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, n, p.maxBody)
		}

		p.contentLength = n
		return nil

	default:
		return fmt.Errorf("unexpected line in state %s", p.state)
	}
}

// FeedBody supplies the body. Its length must equal ContentLength.
func (p *Parser) FeedBody(body []byte) error {
	if p.state != AwaitingBody {
		return fmt.Errorf("unexpected body in state %s", p.state)
	}

	if len(body) != p.contentLength {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBadContentLength, len(body), p.contentLength)
	}

	p.req.Body = body
	p.state = Complete
	return nil
}

// Request returns the assembled request once the parser is Complete.
func (p *Parser) Request() (*Request, bool) {
	if p.state != Complete {
		return nil, false
	}

	req := p.req
	return &req, true
}

// ReadRequest drives a Parser from r until a complete request is assembled.
func ReadRequest(r *bufio.Reader, maxBody int) (*Request, error) {
	p := NewParser(maxBody)

	for p.State() != Complete {
		if p.State() == AwaitingBody {
			body := make([]byte, p.ContentLength())
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrIncompleteRequest, err)
			}

			if err := p.FeedBody(body); err != nil {
				return nil, err
			}
			continue
		}

		line, err := readLine(r)
		if err != nil {
			return nil, err
		}

		if err := p.FeedLine(line); err != nil {
			return nil, err
		}
	}

	req, _ := p.Request()
	return req, nil
}

// readLine returns the next line with its CRLF or LF terminator removed.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > MaxLineBytes {
			return "", ErrLineTooLong
		}

		switch {
		case err == nil:
			return string(bytes.TrimRight(buf, "\r\n")), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return "", ErrIncompleteRequest
		default:
			return "", err
		}
	}
}
