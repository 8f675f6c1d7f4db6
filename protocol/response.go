package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cyberinferno/boggle-server/utils"
)

// Status is a response status code.
type Status int

const (
	StatusOK                  Status = 200
	StatusNoContent           Status = 204
	StatusForbidden           Status = 403
	StatusConflict            Status = 409
	StatusInternalServerError Status = 500
)

// Reason returns the reason phrase written on the status line.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoContent:
		return "NoContent"
	case StatusForbidden:
		return "Forbidden"
	case StatusConflict:
		return "Conflict"
	case StatusInternalServerError:
		return "InternalServerError"
	default:
		return "Unknown"
	}
}

const contentType = "application/json; charset=utf-8"

// Response is a status and an optional body.
type Response struct {
	Status Status
	Body   []byte
}

// OK returns a 200 response whose body is v encoded as JSON.
func OK(v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode response: %w", err)
	}

	return Response{Status: StatusOK, Body: body}, nil
}

// Empty returns a response with no body.
func Empty(status Status) Response {
	return Response{Status: status}
}

// Bytes frames the response. Content-Length is always the exact body length.
func (r Response) Bytes() []byte {
	head := "HTTP/1.1 " + strconv.Itoa(int(r.Status)) + " " + r.Status.Reason() + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(r.Body)) + "\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"\r\n"

	return utils.JoinBytes([]byte(head), r.Body)
}

// WriteTo writes the framed response to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// ReadResponse reads one framed response from r.
func ReadResponse(r *bufio.Reader, maxBody int) (Response, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	line, err := readLine(r)
	if err != nil {
		return Response{}, err
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Response{}, fmt.Errorf("malformed status line %q", line)
	}

	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return Response{}, fmt.Errorf("malformed status line %q: %w", line, err)
	}

	resp := Response{Status: Status(code)}
	length := 0
	for {
		line, err := readLine(r)
		if err != nil {
			return Response{}, err
		}

		if strings.TrimSpace(line) == "" {
			break
		}

		name, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}

		length, err = strconv.Atoi(strings.TrimSpace(value))
		if err != nil || length < 0 {
			return Response{}, fmt.Errorf("%w: %q", ErrBadContentLength, value)
		}

		if length > maxBody {
			return Response{}, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, length, maxBody)
		}
	}

	if length > 0 {
		resp.Body = make([]byte, length)
		if _, err := io.ReadFull(r, resp.Body); err != nil {
			return Response{}, fmt.Errorf("%w: %w", ErrIncompleteRequest, err)
		}
	}

	return resp, nil
}

// IsParseError reports whether err came from request framing rather than from
// the connection itself.
func IsParseError(err error) bool {
	return errors.Is(err, ErrUnknownRoute) ||
		errors.Is(err, ErrBadContentLength) ||
		errors.Is(err, ErrBodyTooLarge) ||
		errors.Is(err, ErrLineTooLong)
}
