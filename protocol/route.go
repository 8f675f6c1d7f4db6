// Package protocol implements the line-oriented request framing spoken by the
// game server: a request line, header lines, a blank line and a body of
// exactly Content-Length bytes. Responses use the same framing with a status
// line in place of the request line.
package protocol

import (
	"strings"
)

// Route identifies which store operation a request line selects.
type Route int

const (
	RouteUnknown Route = iota
	RouteRegister
	RouteJoin
	RouteCancel
	RoutePlayWord
	RouteStatus
)

// String returns a short name for logging.
func (r Route) String() string {
	switch r {
	case RouteRegister:
		return "register"
	case RouteJoin:
		return "join"
	case RouteCancel:
		return "cancel"
	case RoutePlayWord:
		return "play"
	case RouteStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Request is a fully assembled request.
type Request struct {
	Method string
	Path   string
	Route  Route
	GameID string
	Brief  bool
	Body   []byte
}

// matchRoute selects a route from the method and path of a request line.
// Paths match on their trailing segments so any service prefix is accepted:
//
//	POST .../users                 register
//	POST .../games                 join
//	PUT  .../games                 cancel
//	PUT  .../games/{id}            play word
//	GET  .../games/{id}/{brief}    status
func matchRoute(method, path string) (Request, bool) {
	req := Request{Method: method, Path: path}

	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	segs := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	n := len(segs)
	if n == 0 {
		return req, false
	}

	last := segs[n-1]
	switch method {
	case "POST":
		switch last {
		case "users":
			req.Route = RouteRegister
		case "games":
			req.Route = RouteJoin
		}
	case "PUT":
		switch {
		case last == "games":
			req.Route = RouteCancel
		case n >= 2 && segs[n-2] == "games":
			req.Route = RoutePlayWord
			req.GameID = last
		}
	case "GET":
		if n >= 3 && segs[n-3] == "games" {
			brief, ok := parseBrief(last)
			if ok {
				req.Route = RouteStatus
				req.GameID = segs[n-2]
				req.Brief = brief
			}
		}
	}

	return req, req.Route != RouteUnknown
}

func parseBrief(s string) (brief bool, ok bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
