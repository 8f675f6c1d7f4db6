// Package server connects the line protocol to the game store: one session
// per accepted connection, one request per session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cyberinferno/boggle-server/game"
	"github.com/cyberinferno/boggle-server/protocol"
)

// JoinRequest is the body of a join request.
type JoinRequest struct {
	UserToken string `json:"UserToken"`
	TimeLimit int    `json:"TimeLimit"`
}

// PlayWordRequest is the body of a play-word request.
type PlayWordRequest struct {
	UserToken string `json:"UserToken"`
	Word      string `json:"Word"`
}

// Handler maps assembled requests onto store operations.
type Handler struct {
	store *game.Store
}

// NewHandler returns a Handler backed by store.
func NewHandler(store *game.Store) *Handler {
	return &Handler{store: store}
}

// Serve runs req against the store and returns the response to send. The
// response is always usable; a non-nil error is its cause, for logging.
func (h *Handler) Serve(ctx context.Context, req *protocol.Request) (protocol.Response, error) {
	resp, err := h.serve(ctx, req)
	if err != nil {
		return protocol.Empty(StatusFor(err)), err
	}

	return resp, nil
}

func (h *Handler) serve(ctx context.Context, req *protocol.Request) (protocol.Response, error) {
	switch req.Route {
	case protocol.RouteRegister:
		var nickname string
		if err := decode(req.Body, &nickname); err != nil {
			return protocol.Response{}, err
		}

		token, err := h.store.Register(nickname)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.OK(token)

	case protocol.RouteJoin:
		var body JoinRequest
		if err := decode(req.Body, &body); err != nil {
			return protocol.Response{}, err
		}

		res, err := h.store.Join(body.UserToken, body.TimeLimit)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.OK(res)

	case protocol.RouteCancel:
		var token string
		if err := decode(req.Body, &token); err != nil {
			return protocol.Response{}, err
		}

		if err := h.store.Cancel(token); err != nil {
			return protocol.Response{}, err
		}
		return protocol.Empty(protocol.StatusNoContent), nil

	case protocol.RoutePlayWord:
		var body PlayWordRequest
		if err := decode(req.Body, &body); err != nil {
			return protocol.Response{}, err
		}

		score, err := h.store.PlayWord(ctx, req.GameID, body.UserToken, body.Word)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.OK(score)

	case protocol.RouteStatus:
		view, err := h.store.Status(ctx, req.GameID, req.Brief)
		if err != nil {
			return protocol.Response{}, err
		}
		return protocol.OK(view)

	default:
		return protocol.Response{}, fmt.Errorf("%w: %s", protocol.ErrUnknownRoute, req.Route)
	}
}

// decode unmarshals a request body. Malformed input is the client's fault.
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", game.ErrForbidden, err)
	}

	return nil
}

// StatusFor maps an error from the store or the parser to a response status.
func StatusFor(err error) protocol.Status {
	switch {
	case err == nil:
		return protocol.StatusOK
	case errors.Is(err, game.ErrForbidden):
		return protocol.StatusForbidden
	case errors.Is(err, game.ErrConflict):
		return protocol.StatusConflict
	default:
		return protocol.StatusInternalServerError
	}
}
