package client

import "github.com/cyberinferno/boggle-server/game"

// Status is the union of every status shape the server sends.
type Status struct {
	GameState string        `json:"GameState"`
	Board     string        `json:"Board,omitempty"`
	TimeLimit int           `json:"TimeLimit,omitempty"`
	TimeLeft  int           `json:"TimeLeft,omitempty"`
	Player1   *PlayerStatus `json:"Player1,omitempty"`
	Player2   *PlayerStatus `json:"Player2,omitempty"`
}

// PlayerStatus is one player's part of a Status.
type PlayerStatus struct {
	Nickname    string           `json:"Nickname,omitempty"`
	Score       int              `json:"Score"`
	WordsPlayed []game.WordScore `json:"WordsPlayed,omitempty"`
}
