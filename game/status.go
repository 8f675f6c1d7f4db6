package game

import "github.com/samber/lo"

// PendingStatus is reported for a game still waiting for its second player,
// whether or not a brief view was asked for.
type PendingStatus struct {
	GameState string `json:"GameState"`
}

// PlayerScore is a player in a brief view.
type PlayerScore struct {
	Score int `json:"Score"`
}

// PlayerSummary is a player in the full view of an active game.
type PlayerSummary struct {
	Nickname string `json:"Nickname"`
	Score    int    `json:"Score"`
}

// PlayerDetail is a player in the full view of a completed game. WordsPlayed
// is in play order.
type PlayerDetail struct {
	Nickname    string      `json:"Nickname"`
	Score       int         `json:"Score"`
	WordsPlayed []WordScore `json:"WordsPlayed"`
}

type ActiveBriefStatus struct {
	GameState string      `json:"GameState"`
	TimeLeft  int         `json:"TimeLeft"`
	Player1   PlayerScore `json:"Player1"`
	Player2   PlayerScore `json:"Player2"`
}

type ActiveStatus struct {
	GameState string        `json:"GameState"`
	Board     string        `json:"Board"`
	TimeLimit int           `json:"TimeLimit"`
	TimeLeft  int           `json:"TimeLeft"`
	Player1   PlayerSummary `json:"Player1"`
	Player2   PlayerSummary `json:"Player2"`
}

type CompletedBriefStatus struct {
	GameState string      `json:"GameState"`
	Player1   PlayerScore `json:"Player1"`
	Player2   PlayerScore `json:"Player2"`
}

type CompletedStatus struct {
	GameState string       `json:"GameState"`
	Board     string       `json:"Board"`
	TimeLimit int          `json:"TimeLimit"`
	Player1   PlayerDetail `json:"Player1"`
	Player2   PlayerDetail `json:"Player2"`
}

// statusView builds one of the five status shapes. Caller holds the store
// lock and has already refreshed g.
func statusView(g *Game, timeLeft int, brief bool) any {
	state := g.state.String()

	switch {
	case g.state == Pending:
		return PendingStatus{GameState: state}
	case g.state == Active && brief:
		return ActiveBriefStatus{
			GameState: state,
			TimeLeft:  timeLeft,
			Player1:   PlayerScore{Score: g.player1.score},
			Player2:   PlayerScore{Score: g.player2.score},
		}
	case g.state == Active:
		return ActiveStatus{
			GameState: state,
			Board:     g.board,
			TimeLimit: g.timeLimit,
			TimeLeft:  timeLeft,
			Player1:   summary(g.player1),
			Player2:   summary(g.player2),
		}
	case brief:
		return CompletedBriefStatus{
			GameState: state,
			Player1:   PlayerScore{Score: g.player1.score},
			Player2:   PlayerScore{Score: g.player2.score},
		}
	default:
		return CompletedStatus{
			GameState: state,
			Board:     g.board,
			TimeLimit: g.timeLimit,
			Player1:   detail(g.player1),
			Player2:   detail(g.player2),
		}
	}
}

func summary(p *player) PlayerSummary {
	return PlayerSummary{Nickname: p.user.Nickname, Score: p.score}
}

// detail copies the word list so the view stays valid after the lock is
// released. The result is never nil.
func detail(p *player) PlayerDetail {
	return PlayerDetail{
		Nickname:    p.user.Nickname,
		Score:       p.score,
		WordsPlayed: lo.Map(p.words, func(w WordScore, _ int) WordScore { return w }),
	}
}
