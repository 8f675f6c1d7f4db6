// Package game holds the session store: registered users, every game ever
// started, and the single pending game waiting for an opponent. All state
// transitions happen under one store-wide lock.
package game

import (
	"errors"
	"time"
)

var (
	// ErrForbidden reports malformed or unauthorized input: a bad nickname or
	// time limit, an unknown token or game, an empty or oversized word.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict reports a well-formed request that the current game state
	// does not allow.
	ErrConflict = errors.New("conflict")
)

const (
	MaxNicknameLength = 50
	MinTimeLimit      = 5
	MaxTimeLimit      = 120
	MaxWordLength     = 30
)

// State is a game's position in its lifecycle.
type State int

const (
	Pending State = iota
	Active
	Completed
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// User is a registered player. Users are never modified or removed.
type User struct {
	Token    string
	Nickname string
}

// WordScore is one played word and the score it earned.
type WordScore struct {
	Word  string `json:"Word"`
	Score int    `json:"Score"`
}

// player is one seat in a game: who sits there and what they have played.
type player struct {
	user   *User
	score  int
	words  []WordScore
	played map[string]struct{}
}

func newPlayer(u *User) *player {
	return &player{user: u, played: make(map[string]struct{})}
}

func (p *player) hasPlayed(word string) bool {
	_, ok := p.played[word]
	return ok
}

// record appends word; a word already played is never overwritten.
func (p *player) record(word string, score int) {
	if p.hasPlayed(word) {
		return
	}

	p.played[word] = struct{}{}
	p.words = append(p.words, WordScore{Word: word, Score: score})
	p.score += score
}

// Game is a single match between two players.
type Game struct {
	id        string
	state     State
	board     string
	timeLimit int
	startedAt time.Time
	player1   *player
	player2   *player
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.id
}

// seat returns the player record for token, or nil if token is not playing.
func (g *Game) seat(token string) *player {
	if g.player1 != nil && g.player1.user.Token == token {
		return g.player1
	}

	if g.player2 != nil && g.player2.user.Token == token {
		return g.player2
	}

	return nil
}

// start seats the second player and begins the countdown. The time limit
// becomes the floor of the average of both requests.
func (g *Game) start(second *User, requestedLimit int, now time.Time) {
	g.player1 = newPlayer(g.player1.user)
	g.player2 = newPlayer(second)
	g.timeLimit = (g.timeLimit + requestedLimit) / 2
	g.startedAt = now
	g.state = Active
}

// refresh applies the lazy Active -> Completed transition and returns the
// seconds left along with whether this call performed the transition.
func (g *Game) refresh(now time.Time) (timeLeft int, completedNow bool) {
	if g.state != Active {
		return 0, false
	}

	elapsed := int(now.Sub(g.startedAt) / time.Second)
	if left := g.timeLimit - elapsed; left > 0 {
		return left, false
	}

	g.state = Completed
	return 0, true
}
