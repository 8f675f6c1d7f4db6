package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/cyberinferno/boggle-server/boggle"
	"github.com/cyberinferno/boggle-server/idgenerator"
	"github.com/cyberinferno/boggle-server/logger"
	"github.com/cyberinferno/boggle-server/utils"
)

// WordChecker answers the two validity questions for a played word. Calls may
// block (for example on a shared cache) and are never made while the store
// lock is held.
type WordChecker interface {
	CanForm(ctx context.Context, board string, word string) (bool, error)
	IsWord(ctx context.Context, word string) (bool, error)
}

// BoardReleaser is optionally implemented by a WordChecker that keeps
// per-board state. ReleaseBoard is called once a game stops accepting words.
type BoardReleaser interface {
	ReleaseBoard(ctx context.Context, board string) error
}

// JoinResult is returned by Join.
type JoinResult struct {
	GameID    string `json:"GameID"`
	IsPending bool   `json:"IsPending"`
}

// Stats is a point-in-time count of store contents.
type Stats struct {
	Users     int
	Pending   int
	Active    int
	Completed int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the store's clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithBoards replaces the random board generator.
func WithBoards(next func() string) Option {
	return func(s *Store) { s.newBoard = next }
}

// Store is the in-memory registry of users and games. One mutex guards the
// user table, the game table and the pending-game pointer together, which is
// what makes pairing happen exactly once under concurrent joins.
type Store struct {
	mu      sync.Mutex
	users   map[string]*User
	games   map[string]*Game
	pending *Game

	checker    WordChecker
	userTokens *idgenerator.TokenGenerator
	gameIDs    *idgenerator.TokenGenerator
	now        func() time.Time
	newBoard   func() string
	log        logger.Logger
}

// NewStore creates an empty store that validates words with checker.
func NewStore(checker WordChecker, opts ...Option) *Store {
	s := &Store{
		users:      make(map[string]*User),
		games:      make(map[string]*Game),
		checker:    checker,
		userTokens: idgenerator.NewTokenGenerator(""),
		gameIDs:    idgenerator.NewTokenGenerator("g-"),
		now:        time.Now,
		newBoard:   func() string { return boggle.NewBoard().String() },
		log:        logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates a user with the trimmed nickname and returns its token.
func (s *Store) Register(nickname string) (string, error) {
	n := utils.TrimmedLength(nickname)
	if n == 0 || n > MaxNicknameLength {
		return "", ErrForbidden
	}

	u := &User{Token: s.userTokens.Token(), Nickname: strings.TrimSpace(nickname)}

	s.mu.Lock()
	s.users[u.Token] = u
	s.mu.Unlock()

	s.log.Debug("user registered", logger.Field{Key: "nickname", Value: u.Nickname})
	return u.Token, nil
}

// Join puts token into the pending game, creating one if none is waiting.
// The second distinct player to join starts the game.
func (s *Store) Join(token string, timeLimit int) (JoinResult, error) {
	if timeLimit < MinTimeLimit || timeLimit > MaxTimeLimit {
		return JoinResult{}, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[token]
	if !ok {
		return JoinResult{}, ErrForbidden
	}

	if g := s.pending; g != nil {
		if g.player1.user.Token == token {
			return JoinResult{}, ErrConflict
		}

		g.start(u, timeLimit, s.now())
		s.pending = nil
		s.log.Debug("game started", logger.Field{Key: "game", Value: g.id}, logger.Field{Key: "time_limit", Value: g.timeLimit})
		return JoinResult{GameID: g.id, IsPending: false}, nil
	}

	g := &Game{
		id:        s.gameIDs.Token(),
		state:     Pending,
		board:     s.newBoard(),
		timeLimit: timeLimit,
		player1:   newPlayer(u),
	}
	s.games[g.id] = g
	s.pending = g

	s.log.Debug("game created", logger.Field{Key: "game", Value: g.id})
	return JoinResult{GameID: g.id, IsPending: true}, nil
}

// Cancel removes the pending game if token is its only player.
func (s *Store) Cancel(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token]; !ok {
		return ErrForbidden
	}

	g := s.pending
	if g == nil || g.player1.user.Token != token {
		return ErrForbidden
	}

	delete(s.games, g.id)
	s.pending = nil

	s.log.Debug("pending game cancelled", logger.Field{Key: "game", Value: g.id})
	return nil
}

// PlayWord records word for token in game gameID and returns its score. A
// word the player already played scores 0 and is not recorded again.
func (s *Store) PlayWord(ctx context.Context, gameID, token, word string) (int, error) {
	word = utils.NormalizeWord(word)
	if word == "" || utils.TrimmedLength(word) > MaxWordLength {
		return 0, ErrForbidden
	}

	board, replay, err := s.checkPlayable(ctx, gameID, token, word)
	if err != nil || replay {
		return 0, err
	}

	valid, err := s.validate(ctx, board, word)
	if err != nil {
		return 0, fmt.Errorf("failed to check word %q: %w", word, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The lock was released while checking; the game may have expired since.
	g := s.games[gameID]
	if _, done := g.refresh(s.now()); done {
		s.completed(ctx, g)
	}

	if g.state != Active {
		return 0, ErrConflict
	}

	p := g.seat(token)
	if p.hasPlayed(word) {
		return 0, nil
	}

	score := max(rawScore(word, valid), 0)
	p.record(word, score)
	return score, nil
}

// checkPlayable validates gameID and token under the lock and reports the
// board along with whether word is a replay for this player.
func (s *Store) checkPlayable(ctx context.Context, gameID, token, word string) (board string, replay bool, err error) {
	if !s.gameIDs.Owns(gameID) {
		return "", false, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return "", false, ErrForbidden
	}

	p := g.seat(token)
	if p == nil {
		return "", false, ErrForbidden
	}

	if _, done := g.refresh(s.now()); done {
		s.completed(ctx, g)
	}

	if g.state != Active {
		return "", false, ErrConflict
	}

	return g.board, p.hasPlayed(word), nil
}

// validate asks the checker about word. Words too short to score are not
// looked up.
func (s *Store) validate(ctx context.Context, board, word string) (bool, error) {
	if rawScore(word, true) == 0 {
		return false, nil
	}

	onBoard, err := s.checker.CanForm(ctx, board, word)
	if err != nil || !onBoard {
		return false, err
	}

	return s.checker.IsWord(ctx, word)
}

// Status returns the view of game gameID chosen by its state and brief.
func (s *Store) Status(ctx context.Context, gameID string, brief bool) (any, error) {
	if !s.gameIDs.Owns(gameID) {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrForbidden
	}

	timeLeft, done := g.refresh(s.now())
	if done {
		s.completed(ctx, g)
	}

	return statusView(g, timeLeft, brief), nil
}

// completed runs once per game, right after its lazy transition. Caller holds
// s.mu; per-board cleanup is handed off so the lock is not held across I/O.
func (s *Store) completed(ctx context.Context, g *Game) {
	s.log.Debug("game completed",
		logger.Field{Key: "game", Value: g.id},
		logger.Field{Key: "player1_score", Value: g.player1.score},
		logger.Field{Key: "player2_score", Value: g.player2.score},
	)

	releaser, ok := s.checker.(BoardReleaser)
	if !ok {
		return
	}

	board := g.board
	go func() {
		if err := releaser.ReleaseBoard(context.WithoutCancel(ctx), board); err != nil {
			s.log.Warn("failed to release board", logger.Field{Key: "board", Value: board}, logger.Field{Key: "error", Value: err})
		}
	}()
}

// PendingGameID returns the id of the game waiting for a second player.
func (s *Store) PendingGameID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return "", false
	}

	return s.pending.id, true
}

// Stats counts users and games by state, applying lazy expiry first.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	games := lo.Values(s.games)
	for _, g := range games {
		g.refresh(now)
	}

	countState := func(st State) int {
		return lo.CountBy(games, func(g *Game) bool { return g.state == st })
	}

	return Stats{
		Users:     len(s.users),
		Pending:   countState(Pending),
		Active:    countState(Active),
		Completed: countState(Completed),
	}
}
