package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoard = "CATSXXXXXXXXXXXX"

// fakeChecker accepts words listed in valid; every word is on the board.
type fakeChecker struct {
	mu       sync.Mutex
	valid    map[string]bool
	err      error
	calls    int
	released chan string
}

func newFakeChecker(words ...string) *fakeChecker {
	f := &fakeChecker{valid: make(map[string]bool), released: make(chan string, 8)}
	for _, w := range words {
		f.valid[w] = true
	}
	return f
}

func (f *fakeChecker) CanForm(_ context.Context, _ string, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err == nil, f.err
}

func (f *fakeChecker) IsWord(_ context.Context, word string) (bool, error) {
	return f.valid[word], nil
}

func (f *fakeChecker) ReleaseBoard(_ context.Context, board string) error {
	f.released <- board
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, checker WordChecker) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(checker, WithClock(clock.Now), WithBoards(func() string { return testBoard }))
	return s, clock
}

// startGame registers two players and pairs them.
func startGame(t *testing.T, s *Store, limit1, limit2 int) (gameID, a, b string) {
	t.Helper()
	a, err := s.Register("Alice")
	require.NoError(t, err)
	b, err = s.Register("Bob")
	require.NoError(t, err)

	first, err := s.Join(a, limit1)
	require.NoError(t, err)
	second, err := s.Join(b, limit2)
	require.NoError(t, err)
	require.Equal(t, first.GameID, second.GameID)

	return first.GameID, a, b
}

func TestStore_Register(t *testing.T) {
	s, _ := newTestStore(t, newFakeChecker())

	t.Run("accepts nicknames of 1 to 50 characters", func(t *testing.T) {
		for _, name := range []string{"a", "  Alice  ", strings.Repeat("x", 50), strings.Repeat("é", 50)} {
			tok, err := s.Register(name)
			require.NoError(t, err, name)
			assert.NotEmpty(t, tok)
		}
	})

	t.Run("rejects empty and oversized nicknames", func(t *testing.T) {
		for _, name := range []string{"", "   ", "\t\n", strings.Repeat("x", 51)} {
			_, err := s.Register(name)
			assert.ErrorIs(t, err, ErrForbidden, "%q", name)
		}
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 200 {
			tok, err := s.Register("player")
			require.NoError(t, err)
			_, dup := seen[tok]
			require.False(t, dup)
			seen[tok] = struct{}{}
		}
	})

	t.Run("nickname is stored trimmed", func(t *testing.T) {
		s2, _ := newTestStore(t, newFakeChecker())
		a, _ := s2.Register("  Carol ")
		b, _ := s2.Register("Dan")
		res, _ := s2.Join(a, 10)
		_, _ = s2.Join(b, 10)

		view, err := s2.Status(context.Background(), res.GameID, false)
		require.NoError(t, err)
		assert.Equal(t, "Carol", view.(ActiveStatus).Player1.Nickname)
	})
}

func TestStore_Join(t *testing.T) {
	t.Run("pairs two players and averages the time limit", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		b, _ := s.Register("Bob")

		first, err := s.Join(a, 10)
		require.NoError(t, err)
		assert.True(t, first.IsPending)

		second, err := s.Join(b, 20)
		require.NoError(t, err)
		assert.False(t, second.IsPending)
		assert.Equal(t, first.GameID, second.GameID)

		view, err := s.Status(context.Background(), first.GameID, false)
		require.NoError(t, err)
		active := view.(ActiveStatus)
		assert.Equal(t, 15, active.TimeLimit)
		assert.Equal(t, 15, active.TimeLeft)
		assert.Equal(t, "active", active.GameState)
		assert.Equal(t, testBoard, active.Board)
		assert.Equal(t, "Alice", active.Player1.Nickname)
		assert.Equal(t, "Bob", active.Player2.Nickname)

		_, pending := s.PendingGameID()
		assert.False(t, pending)
	})

	t.Run("odd sums round down", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		gameID, _, _ := startGame(t, s, 5, 10)

		view, err := s.Status(context.Background(), gameID, false)
		require.NoError(t, err)
		assert.Equal(t, 7, view.(ActiveStatus).TimeLimit)
	})

	t.Run("rejects out of range time limits", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		for _, limit := range []int{-1, 0, 4, 121, 1000} {
			_, err := s.Join(a, limit)
			assert.ErrorIs(t, err, ErrForbidden, "limit %d", limit)
		}

		_, err := s.Join(a, 5)
		assert.NoError(t, err)
		require.NoError(t, s.Cancel(a))
		_, err = s.Join(a, 120)
		assert.NoError(t, err)
	})

	t.Run("rejects unknown tokens", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		_, err := s.Join("nobody", 10)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("joining twice is a conflict", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		_, err := s.Join(a, 10)
		require.NoError(t, err)

		_, err = s.Join(a, 10)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("concurrent joins pair exactly once", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		const n = 101
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i], _ = s.Register("p")
		}

		results := make([]JoinResult, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for i := range n {
			go func(idx int) {
				defer wg.Done()
				res, err := s.Join(tokens[idx], 10)
				assert.NoError(t, err)
				results[idx] = res
			}(i)
		}
		wg.Wait()

		perGame := make(map[string]int)
		pending := 0
		for _, r := range results {
			perGame[r.GameID]++
			if r.IsPending {
				pending++
			}
		}

		for id, count := range perGame {
			if count == 1 {
				pendingID, ok := s.PendingGameID()
				require.True(t, ok)
				assert.Equal(t, pendingID, id)
				continue
			}
			assert.Equal(t, 2, count, "game %s", id)
		}
		assert.Len(t, perGame, (n+1)/2)
		assert.Equal(t, (n+1)/2, pending)

		stats := s.Stats()
		assert.Equal(t, 1, stats.Pending)
		assert.Equal(t, n/2, stats.Active)
	})
}

func TestStore_Cancel(t *testing.T) {
	t.Run("removes the pending game", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		res, _ := s.Join(a, 10)

		require.NoError(t, s.Cancel(a))

		_, err := s.Status(context.Background(), res.GameID, true)
		assert.ErrorIs(t, err, ErrForbidden)

		_, ok := s.PendingGameID()
		assert.False(t, ok)
	})

	t.Run("only the pending player may cancel", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		b, _ := s.Register("Bob")
		_, _ = s.Join(a, 10)

		assert.ErrorIs(t, s.Cancel(b), ErrForbidden)
		assert.ErrorIs(t, s.Cancel("nobody"), ErrForbidden)
	})

	t.Run("nothing pending", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		assert.ErrorIs(t, s.Cancel(a), ErrForbidden)
	})

	t.Run("active games cannot be cancelled", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		gameID, a, _ := startGame(t, s, 10, 10)

		assert.ErrorIs(t, s.Cancel(a), ErrForbidden)
		_, err := s.Status(context.Background(), gameID, true)
		assert.NoError(t, err)
	})
}

func TestStore_PlayWord(t *testing.T) {
	ctx := context.Background()

	t.Run("scores valid words and records them in order", func(t *testing.T) {
		checker := newFakeChecker("CAT", "CATS", "SCAT")
		s, clock := newTestStore(t, checker)
		gameID, a, b := startGame(t, s, 10, 10)

		score, err := s.PlayWord(ctx, gameID, a, " cats ")
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		score, err = s.PlayWord(ctx, gameID, a, "zzz")
		require.NoError(t, err)
		assert.Equal(t, 0, score)

		score, err = s.PlayWord(ctx, gameID, b, "cat")
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		brief, err := s.Status(ctx, gameID, true)
		require.NoError(t, err)
		assert.Equal(t, ActiveBriefStatus{
			GameState: "active",
			TimeLeft:  10,
			Player1:   PlayerScore{Score: 1},
			Player2:   PlayerScore{Score: 1},
		}, brief)

		clock.Advance(11 * time.Second)

		full, err := s.Status(ctx, gameID, false)
		require.NoError(t, err)
		completed := full.(CompletedStatus)
		assert.Equal(t, "completed", completed.GameState)
		assert.Equal(t, []WordScore{{Word: "CATS", Score: 1}, {Word: "ZZZ", Score: 0}}, completed.Player1.WordsPlayed)
		assert.Equal(t, []WordScore{{Word: "CAT", Score: 1}}, completed.Player2.WordsPlayed)
	})

	t.Run("short words score zero without a lookup", func(t *testing.T) {
		checker := newFakeChecker()
		s, _ := newTestStore(t, checker)
		gameID, a, _ := startGame(t, s, 10, 10)

		score, err := s.PlayWord(ctx, gameID, a, "at")
		require.NoError(t, err)
		assert.Equal(t, 0, score)
		assert.Equal(t, 0, checker.calls)
	})

	t.Run("replayed word scores zero and is not recorded again", func(t *testing.T) {
		s, clock := newTestStore(t, newFakeChecker("CATS"))
		gameID, a, _ := startGame(t, s, 10, 10)

		first, err := s.PlayWord(ctx, gameID, a, "CATS")
		require.NoError(t, err)
		second, err := s.PlayWord(ctx, gameID, a, "cats")
		require.NoError(t, err)
		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)

		clock.Advance(time.Minute)
		view, _ := s.Status(ctx, gameID, false)
		p1 := view.(CompletedStatus).Player1
		assert.Equal(t, 1, p1.Score)
		assert.Len(t, p1.WordsPlayed, 1)
	})

	t.Run("rejects bad words and strangers", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		gameID, a, _ := startGame(t, s, 10, 10)
		c, _ := s.Register("Carol")

		for _, w := range []string{"", "   ", strings.Repeat("A", 31)} {
			_, err := s.PlayWord(ctx, gameID, a, w)
			assert.ErrorIs(t, err, ErrForbidden, "%q", w)
		}

		_, err := s.PlayWord(ctx, gameID, c, "CAT")
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = s.PlayWord(ctx, "missing", a, "CAT")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("pending game is a conflict", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		res, _ := s.Join(a, 10)

		_, err := s.PlayWord(ctx, res.GameID, a, "CAT")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("checker failure is an internal error", func(t *testing.T) {
		checker := newFakeChecker()
		checker.err = errors.New("cache down")
		s, _ := newTestStore(t, checker)
		gameID, a, _ := startGame(t, s, 10, 10)

		_, err := s.PlayWord(ctx, gameID, a, "CAT")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrForbidden)
		assert.NotErrorIs(t, err, ErrConflict)
	})
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()

	t.Run("game started more than its limit ago is completed", func(t *testing.T) {
		checker := newFakeChecker("CATS")
		s, clock := newTestStore(t, checker)
		gameID, a, _ := startGame(t, s, 20, 20)

		clock.Advance(21 * time.Second)

		view, err := s.Status(ctx, gameID, true)
		require.NoError(t, err)
		assert.Equal(t, CompletedBriefStatus{GameState: "completed"}, view)

		_, err = s.PlayWord(ctx, gameID, a, "CATS")
		assert.ErrorIs(t, err, ErrConflict)

		select {
		case board := <-checker.released:
			assert.Equal(t, testBoard, board)
		case <-time.After(time.Second):
			t.Fatal("board was not released")
		}
	})

	t.Run("time left counts down in whole seconds", func(t *testing.T) {
		s, clock := newTestStore(t, newFakeChecker())
		gameID, _, _ := startGame(t, s, 10, 10)

		clock.Advance(3500 * time.Millisecond)
		view, _ := s.Status(ctx, gameID, true)
		assert.Equal(t, 7, view.(ActiveBriefStatus).TimeLeft)

		clock.Advance(6 * time.Second)
		view, _ = s.Status(ctx, gameID, true)
		assert.Equal(t, 1, view.(ActiveBriefStatus).TimeLeft)

		clock.Advance(500 * time.Millisecond)
		view, _ = s.Status(ctx, gameID, true)
		assert.IsType(t, CompletedBriefStatus{}, view)
	})

	t.Run("completed words list is never null", func(t *testing.T) {
		s, clock := newTestStore(t, newFakeChecker())
		gameID, _, _ := startGame(t, s, 5, 5)

		clock.Advance(time.Hour)
		view, _ := s.Status(ctx, gameID, false)
		completed := view.(CompletedStatus)
		assert.NotNil(t, completed.Player1.WordsPlayed)
		assert.Empty(t, completed.Player1.WordsPlayed)
		assert.Equal(t, 5, completed.TimeLimit)
		assert.Equal(t, testBoard, completed.Board)
	})
}

func TestStore_Status(t *testing.T) {
	t.Run("pending view ignores brief", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		a, _ := s.Register("Alice")
		res, _ := s.Join(a, 10)

		for _, brief := range []bool{true, false} {
			view, err := s.Status(context.Background(), res.GameID, brief)
			require.NoError(t, err)
			assert.Equal(t, PendingStatus{GameState: "pending"}, view)
		}
	})

	t.Run("unknown game", func(t *testing.T) {
		s, _ := newTestStore(t, newFakeChecker())
		_, err := s.Status(context.Background(), "nope", true)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
