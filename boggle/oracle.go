package boggle

import (
	"context"
	"fmt"
	"time"

	"github.com/cyberinferno/boggle-server/cacher"
	"github.com/cyberinferno/boggle-server/utils"
)

// Dictionary answers whether a word is a valid dictionary entry.
type Dictionary interface {
	Contains(word string) bool
}

// Oracle answers the two questions asked when a word is played: can it be
// traced on the board, and is it in the dictionary. Board searches are
// memoized in an optional cache keyed by board and word.
type Oracle struct {
	dict  Dictionary
	cache cacher.Cacher[bool]
	ttl   time.Duration
}

// NewOracle creates an Oracle. cache may be nil to disable memoization.
//
// Parameters:
//   - dict: Dictionary used by IsWord
//   - cache: Cache for board searches, or nil
//   - ttl: How long a board search result is kept
//
// Returns:
//   - A new Oracle
func NewOracle(dict Dictionary, cache cacher.Cacher[bool], ttl time.Duration) *Oracle {
	return &Oracle{dict: dict, cache: cache, ttl: ttl}
}

func boardKeyPrefix(board string) string {
	return fmt.Sprintf("board:%s:", board)
}

// CanForm reports whether word can be traced on board (its 16-letter form).
func (o *Oracle) CanForm(ctx context.Context, board string, word string) (bool, error) {
	b, err := ParseBoard(board)
	if err != nil {
		return false, err
	}

	word = utils.NormalizeWord(word)
	if o.cache == nil {
		return b.CanForm(word), nil
	}

	return o.cache.GetOrFetch(ctx, boardKeyPrefix(b.String())+word, o.ttl, func(ctx context.Context) (bool, error) {
		return b.CanForm(word), nil
	})
}

// IsWord reports whether word is in the dictionary.
func (o *Oracle) IsWord(ctx context.Context, word string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return o.dict.Contains(word), nil
}

// ReleaseBoard drops every cached search for board. It is called once a game
// on that board can no longer accept words.
func (o *Oracle) ReleaseBoard(ctx context.Context, board string) error {
	if o.cache == nil {
		return nil
	}

	_, err := o.cache.DeleteByPrefix(ctx, boardKeyPrefix(board))
	return err
}
