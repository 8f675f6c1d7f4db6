package boggle

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/boggle-server/cacher"
	"github.com/cyberinferno/boggle-server/safeset"
)

const testBoard = "ABCDEFGHIJKLMNOP"

func TestOracle_CanForm(t *testing.T) {
	ctx := context.Background()

	t.Run("without cache", func(t *testing.T) {
		o := NewOracle(safeset.NewSafeSet[string](), nil, time.Minute)

		ok, err := o.CanForm(ctx, testBoard, "abf")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = o.CanForm(ctx, testBoard, "ace")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, o.ReleaseBoard(ctx, testBoard))
	})

	t.Run("invalid board is an error", func(t *testing.T) {
		o := NewOracle(safeset.NewSafeSet[string](), nil, time.Minute)
		_, err := o.CanForm(ctx, "short", "abf")
		assert.Error(t, err)
	})

	t.Run("results are cached per board and released", func(t *testing.T) {
		c := cacher.NewMemoryCacher[bool](cache.NoExpiration, time.Minute)
		o := NewOracle(safeset.NewSafeSet[string](), c, time.Minute)

		for _, w := range []string{"abf", "ABF", "ace"} {
			_, err := o.CanForm(ctx, testBoard, w)
			require.NoError(t, err)
		}

		count, err := c.ItemCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		require.NoError(t, o.ReleaseBoard(ctx, testBoard))
		count, err = c.ItemCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestOracle_IsWord(t *testing.T) {
	o := NewOracle(safeset.NewSafeSet("CAT"), nil, time.Minute)

	ok, err := o.IsWord(context.Background(), "CAT")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.IsWord(context.Background(), "DOG")
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.IsWord(ctx, "CAT")
	assert.ErrorIs(t, err, context.Canceled)
}
