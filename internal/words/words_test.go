package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLists(t *testing.T) {
	require.NoError(t, Init())

	t.Run("answers are valid guesses", func(t *testing.T) {
		assert.True(t, IsValid("crane", 5))
		assert.True(t, IsValid("CRANE", 5), "validation is case insensitive")
	})

	t.Run("junk is rejected", func(t *testing.T) {
		assert.False(t, IsValid("zzzzz", 5))
		assert.False(t, IsValid("crane", 4), "length mismatch")
		assert.False(t, IsValid("cran", 5))
	})

	t.Run("solutions come from the answer pool", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			sol, err := NextSolution(5)
			require.NoError(t, err)
			assert.Len(t, sol, 5)
			assert.True(t, IsValid(sol, 5), "solution %q must be guessable", sol)
		}
	})

	t.Run("unsupported length", func(t *testing.T) {
		_, err := NextSolution(37)
		assert.ErrorIs(t, err, ErrNoWords)
	})

	t.Run("stats and lengths", func(t *testing.T) {
		ans, allowed := Stats()
		assert.Greater(t, ans, 0)
		assert.GreaterOrEqual(t, allowed, ans, "answers are always allowed")
		assert.Contains(t, Lengths(), 5)
	})
}
