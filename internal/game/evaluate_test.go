package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	t.Run("solution against itself is all correct", func(t *testing.T) {
		for _, w := range []string{"crane", "allot", "bolt", "anchor"} {
			marks := Evaluate(w, w)
			require.Len(t, marks, len(w))
			assert.True(t, AllCorrect(marks), "word %q", w)
		}
	})

	t.Run("duplicate letters never exceed solution count", func(t *testing.T) {
		// "allot" has two l's; "lolly" guesses three. Only two may be
		// non-absent, resolved left to right.
		marks := Evaluate("allot", "lolly")
		nonAbsent := 0
		for i, r := range "lolly" {
			if r == 'l' && marks[i] != MarkAbsent {
				nonAbsent++
			}
		}
		assert.Equal(t, 2, nonAbsent)
		// Position 2 is an exact match for the second l of "allot".
		assert.Equal(t, MarkCorrect, marks[2])
	})

	t.Run("exact positions win over earlier presents", func(t *testing.T) {
		// Solution "abbey", guess "babes": the b at index 2 is exact; the
		// leading b consumes the remaining b as present.
		marks := Evaluate("abbey", "babes")
		assert.Equal(t, MarkPresent, marks[0])
		assert.Equal(t, MarkPresent, marks[1])
		assert.Equal(t, MarkCorrect, marks[2])
		assert.Equal(t, MarkCorrect, marks[3])
		assert.Equal(t, MarkAbsent, marks[4])
	})

	t.Run("non-absent marks bounded for every letter", func(t *testing.T) {
		pairs := [][2]string{
			{"crane", "eerie"},
			{"sassy", "asses"},
			{"lolly", "allot"},
			{"plume", "melee"},
		}
		for _, p := range pairs {
			solution, guess := p[0], p[1]
			marks := Evaluate(solution, guess)
			for ch := byte('a'); ch <= 'z'; ch++ {
				inSolution := strings.Count(solution, string(ch))
				nonAbsent := 0
				for i := range guess {
					if guess[i] == ch && marks[i] != MarkAbsent {
						nonAbsent++
					}
				}
				assert.LessOrEqual(t, nonAbsent, inSolution,
					"letter %q of guess %q vs %q", string(ch), guess, solution)
			}
		}
	})
}

func TestKeyboardHints(t *testing.T) {
	words := []string{"slate", "crane"}
	evals := [][]Mark{
		Evaluate("crane", "slate"),
		Evaluate("crane", "crane"),
	}
	hints := KeyboardHints(words, evals)

	assert.Equal(t, MarkCorrect, hints["c"])
	assert.Equal(t, MarkCorrect, hints["a"])
	// a was present in "slate" but upgraded to correct by "crane".
	assert.Equal(t, MarkAbsent, hints["s"])
	assert.Equal(t, MarkAbsent, hints["l"])
	// e: absent? "slate" e at index 4 vs crane e at index 4 → correct.
	assert.Equal(t, MarkCorrect, hints["e"])
}
