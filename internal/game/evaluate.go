// internal/game/evaluate.go
//
// Guess evaluation for a single word-duel round.
// Responsibilities:
//   - Score a guess against a solution with the classic two-pass algorithm,
//     which handles duplicate letters correctly.
//   - Derive keyboard hints (best-known mark per letter) from guess history.
//
// Evaluation is a pure function: callers pre-validate length and charset,
// so there are no error cases here.
package game

// Evaluate scores guess against solution, one Mark per letter.
//
// Pass 1:
//   - Mark exact matches as correct.
//   - Count remaining (non-correct) solution letters by letter index.
//
// Pass 2, left to right:
//   - For each non-correct guess letter: if there is remaining count for that
//     letter, mark present and decrement; otherwise mark absent.
//
// The counter guarantees the number of non-absent marks for any letter never
// exceeds its occurrence count in the solution, resolved by scan order.
func Evaluate(solution, guess string) []Mark {
	n := len(guess)
	res := make([]Mark, n)
	solRunes := []rune(solution)
	guessRunes := []rune(guess)

	// Letter availability for the non-correct positions (a–z).
	var counts [26]int

	for i := 0; i < n; i++ {
		if guessRunes[i] == solRunes[i] {
			res[i] = MarkCorrect
		} else {
			counts[idx(solRunes[i])]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkCorrect {
			continue
		}
		j := idx(guessRunes[i])
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res
}

// AllCorrect returns true if every mark is correct, i.e. a winning guess.
func AllCorrect(marks []Mark) bool {
	for _, m := range marks {
		if m != MarkCorrect {
			return false
		}
	}
	return true
}

// KeyboardHints folds guessed words and their evaluations into the best-known
// mark per letter. A correct mark is never downgraded by a later present or
// absent for the same letter.
func KeyboardHints(words []string, evals [][]Mark) map[string]Mark {
	hints := make(map[string]Mark)
	for gi, w := range words {
		if gi >= len(evals) {
			break
		}
		for i, r := range w {
			if i >= len(evals[gi]) {
				break
			}
			key := string(r)
			if prev, ok := hints[key]; !ok || rank(evals[gi][i]) > rank(prev) {
				hints[key] = evals[gi][i]
			}
		}
	}
	return hints
}

// idx maps a lowercase ASCII letter rune to 0..25.
// Assumes inputs are validated to a–z elsewhere.
func idx(r rune) int { return int(r - 'a') }

// IsAlpha checks that a string consists only of lowercase a–z.
func IsAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
