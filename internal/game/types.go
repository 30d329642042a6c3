// internal/game/types.go
//
// Core type definitions for guess evaluation.
// Defines:
//   - Mark: per-letter result of a guess (correct/present/absent).

package game

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is correct and in the correct position.
//   - "present": letter exists in the solution but in a different position.
//   - "absent":  no remaining occurrence of the letter in the solution.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// rank orders marks by information value, used when merging keyboard hints.
func rank(m Mark) int {
	switch m {
	case MarkCorrect:
		return 2
	case MarkPresent:
		return 1
	default:
		return 0
	}
}
