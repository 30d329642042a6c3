// internal/words/words.go
//
// Word list management: the dictionary/validation service and the solution
// source for new rounds.
//
// Responsibilities:
//   - Load answer and allowed guess lists from environment-provided files or
//     fall back to the embedded defaults in assets/.
//   - Group words by length: sessions are created with a configurable
//     wordLength, so lookups and solution draws are per-length.
//   - Supply IsValid, NextSolution, and Stats.
//
// Word lists:
//   - "answers": canonical solutions.
//   - "allowed": valid guesses (always includes answers).
//
// Environment variables:
//   WORDS_ANSWERS_FILE=/path/to/answers.txt
//   WORDS_ALLOWED_FILE=/path/to/allowed.txt
//
// Constraints:
//   • Words must be alphabetic (a–z); lists are normalized to lowercase.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/mworrall/wordduel/assets"
)

var (
	initOnce   sync.Once
	answers    map[int][]string            // answers grouped by word length
	allowedSet map[int]map[string]struct{} // answers ∪ guesses, by length
	initialErr error
)

// ErrNoWords is returned when no answer exists for a requested length.
var ErrNoWords = errors.New("words: no answers for requested length")

// Init loads word lists exactly once.
// Returns an error if the answers pool ends up empty.
func Init() error {
	initOnce.Do(func() {
		var ansList, allowList []string

		answersPath := os.Getenv("WORDS_ANSWERS_FILE")
		allowedPath := os.Getenv("WORDS_ALLOWED_FILE")

		switch {
		// Case 1: both lists provided
		case answersPath != "" && allowedPath != "":
			var err error
			ansList, err = readWordFile(answersPath)
			if err != nil {
				initialErr = err
				return
			}
			allowList, err = readWordFile(allowedPath)
			if err != nil {
				initialErr = err
				return
			}

		// Case 2: only allowed file provided → use for both
		case answersPath == "" && allowedPath != "":
			var err error
			allowList, err = readWordFile(allowedPath)
			if err != nil {
				initialErr = err
				return
			}
			ansList = allowList

		// Case 3: fallback to embedded defaults
		default:
			var err error
			ansList, err = assets.AnswersList()
			if err != nil {
				initialErr = err
				return
			}
			allowList, err = assets.AllowedList()
			if err != nil {
				initialErr = err
				return
			}
		}

		answers = groupByLength(ansList)
		allowedSet = make(map[int]map[string]struct{})
		// Answers are always allowed guesses.
		for _, w := range append(append([]string{}, ansList...), allowList...) {
			n := len(w)
			if allowedSet[n] == nil {
				allowedSet[n] = make(map[string]struct{})
			}
			allowedSet[n][w] = struct{}{}
		}

		if len(answers) == 0 {
			initialErr = errors.New("words: answers list is empty")
		}
	})
	return initialErr
}

// readWordFile loads one word per line from a file,
// lowercases, trims, and keeps only alphabetic words.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if isAlpha(w) {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

func groupByLength(list []string) map[int][]string {
	out := make(map[int][]string)
	seen := make(map[string]struct{}, len(list))
	for _, w := range list {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out[len(w)] = append(out[len(w)], w)
	}
	return out
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// IsValid reports whether w is a valid guess of the given length.
func IsValid(w string, length int) bool {
	w = strings.ToLower(w)
	if len(w) != length {
		return false
	}
	_, ok := allowedSet[length][w]
	return ok
}

// NextSolution draws a cryptographically random answer of the given length.
func NextSolution(length int) (string, error) {
	pool := answers[length]
	if len(pool) == 0 {
		return "", fmt.Errorf("%w: %d", ErrNoWords, length)
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		// crypto/rand failure: fall back deterministically.
		return pool[0], nil
	}
	return pool[nBig.Int64()], nil
}

// Lengths returns the word lengths with at least one answer.
func Lengths() []int {
	var out []int
	for n := range answers {
		out = append(out, n)
	}
	return out
}

// Stats returns counts of loaded words: (answers, allowed).
func Stats() (answersCount int, allowedCount int) {
	for _, list := range answers {
		answersCount += len(list)
	}
	for _, set := range allowedSet {
		allowedCount += len(set)
	}
	return
}
