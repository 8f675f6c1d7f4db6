package game

import "unicode/utf8"

// notScoring marks a word of playable length that is either not on the board
// or not in the dictionary. It never leaves this package.
const notScoring = -1

// rawScore applies the length table; invalid words of length >= 3 yield
// notScoring.
func rawScore(word string, valid bool) int {
	n := utf8.RuneCountInString(word)
	switch {
	case n < 3:
		return 0
	case !valid:
		return notScoring
	case n <= 4:
		return 1
	case n == 5:
		return 2
	case n == 6:
		return 3
	case n == 7:
		return 5
	default:
		return 11
	}
}

// Score returns the points earned by word given whether it can be traced on
// the board and whether it is a dictionary word. The result is never
// negative: short and invalid words are worth 0.
func Score(word string, onBoard, inDictionary bool) int {
	return max(rawScore(word, onBoard && inDictionary), 0)
}
