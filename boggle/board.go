// Package boggle models the 4x4 letter grid and answers whether a word can be
// traced on it.
package boggle

import (
	"fmt"
	"strings"

	"github.com/cyberinferno/boggle-server/utils"
)

const (
	// Size is the number of rows (and columns) on a board.
	Size = 4
	// Cells is the number of letters on a board.
	Cells = Size * Size
)

// dice are the sixteen standard Boggle cubes. A "Q" face reads as "QU".
var dice = [Cells]string{
	"AAEEGN", "ABBJOO", "ACHOPS", "AFFKPS",
	"AOOTTW", "CIMOTU", "DEILRX", "DELRVY",
	"DISTTY", "EEGHNW", "EEINSU", "EHRTVW",
	"EIOSST", "ELRTTY", "HIMNQU", "HLNNRZ",
}

// Board is a 4x4 letter grid stored row-major.
type Board struct {
	cells [Cells]byte
}

// NewBoard rolls the dice: dice are placed in random positions and each shows
// a random face.
func NewBoard() Board {
	var b Board
	for i, die := range utils.Shuffled(dice[:]) {
		b.cells[i] = utils.GetRandomElement([]byte(die))
	}

	return b
}

// ParseBoard builds a board from its 16-letter string form (case-insensitive).
func ParseBoard(s string) (Board, error) {
	var b Board
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != Cells {
		return b, fmt.Errorf("board must have %d letters, got %d", Cells, len(s))
	}

	for i := 0; i < Cells; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return b, fmt.Errorf("invalid board letter %q at %d", s[i], i)
		}
		b.cells[i] = s[i]
	}

	return b, nil
}

// String returns the 16-letter row-major form.
func (b Board) String() string {
	return string(b.cells[:])
}

// At returns the letter at row r, column c.
func (b Board) At(r, c int) byte {
	return b.cells[r*Size+c]
}

// CanForm reports whether word can be traced on the board by moving between
// horizontally, vertically or diagonally adjacent cells without reusing a
// cell. Comparison is case-insensitive. A Q cell must be matched by "QU".
func (b Board) CanForm(word string) bool {
	word = utils.NormalizeWord(word)
	if word == "" {
		return false
	}

	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return false
		}
	}

	for cell := 0; cell < Cells; cell++ {
		if b.search(word, 0, cell, 0) {
			return true
		}
	}

	return false
}

// search tries to match word[i:] starting at cell, given the cells already
// used on this path.
func (b Board) search(word string, i, cell int, used uint16) bool {
	next := b.match(cell, word, i)
	if next < 0 {
		return false
	}

	if next == len(word) {
		return true
	}

	used |= 1 << cell
	r, c := cell/Size, cell%Size
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			nr, nc := r+dr, c+dc
			if (dr == 0 && dc == 0) || nr < 0 || nr >= Size || nc < 0 || nc >= Size {
				continue
			}

			n := nr*Size + nc
			if used&(1<<n) != 0 {
				continue
			}

			if b.search(word, next, n, used) {
				return true
			}
		}
	}

	return false
}

// match returns the index in word after consuming cell's letter at i, or -1.
func (b Board) match(cell int, word string, i int) int {
	letter := b.cells[cell]
	if word[i] != letter {
		return -1
	}

	if letter == 'Q' {
		if i+1 >= len(word) || word[i+1] != 'U' {
			return -1
		}
		return i + 2
	}

	return i + 1
}
