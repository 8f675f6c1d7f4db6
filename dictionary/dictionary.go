// Package dictionary loads the list of playable words and answers membership
// queries for it.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/samber/lo"

	"github.com/cyberinferno/boggle-server/safeset"
	"github.com/cyberinferno/boggle-server/utils"
)

// Dictionary is a read-mostly set of upper-case words.
type Dictionary struct {
	words *safeset.SafeSet[string]
}

// New creates a dictionary holding words.
func New(words ...string) *Dictionary {
	d := &Dictionary{words: safeset.NewSafeSet[string]()}
	d.Add(words...)
	return d
}

// Load reads a word list file, one word per line.
//
// Parameters:
//   - path: Path of the word list
//
// Returns:
//   - The loaded dictionary
//   - An error if the file cannot be opened or read
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary %s: %w", path, err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
	}

	return d, nil
}

// Read builds a dictionary from r. Lines are trimmed and upper-cased; blank
// lines are skipped.
func Read(r io.Reader) (*Dictionary, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return New(words...), nil
}

// Add inserts words, normalized, and returns how many were new.
func (d *Dictionary) Add(words ...string) int {
	normalized := lo.Filter(lo.Map(words, func(w string, _ int) string {
		return utils.NormalizeWord(w)
	}), func(w string, _ int) bool {
		return w != ""
	})

	return d.words.AddAll(normalized)
}

// Contains reports whether word is in the dictionary, ignoring case and
// surrounding white space.
func (d *Dictionary) Contains(word string) bool {
	return d.words.Contains(utils.NormalizeWord(word))
}

// Size returns the number of distinct words.
func (d *Dictionary) Size() int {
	return d.words.Size()
}
