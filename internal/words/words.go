// internal/words/words.go
//
// Vocabulary management for the scramble game.
//
// Responsibilities:
//   - Load the fixed vocabulary from a file (WORDS_FILE) or fall back to the
//     embedded default list in assets/vocabulary.txt.
//   - Normalize words: trimmed, uppercase, letters only, de-duplicated.
//   - Pick a random word that has not been presented yet in the session.
//
// Constraints:
//   • Words are uppercase A–Z only; anything else is dropped on load.
//   • An empty vocabulary is a load error, but NewBank accepts any list so
//     callers (and tests) can build degenerate banks on purpose.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/scramble/assets"
)

// ErrEmptyVocabulary is returned by Load when no usable word remains.
var ErrEmptyVocabulary = errors.New("words: vocabulary is empty")

// Bank is the fixed vocabulary of one game.
// It is immutable after construction and safe to share between sessions.
type Bank struct {
	words []string
	set   map[string]struct{}
}

// NewBank builds a Bank from list after normalization.
func NewBank(list []string) *Bank {
	ws := normalize(list)
	set := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		set[w] = struct{}{}
	}
	return &Bank{words: ws, set: set}
}

// Load reads the vocabulary from path, one word per line.
// An empty path selects the embedded default list.
func Load(path string) (*Bank, error) {
	var (
		list []string
		err  error
	)
	if path == "" {
		list, err = assets.Vocabulary()
	} else {
		list, err = readWordFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	b := NewBank(list)
	if b.Len() == 0 {
		return nil, ErrEmptyVocabulary
	}
	return b, nil
}

// readWordFile loads one word per line, skipping blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// normalize uppercases, drops non-alphabetic entries and duplicates,
// preserving first-seen order.
func normalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" && isAlpha(w) {
			out = append(out, w)
		}
	}
	return lo.Uniq(out)
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Len returns the vocabulary size.
func (b *Bank) Len() int { return len(b.words) }

// Words returns a copy of the vocabulary.
func (b *Bank) Words() []string { return append([]string(nil), b.words...) }

// Contains reports whether w (any case) is part of the vocabulary.
func (b *Bank) Contains(w string) bool {
	_, ok := b.set[strings.ToUpper(w)]
	return ok
}

// Select returns a uniformly random word that is not in used.
// The boolean is false once used covers the whole vocabulary.
func (b *Bank) Select(used []string, src Source) (string, bool) {
	remaining := lo.Without(b.words, used...)
	if len(remaining) == 0 {
		return "", false
	}
	return remaining[src.Intn(len(remaining))], true
}
