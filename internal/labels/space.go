package labels

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrSpaceTooLarge is returned when a pattern expands to more candidates
// than can be indexed.
var ErrSpaceTooLarge = errors.New("candidate space too large")

// Space is an indexed, read-only view of a candidate label set.
// At must be defined for every i in [0, Len()).
type Space interface {
	Len() int64
	At(i int64) string
	Contains(label string) bool
}

// Collect materializes every label of s in index order.
// Only use it for small spaces; large runs should stream At instead.
func Collect(s Space) []string {
	out := make([]string, 0, s.Len())
	for i := int64(0); i < s.Len(); i++ {
		out = append(out, s.At(i))
	}
	return out
}

// block is the contiguous index range holding labels of one length
type block struct {
	start     int64
	size      int64
	suffixLen int
}

// PatternSpace enumerates a Pattern over a length range.
// Labels are ordered by length, then lexicographically by charset index.
type PatternSpace struct {
	pattern Pattern
	charset string
	min     int
	max     int
	blocks  []block
	total   int64
	inSet   [256]bool
}

// NewPatternSpace builds the space for p over lengths [min, max].
// charset must already be normalized (see NormalizeCharset).
func NewPatternSpace(p Pattern, min, max int, charset string) (*PatternSpace, error) {
	if min > max {
		return nil, fmt.Errorf("min length %d greater than max length %d", min, max)
	}
	if p.Wildcard && charset == "" {
		return nil, errors.New("charset cannot be empty")
	}

	s := &PatternSpace{pattern: p, charset: charset, min: min, max: max}
	for i := 0; i < len(charset); i++ {
		s.inSet[charset[i]] = true
	}

	prefixLen := len(p.Prefix)
	for length := min; length <= max; length++ {
		if length < prefixLen {
			continue
		}
		k := length - prefixLen
		var size int64
		switch {
		case k == 0:
			size = 1
		case p.Wildcard:
			n, ok := pow(int64(len(charset)), k)
			if !ok {
				return nil, fmt.Errorf("%w: %d^%d labels of length %d", ErrSpaceTooLarge, len(charset), k, length)
			}
			size = n
		default:
			continue
		}
		if s.total > math.MaxInt64-size {
			return nil, fmt.Errorf("%w: more than %d labels", ErrSpaceTooLarge, int64(math.MaxInt64))
		}
		s.blocks = append(s.blocks, block{start: s.total, size: size, suffixLen: k})
		s.total += size
	}
	return s, nil
}

// Len returns the number of labels in the space
func (s *PatternSpace) Len() int64 { return s.total }

// At returns the i-th label. It panics if i is out of range.
func (s *PatternSpace) At(i int64) string {
	if i < 0 || i >= s.total {
		panic(fmt.Sprintf("labels: index %d out of range [0,%d)", i, s.total))
	}
	var b block
	for _, b = range s.blocks {
		if i < b.start+b.size {
			break
		}
	}
	if b.suffixLen == 0 {
		return s.pattern.Prefix
	}

	off := i - b.start
	base := int64(len(s.charset))
	buf := make([]byte, len(s.pattern.Prefix)+b.suffixLen)
	copy(buf, s.pattern.Prefix)
	for pos := len(buf) - 1; pos >= len(s.pattern.Prefix); pos-- {
		buf[pos] = s.charset[off%base]
		off /= base
	}
	return string(buf)
}

// Contains reports whether label is a member of the space without enumerating it
func (s *PatternSpace) Contains(label string) bool {
	if len(label) < s.min || len(label) > s.max {
		return false
	}
	if !strings.HasPrefix(label, s.pattern.Prefix) {
		return false
	}
	rest := label[len(s.pattern.Prefix):]
	if rest == "" {
		return true
	}
	if !s.pattern.Wildcard {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if !s.inSet[rest[i]] {
			return false
		}
	}
	return true
}

// pow returns base^exp and false if the result overflows int64
func pow(base int64, exp int) (int64, bool) {
	result := int64(1)
	for i := 0; i < exp; i++ {
		if base != 0 && result > math.MaxInt64/base {
			return 0, false
		}
		result *= base
	}
	return result, true
}

// WordSpace is a Space over an in-memory list of words
type WordSpace struct {
	words []string
	index map[string]struct{}
}

// NewWordSpace keeps the words whose length lies in [min, max], preserving
// input order. Repeated words are kept once.
func NewWordSpace(words []string, min, max int) *WordSpace {
	filtered := FromWords(words, min, max)
	kept := filtered[:0:0]
	idx := make(map[string]struct{}, len(filtered))
	for _, w := range filtered {
		if _, dup := idx[w]; dup {
			continue
		}
		idx[w] = struct{}{}
		kept = append(kept, w)
	}
	return &WordSpace{words: kept, index: idx}
}

// Len returns the number of words in the space
func (s *WordSpace) Len() int64 { return int64(len(s.words)) }

// At returns the i-th word
func (s *WordSpace) At(i int64) string { return s.words[i] }

// Contains reports whether label is one of the words
func (s *WordSpace) Contains(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Generate materializes a pattern space. Convenience for small spaces and tests.
func Generate(p Pattern, min, max int, charset string) ([]string, error) {
	s, err := NewPatternSpace(p, min, max, charset)
	if err != nil {
		return nil, err
	}
	return Collect(s), nil
}

// FromWords returns the subsequence of words whose length lies in [min, max]
func FromWords(words []string, min, max int) []string {
	var out []string
	for _, w := range words {
		if len(w) < min || len(w) > max {
			continue
		}
		out = append(out, w)
	}
	return out
}
