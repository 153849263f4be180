package labels

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dcheck/dcheck/internal/types"
)

// Wildcard is the trailing expansion marker in a pattern
const Wildcard = "*"

// Pattern is a parsed candidate pattern such as "ab*"
type Pattern struct {
	Prefix   string
	Wildcard bool
}

// String renders the pattern back to its textual form
func (p Pattern) String() string {
	if p.Wildcard {
		return p.Prefix + Wildcard
	}
	return p.Prefix
}

// ParsePattern validates and normalizes a textual pattern.
// At most one '*' is allowed and only at the end; the prefix is lowercased
// and may contain only letters, digits and hyphens.
func ParsePattern(s string) (Pattern, error) {
	if strings.Count(s, Wildcard) > 1 {
		return Pattern{}, errors.New("only a single trailing '*' wildcard is supported")
	}
	p := Pattern{Prefix: s}
	if strings.Contains(s, Wildcard) {
		if !strings.HasSuffix(s, Wildcard) {
			return Pattern{}, errors.New("'*' is only supported at the end of the pattern")
		}
		p.Prefix = strings.TrimSuffix(s, Wildcard)
		p.Wildcard = true
	}
	if p.Prefix == "" {
		return Pattern{}, errors.New("pattern prefix cannot be empty")
	}
	p.Prefix = strings.ToLower(p.Prefix)
	if !types.ValidLabel(p.Prefix) {
		return Pattern{}, errors.New("pattern prefix may only contain letters, digits, or hyphens")
	}
	return p, nil
}

// NormalizeCharset lowercases cs and drops repeated characters, keeping the
// first occurrence so expansion order follows the caller's ordering.
func NormalizeCharset(cs string) (string, error) {
	cs = strings.ToLower(cs)
	if cs == "" {
		return "", errors.New("charset cannot be empty")
	}

	var invalid []string
	seen := make(map[rune]bool)
	var b strings.Builder
	for _, r := range cs {
		if !types.IsLabelChar(r) {
			if !seen[r] {
				invalid = append(invalid, string(r))
			}
			seen[r] = true
			continue
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		b.WriteRune(r)
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return "", fmt.Errorf("charset contains invalid characters for domain labels: %s", strings.Join(invalid, ""))
	}
	return b.String(), nil
}
