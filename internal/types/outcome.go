package types

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the classification of a single availability lookup
type Outcome string

// Outcome values
const (
	OutcomeAvailable     Outcome = "available"     // lookup service reported "not found"
	OutcomeRegistered    Outcome = "registered"    // lookup service reported "found"
	OutcomeIndeterminate Outcome = "indeterminate" // no reliable answer after retries
)

// LabelAlphabet is the set of characters allowed in a candidate label
const LabelAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789-"

// IsLabelChar reports whether r may appear in a candidate label
func IsLabelChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
}

// ValidLabel reports whether every character of s is in LabelAlphabet.
// The empty string is not a valid label.
func ValidLabel(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsLabelChar(r) {
			return false
		}
	}
	return true
}

// FQN builds the fully qualified name for label under suffix.
// The suffix is lowercased; the label is used as given.
func FQN(label, suffix string) string {
	return label + "." + strings.ToLower(suffix)
}

// SplitFQN is the inverse of FQN. It returns ok=false when name does not
// end in "."+suffix or the label part is empty.
func SplitFQN(name, suffix string) (label string, ok bool) {
	tail := "." + strings.ToLower(suffix)
	if !strings.HasSuffix(name, tail) {
		return "", false
	}
	label = strings.TrimSuffix(name, tail)
	if label == "" {
		return "", false
	}
	return label, true
}

// Result is the classified outcome of probing one FQN
type Result struct {
	FQN      string        `json:"fqn"`
	Outcome  Outcome       `json:"outcome"`
	Attempts int           `json:"attempts"`
	Status   int           `json:"status,omitempty"` // last HTTP status seen, 0 if none
	Reason   string        `json:"reason,omitempty"` // why the result is indeterminate
	Elapsed  time.Duration `json:"elapsed"`
}

// Counts is a point-in-time copy of run statistics.
// Completed == Available + Registered + Errors always holds.
type Counts struct {
	Available  int `json:"available"`
	Registered int `json:"registered"`
	Errors     int `json:"errors"`
	Completed  int `json:"completed"`
}

// String returns a human-readable representation of the counts
func (c Counts) String() string {
	return fmt.Sprintf("Available: %d, registered: %d, errors: %d", c.Available, c.Registered, c.Errors)
}
