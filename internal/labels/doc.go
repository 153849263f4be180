// Package labels produces candidate second-level labels.
//
// Two sources are supported:
//   - Pattern mode: a literal prefix with an optional trailing '*' that is
//     expanded with every combination of a charset, for each length in an
//     inclusive range.
//   - Wordlist mode: an already cleaned list of words filtered by length.
//
// Both are exposed as a Space, an indexed view of the candidate set that is
// never materialized. Callers stream Space.At over [0, Len()) either in order
// or through a seeded Permutation when the run is shuffled.
package labels
