// Package wordlist loads candidate words from files and fetches the
// well-known public wordlists.
package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dcheck/dcheck/internal/types"
)

// ErrNoWords is returned when a wordlist yields no usable words
var ErrNoWords = errors.New("no valid words found in wordlist file")

// Load reads one word per line from path. Lines are trimmed and lowercased;
// blank lines are skipped and words with characters outside the label
// alphabet are reported to diag and skipped. Words longer than maxLen are
// dropped silently (maxLen <= 0 disables the filter).
func Load(path string, maxLen int, diag io.Writer) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("wordlist file not found: %s", path)
		}
		return nil, fmt.Errorf("error reading wordlist file: %w", err)
	}
	defer f.Close()

	return Read(f, maxLen, diag)
}

// Read is Load over an already open reader
func Read(r io.Reader, maxLen int, diag io.Writer) ([]string, error) {
	if diag == nil {
		diag = io.Discard
	}

	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("error reading wordlist file (encoding issue): invalid UTF-8 at line %d", lineNum)
		}
		word := strings.ToLower(strings.TrimSpace(line))
		if word == "" {
			continue
		}
		if !types.ValidLabel(word) {
			fmt.Fprintf(diag, "Warning: Skipping invalid word '%s' at line %d (contains invalid characters for domain labels)\n", word, lineNum)
			continue
		}
		if maxLen > 0 && len(word) > maxLen {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading wordlist file: %w", err)
	}

	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return words, nil
}
