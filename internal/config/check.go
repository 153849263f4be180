// Package config holds the settings of a probing run and their sources:
// defaults, an optional YAML file, DCHECK_* environment variables (optionally
// loaded from a .env file) and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/dcheck/dcheck/internal/labels"
	"github.com/dcheck/dcheck/internal/prober"
)

// ErrInvalidConfig wraps every configuration error. Configuration errors are
// fatal and reported before any lookup is made.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultCharset is used for wildcard expansion when none is given
const DefaultCharset = "abcdefghijklmnopqrstuvwxyz"

// CheckConfig holds configuration for one availability run
type CheckConfig struct {
	// Pattern is a label prefix with an optional trailing '*'.
	// Exactly one of Pattern and Wordlist must be set.
	Pattern string

	// Wordlist is a file with one candidate label per line
	Wordlist string

	// TLD is the top-level suffix appended to every label
	// Default: "com"
	TLD string

	// MinLen and MaxLen bound label length (inclusive). MaxLen is required.
	// MinLen 0 means MaxLen in pattern mode and 1 in wordlist mode.
	MinLen int
	MaxLen int

	// Charset is used to fill the wildcard
	// Default: a-z
	Charset string

	// Rate is the global lookup rate in requests per second. 0 disables throttling.
	// Default: 10
	Rate float64

	// Concurrency is the number of lookup workers
	// Default: 20
	Concurrency int

	// Timeout bounds each lookup attempt
	// Default: 10s
	Timeout time.Duration

	// Retries is the number of retries after a failed attempt
	// Default: 2
	Retries int

	// Output receives available domains, one per line. Empty disables it.
	// Default: "available_domains.txt"
	Output string

	// Resume skips domains recorded in ProgressFile by an interrupted run
	Resume bool

	// ProgressFile is the checkpoint location: a JSON file, a .db/.sqlite
	// journal, or a redis:// URL. Empty disables checkpointing.
	// Default: ".dcheck_progress.json"
	ProgressFile string

	// Shuffle randomizes lookup order; Seed makes it reproducible (0 = random)
	Shuffle bool
	Seed    uint64

	// NoProgress disables the periodic progress line
	NoProgress bool

	// Endpoint is the RDAP service base URL
	// Default: "https://rdap.org"
	Endpoint string

	// Insecure disables TLS certificate verification
	Insecure bool

	// StatusAddr, if set, serves live run status over HTTP (e.g. "127.0.0.1:8080")
	StatusAddr string

	// XLSX, if set, receives a spreadsheet report when the run ends
	XLSX string
}

// DefaultCheckConfig returns the default run configuration
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		TLD:          "com",
		Charset:      DefaultCharset,
		Rate:         10,
		Concurrency:  20,
		Timeout:      10 * time.Second,
		Retries:      2,
		Output:       "available_domains.txt",
		ProgressFile: ".dcheck_progress.json",
		Endpoint:     prober.DefaultEndpoint,
	}
}

// WordlistMode reports whether candidates come from a wordlist
func (c CheckConfig) WordlistMode() bool {
	return c.Wordlist != ""
}

// EffectiveMinLen resolves the MinLen default
func (c CheckConfig) EffectiveMinLen() int {
	if c.MinLen != 0 {
		return c.MinLen
	}
	if c.WordlistMode() {
		return 1
	}
	return c.MaxLen
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks if the configuration has valid values
func (c CheckConfig) Validate() error {
	if c.Pattern != "" && c.Wordlist != "" {
		return invalid("cannot specify both pattern and --wordlist, choose one mode")
	}
	if c.Pattern == "" && c.Wordlist == "" {
		return invalid("must specify either a pattern or --wordlist")
	}

	if c.MaxLen <= 0 {
		return invalid("--max must be positive (got %d)", c.MaxLen)
	}
	minLen := c.EffectiveMinLen()
	if minLen <= 0 {
		return invalid("--min must be positive (got %d)", minLen)
	}
	if minLen > c.MaxLen {
		return invalid("--min cannot be greater than --max (%d > %d)", minLen, c.MaxLen)
	}

	if !c.WordlistMode() {
		p, err := labels.ParsePattern(c.Pattern)
		if err != nil {
			return invalid("%v", err)
		}
		if !p.Wildcard && (minLen != len(p.Prefix) || c.MaxLen != len(p.Prefix)) {
			return invalid("pattern without '*' only supports exact length lookups")
		}
		if p.Wildcard {
			if _, err := labels.NormalizeCharset(c.Charset); err != nil {
				return invalid("%v", err)
			}
		}
	}

	if err := validateSuffix(c.TLD); err != nil {
		return err
	}
	if c.Rate < 0 {
		return invalid("--rate cannot be negative (got %v)", c.Rate)
	}
	if c.Concurrency < 1 {
		return invalid("--concurrency must be at least 1 (got %d)", c.Concurrency)
	}
	if c.Timeout <= 0 {
		return invalid("--timeout must be positive (got %v)", c.Timeout)
	}
	if c.Retries < 0 {
		return invalid("--retries cannot be negative (got %d)", c.Retries)
	}
	if c.Resume && c.ProgressFile == "" {
		return invalid("--resume requires a progress file")
	}
	if c.Endpoint == "" {
		return invalid("endpoint cannot be empty")
	}
	return nil
}

func validateSuffix(tld string) error {
	tld = strings.TrimPrefix(strings.ToLower(tld), ".")
	if tld == "" {
		return invalid("--tld cannot be empty")
	}
	for _, part := range strings.Split(tld, ".") {
		if part == "" {
			return invalid("--tld %q has an empty component", tld)
		}
		for _, r := range part {
			if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
				return invalid("--tld %q contains invalid character %q", tld, r)
			}
		}
	}
	return nil
}

// Suffix returns the normalized top-level suffix
func (c CheckConfig) Suffix() string {
	return strings.TrimPrefix(strings.ToLower(c.TLD), ".")
}

// SuffixWarning returns a warning when the suffix is not an ICANN-managed
// public suffix, or "" if it is. Unknown suffixes are allowed but RDAP
// lookups for them will usually fail.
func (c CheckConfig) SuffixWarning() string {
	suffix := c.Suffix()
	ps, icann := publicsuffix.PublicSuffix("example." + suffix)
	if ps != suffix {
		return fmt.Sprintf("%q is not a known public suffix (nearest is %q)", suffix, ps)
	}
	// Unlisted single-label suffixes fall through to the implicit "*" rule.
	if !icann && !strings.Contains(ps, ".") {
		return fmt.Sprintf("%q is not a known public suffix", suffix)
	}
	if !icann {
		return fmt.Sprintf("%q is a privately managed suffix; RDAP may not cover it", suffix)
	}
	return ""
}

// Candidates builds the candidate space. words is the loaded wordlist and is
// ignored in pattern mode. Call Validate first.
func (c CheckConfig) Candidates(words []string) (labels.Space, error) {
	minLen := c.EffectiveMinLen()
	if c.WordlistMode() {
		space := labels.NewWordSpace(words, minLen, c.MaxLen)
		if space.Len() == 0 {
			return nil, invalid("no domain labels generated with the provided arguments")
		}
		return space, nil
	}

	p, err := labels.ParsePattern(c.Pattern)
	if err != nil {
		return nil, invalid("%v", err)
	}
	charset := ""
	if p.Wildcard {
		if charset, err = labels.NormalizeCharset(c.Charset); err != nil {
			return nil, invalid("%v", err)
		}
	}
	space, err := labels.NewPatternSpace(p, minLen, c.MaxLen, charset)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if space.Len() == 0 {
		return nil, invalid("no domain labels generated with the provided arguments")
	}
	return space, nil
}

// ProberConfig derives the lookup settings
func (c CheckConfig) ProberConfig() prober.Config {
	pc := prober.DefaultConfig()
	pc.Endpoint = c.Endpoint
	pc.Timeout = c.Timeout
	pc.Retries = c.Retries
	return pc
}

// String returns a human-readable representation of the config
func (c CheckConfig) String() string {
	source := "pattern=" + c.Pattern
	if c.WordlistMode() {
		source = "wordlist=" + c.Wordlist
	}
	return fmt.Sprintf(
		"CheckConfig{%s, TLD: %s, Len: %d-%d, Rate: %v/s, Concurrency: %d, "+
			"Timeout: %v, Retries: %d, Resume: %t, Shuffle: %t, Progress: %s}",
		source, c.Suffix(), c.EffectiveMinLen(), c.MaxLen, c.Rate, c.Concurrency,
		c.Timeout, c.Retries, c.Resume, c.Shuffle, c.ProgressFile,
	)
}
