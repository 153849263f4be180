package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = ".dcheck.yaml"

// FileConfig represents the YAML configuration file. Pointer fields
// distinguish "unset" from zero values.
type FileConfig struct {
	TLD          *string  `yaml:"tld"`
	Charset      *string  `yaml:"charset"`
	Min          *int     `yaml:"min"`
	Max          *int     `yaml:"max"`
	Rate         *float64 `yaml:"rate"`
	Concurrency  *int     `yaml:"concurrency"`
	Timeout      string   `yaml:"timeout"` // e.g. "10s", "1m"
	Retries      *int     `yaml:"retries"`
	Output       *string  `yaml:"output"`
	ProgressFile *string  `yaml:"progress_file"`
	Shuffle      *bool    `yaml:"shuffle"`
	Seed         *uint64  `yaml:"seed"`
	NoProgress   *bool    `yaml:"no_progress"`
	Endpoint     *string  `yaml:"endpoint"`
	Insecure     *bool    `yaml:"insecure"`
	StatusAddr   *string  `yaml:"status_addr"`
}

// LoadFile reads a YAML config file. A missing file at the default location
// is not an error and yields an empty FileConfig; a missing file that was
// asked for explicitly is.
func LoadFile(path string, explicit bool) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: parsing config file %s: %w", ErrInvalidConfig, path, err)
	}
	return &fc, nil
}

// Apply overlays the values set in the file onto c
func (fc *FileConfig) Apply(c *CheckConfig) error {
	setString(&c.TLD, fc.TLD)
	setString(&c.Charset, fc.Charset)
	setString(&c.Output, fc.Output)
	setString(&c.ProgressFile, fc.ProgressFile)
	setString(&c.Endpoint, fc.Endpoint)
	setString(&c.StatusAddr, fc.StatusAddr)
	setInt(&c.MinLen, fc.Min)
	setInt(&c.MaxLen, fc.Max)
	setInt(&c.Concurrency, fc.Concurrency)
	setInt(&c.Retries, fc.Retries)
	setBool(&c.Shuffle, fc.Shuffle)
	setBool(&c.NoProgress, fc.NoProgress)
	setBool(&c.Insecure, fc.Insecure)
	if fc.Rate != nil {
		c.Rate = *fc.Rate
	}
	if fc.Seed != nil {
		c.Seed = *fc.Seed
	}
	if fc.Timeout != "" {
		d, err := parseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("%w: timeout: %w", ErrInvalidConfig, err)
		}
		c.Timeout = d
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// parseDuration parses a duration string with support for days (e.g., "1d").
// A bare number is taken as seconds.
func parseDuration(s string) (time.Duration, error) {
	// Handle day suffix
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
