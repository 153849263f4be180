package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnv
const (
	EnvTLD          = "DCHECK_TLD"
	EnvCharset      = "DCHECK_CHARSET"
	EnvRate         = "DCHECK_RATE"
	EnvConcurrency  = "DCHECK_CONCURRENCY"
	EnvTimeout      = "DCHECK_TIMEOUT"
	EnvRetries      = "DCHECK_RETRIES"
	EnvOutput       = "DCHECK_OUTPUT"
	EnvProgressFile = "DCHECK_PROGRESS_FILE"
	EnvShuffle      = "DCHECK_SHUFFLE"
	EnvSeed         = "DCHECK_SEED"
	EnvNoProgress   = "DCHECK_NO_PROGRESS"
	EnvEndpoint     = "DCHECK_ENDPOINT"
	EnvInsecure     = "DCHECK_INSECURE"
	EnvStatusAddr   = "DCHECK_STATUS_ADDR"
)

// ApplyEnv overrides fields of c from DCHECK_* environment variables.
// Unset variables leave the current value alone.
func (c *CheckConfig) ApplyEnv() error {
	if err := parseEnvString(EnvTLD, &c.TLD); err != nil {
		return err
	}
	if err := parseEnvString(EnvCharset, &c.Charset); err != nil {
		return err
	}
	if err := parseEnvFloat(EnvRate, &c.Rate); err != nil {
		return err
	}
	if err := parseEnvInt(EnvConcurrency, &c.Concurrency); err != nil {
		return err
	}
	if err := parseEnvDuration(EnvTimeout, &c.Timeout); err != nil {
		return err
	}
	if err := parseEnvInt(EnvRetries, &c.Retries); err != nil {
		return err
	}
	if err := parseEnvString(EnvOutput, &c.Output); err != nil {
		return err
	}
	if err := parseEnvString(EnvProgressFile, &c.ProgressFile); err != nil {
		return err
	}
	if err := parseEnvBool(EnvShuffle, &c.Shuffle); err != nil {
		return err
	}
	if err := parseEnvUint(EnvSeed, &c.Seed); err != nil {
		return err
	}
	if err := parseEnvBool(EnvNoProgress, &c.NoProgress); err != nil {
		return err
	}
	if err := parseEnvString(EnvEndpoint, &c.Endpoint); err != nil {
		return err
	}
	if err := parseEnvBool(EnvInsecure, &c.Insecure); err != nil {
		return err
	}
	if err := parseEnvString(EnvStatusAddr, &c.StatusAddr); err != nil {
		return err
	}
	return nil
}

// parseEnvInt parses an integer from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: invalid value for %s: %w", ErrInvalidConfig, key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvUint parses an unsigned integer from an environment variable
func parseEnvUint(key string, dest *uint64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid value for %s: %w", ErrInvalidConfig, key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid value for %s: %w", ErrInvalidConfig, key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: invalid value for %s: %w", ErrInvalidConfig, key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration (e.g. "10s", "1d") from an environment variable
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := parseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: invalid value for %s: %w", ErrInvalidConfig, key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	*dest = value
	return nil
}
