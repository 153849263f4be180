// Package prober performs one classified, retried RDAP lookup per domain.
package prober

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dcheck/dcheck/internal/types"
)

// Defaults for the RDAP lookup service
const (
	DefaultEndpoint  = "https://rdap.org"
	DefaultUserAgent = "domain-checker/0.1"

	// snippetLen bounds how much of an unexpected response body is logged
	snippetLen = 200
)

// Doer is the subset of *http.Client the prober needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds lookup and retry settings
type Config struct {
	Endpoint  string        // Base URL; requests go to <Endpoint>/domain/<fqn>
	UserAgent string        // Identifying client header
	Timeout   time.Duration // Per-attempt timeout (default: 10s)
	Retries   int           // Retries after the first attempt (default: 2)

	// Backoff before retry attempt n (0-based) is base*(n+1).
	// Timeouts are retried without delay.
	TLSBackoff       time.Duration // default: 500ms
	TransportBackoff time.Duration // default: 300ms

	// Diagnostics receives terminal failure reasons and unexpected responses.
	// Defaults to os.Stderr.
	Diagnostics io.Writer
}

// DefaultConfig returns the default prober configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:         DefaultEndpoint,
		UserAgent:        DefaultUserAgent,
		Timeout:          10 * time.Second,
		Retries:          2,
		TLSBackoff:       500 * time.Millisecond,
		TransportBackoff: 300 * time.Millisecond,
		Diagnostics:      os.Stderr,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %v)", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative (got %d)", c.Retries)
	}
	if c.TLSBackoff < 0 || c.TransportBackoff < 0 {
		return errors.New("backoff cannot be negative")
	}
	return nil
}

// Prober classifies a single domain as available, registered or indeterminate.
// It is safe for concurrent use when its Doer is.
type Prober struct {
	cfg    Config
	client Doer
}

// New creates a prober issuing requests through client
func New(cfg Config, client Doer) (*Prober, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prober configuration: %w", err)
	}
	if client == nil {
		return nil, errors.New("http client is required")
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = io.Discard
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Prober{cfg: cfg, client: client}, nil
}

// failureKind buckets transport failures by retry policy
type failureKind int

const (
	failureTransport failureKind = iota
	failureTimeout
	failureTLS
)

func (k failureKind) String() string {
	switch k {
	case failureTimeout:
		return "timeout"
	case failureTLS:
		return "tls"
	default:
		return "transport"
	}
}

// Check looks up fqn, retrying attempts that produced no usable answer.
//
// A 404 is Available and a 200 is Registered; any other status is
// Indeterminate and not retried because the round trip itself succeeded.
// Timeouts are retried immediately, TLS and other transport failures after a
// short linear backoff. Exhausting the retry budget yields Indeterminate.
// Check never returns an error: failures are part of the Result.
func (p *Prober) Check(ctx context.Context, fqn string) types.Result {
	start := time.Now()
	url := p.cfg.Endpoint + "/domain/" + fqn
	res := types.Result{FQN: fqn, Outcome: types.OutcomeIndeterminate}

	var lastErr error
	var lastKind failureKind
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		res.Attempts = attempt + 1

		status, snippet, err := p.attempt(ctx, url)
		if err == nil {
			res.Status = status
			switch status {
			case http.StatusNotFound:
				res.Outcome = types.OutcomeAvailable
			case http.StatusOK:
				res.Outcome = types.OutcomeRegistered
			default:
				res.Reason = fmt.Sprintf("unexpected status %d", status)
				fmt.Fprintf(p.cfg.Diagnostics, "Unexpected RDAP response %d for %s: %s\n", status, fqn, snippet)
			}
			res.Elapsed = time.Since(start)
			return res
		}

		if ctx.Err() != nil {
			res.Reason = "canceled"
			res.Elapsed = time.Since(start)
			return res
		}

		lastErr, lastKind = err, classify(err)
		if attempt == p.cfg.Retries {
			break
		}

		var delay time.Duration
		switch lastKind {
		case failureTLS:
			delay = p.cfg.TLSBackoff * time.Duration(attempt+1)
		case failureTransport:
			delay = p.cfg.TransportBackoff * time.Duration(attempt+1)
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				res.Reason = "canceled"
				res.Elapsed = time.Since(start)
				return res
			}
		}
	}

	attempts := p.cfg.Retries + 1
	switch lastKind {
	case failureTimeout:
		res.Reason = fmt.Sprintf("timeout after %d attempts", attempts)
		fmt.Fprintf(p.cfg.Diagnostics, "Timeout querying %s after %d attempts\n", fqn, attempts)
	case failureTLS:
		res.Reason = fmt.Sprintf("tls error after %d attempts: %v", attempts, lastErr)
		fmt.Fprintf(p.cfg.Diagnostics, "TLS error for %s after %d attempts: %v\n", fqn, attempts, lastErr)
	default:
		res.Reason = fmt.Sprintf("request error after %d attempts: %v", attempts, lastErr)
		fmt.Fprintf(p.cfg.Diagnostics, "Request error for %s after %d attempts: %v\n", fqn, attempts, lastErr)
	}
	res.Elapsed = time.Since(start)
	return res
}

// attempt performs one request under the per-attempt timeout.
// A non-nil error means no usable answer was obtained.
func (p *Prober) attempt(ctx context.Context, url string) (status int, snippet string, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "application/rdap+json, application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		// Drain so the connection returns to the pool
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return resp.StatusCode, "", nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4*snippetLen))
	if readErr != nil && len(body) == 0 {
		return resp.StatusCode, fmt.Sprintf("<unreadable body: %v>", readErr), nil
	}
	return resp.StatusCode, truncate(string(body), snippetLen), nil
}

// classify maps a transport error to its retry policy
func classify(err error) failureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}

	var (
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &alertErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) || errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return failureTLS
	}
	if strings.Contains(err.Error(), "tls: ") {
		return failureTLS
	}
	return failureTransport
}

// truncate shortens s to at most n runes without splitting a character
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
