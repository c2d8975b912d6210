// Package service implements the one-time password engine (HOTP/TOTP), provisioning URI
// formatting and QR rendering.
package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HOTP is defined over HMAC-SHA1
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
)

// pow10 holds 10^n for every supported code length.
var pow10 = [...]uint64{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000, 1_000_000_000, 10_000_000_000,
}

// Config configures an Engine. Zero values fall back to the otp/domain defaults.
type Config struct {
	Period     time.Duration
	Digits     int
	Window     int
	SeedLength int
}

// Engine generates seeds and computes and verifies time-based codes.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	period     time.Duration
	digits     int
	window     int
	seedLength int
	random     io.Reader
	now        func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock replaces the wall clock used by ComputeCurrentCode and Verify.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRandom replaces the random source used by GenerateSeed.
func WithRandom(r io.Reader) EngineOption {
	return func(e *Engine) {
		e.random = r
	}
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	if cfg.Period == 0 {
		cfg.Period = otpDomain.DefaultPeriod
	}
	if cfg.Digits == 0 {
		cfg.Digits = otpDomain.DefaultDigits
	}
	if cfg.SeedLength == 0 {
		cfg.SeedLength = otpDomain.DefaultSeedLength
	}

	if cfg.Period < time.Second || cfg.Period%time.Second != 0 {
		return nil, fmt.Errorf("%w: %s must be a whole number of seconds", otpDomain.ErrInvalidPeriod, cfg.Period)
	}
	if cfg.Digits < otpDomain.MinDigits || cfg.Digits > otpDomain.MaxDigits {
		return nil, fmt.Errorf("%w: %d", otpDomain.ErrInvalidDigits, cfg.Digits)
	}
	if cfg.Window < 0 {
		return nil, fmt.Errorf("verify window must not be negative, got %d", cfg.Window)
	}
	if cfg.SeedLength < 1 || cfg.SeedLength > otpDomain.MaxSeedLength {
		return nil, fmt.Errorf(
			"seed length must be between 1 and %d bytes, got %d",
			otpDomain.MaxSeedLength,
			cfg.SeedLength,
		)
	}

	e := &Engine{
		period:     cfg.Period,
		digits:     cfg.Digits,
		window:     cfg.Window,
		seedLength: cfg.SeedLength,
		random:     rand.Reader,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Digits returns the configured code length.
func (e *Engine) Digits() int {
	return e.digits
}

// Period returns the configured time step.
func (e *Engine) Period() time.Duration {
	return e.period
}

// GenerateSeed returns a fresh seed from the cryptographically secure random source.
func (e *Engine) GenerateSeed() (otpDomain.Seed, error) {
	seed := make(otpDomain.Seed, e.seedLength)
	if _, err := io.ReadFull(e.random, seed); err != nil {
		seed.Zero()
		return nil, fmt.Errorf("%w: %v", otpDomain.ErrEntropyUnavailable, err)
	}
	return seed, nil
}

// Counter maps an instant to its time step: floor(unix_seconds / period).
func (e *Engine) Counter(t time.Time) (uint64, error) {
	unix := t.Unix()
	if unix < 0 {
		return 0, fmt.Errorf("%w: %s", otpDomain.ErrInvalidTime, t.UTC().Format(time.RFC3339))
	}
	return uint64(unix) / uint64(e.period/time.Second), nil
}

// ComputeCodeAt returns the code of the time step containing t.
func (e *Engine) ComputeCodeAt(seed otpDomain.Seed, t time.Time) (string, error) {
	counter, err := e.Counter(t)
	if err != nil {
		return "", err
	}
	return ComputeCode(seed, counter, e.digits)
}

// ComputeCurrentCode returns the code of the current time step.
func (e *Engine) ComputeCurrentCode(seed otpDomain.Seed) (string, error) {
	return e.ComputeCodeAt(seed, e.now())
}

// Verify reports whether candidate matches the code of the current time step or of one of
// the window steps around it.
func (e *Engine) Verify(seed otpDomain.Seed, candidate string) (bool, error) {
	return e.VerifyAt(seed, candidate, e.now())
}

// VerifyAt is Verify evaluated at t. Every step in the window is computed and compared in
// constant time; a candidate of the wrong length never matches.
func (e *Engine) VerifyAt(seed otpDomain.Seed, candidate string, t time.Time) (bool, error) {
	if len(seed) == 0 {
		return false, fmt.Errorf("%w: empty seed", otpDomain.ErrInvalidSeedEncoding)
	}

	current, err := e.Counter(t)
	if err != nil {
		return false, err
	}

	candidate = strings.TrimSpace(candidate)
	if len(candidate) != e.digits {
		return false, nil
	}

	matched := 0
	for delta := -e.window; delta <= e.window; delta++ {
		counter := current + uint64(max(delta, 0))
		if delta < 0 {
			if uint64(-delta) > current {
				continue
			}
			counter = current - uint64(-delta)
		}

		code, err := ComputeCode(seed, counter, e.digits)
		if err != nil {
			return false, err
		}
		matched |= subtle.ConstantTimeCompare([]byte(code), []byte(candidate))
	}

	return matched == 1, nil
}

// ComputeCode implements HOTP (RFC 4226): HMAC-SHA1 over the 8-byte big-endian counter,
// dynamic truncation to a 31-bit integer, reduction modulo 10^digits and left zero-padding.
func ComputeCode(seed otpDomain.Seed, counter uint64, digits int) (string, error) {
	if len(seed) == 0 {
		return "", fmt.Errorf("%w: empty seed", otpDomain.ErrInvalidSeedEncoding)
	}
	if digits < otpDomain.MinDigits || digits > otpDomain.MaxDigits {
		return "", fmt.Errorf("%w: %d", otpDomain.ErrInvalidDigits, digits)
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, seed)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", digits, uint64(value)%pow10[digits]), nil
}
