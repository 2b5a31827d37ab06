package otp

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Algorithm represents the hash algorithm used for OTP generation.
type Algorithm string

const (
	// AlgorithmSHA1 uses SHA1 hash algorithm.
	AlgorithmSHA1 Algorithm = "SHA1"
	// AlgorithmSHA256 uses SHA256 hash algorithm.
	AlgorithmSHA256 Algorithm = "SHA256"
	// AlgorithmSHA512 uses SHA512 hash algorithm.
	AlgorithmSHA512 Algorithm = "SHA512"
)

const (
	// DefaultDigits is the code length used when Config.Digits is zero.
	DefaultDigits uint = 6
	// DefaultPeriod is the window length in seconds used when Config.Period is zero.
	DefaultPeriod uint = 30
	// MaxPeriod is the longest window length accepted, in seconds.
	MaxPeriod uint = math.MaxInt32
)

// Common errors returned by the OTP generator.
var (
	// ErrInvalidCode indicates the provided OTP code is invalid.
	ErrInvalidCode = errors.New("otp: invalid code")
	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("otp: invalid configuration")
	// ErrSecretDecode indicates a stored secret is not valid BASE32 text.
	ErrSecretDecode = errors.New("otp: secret is not valid base32")
	// ErrNilGenerator indicates a nil generator was used.
	ErrNilGenerator = errors.New("otp: generator is nil")
)

// Config holds the code parameters shared by every login in a store.
type Config struct {
	// Digits specifies the number of digits in the OTP code (6, 7, or 8).
	// Default: 6
	Digits uint
	// Period specifies the time step in seconds.
	// Default: 30
	Period uint
	// Algorithm specifies the hash algorithm to use.
	// Default: SHA1
	Algorithm Algorithm
}

// validate checks that the configuration is valid.
func (c Config) validate() error {
	if c.Digits != 0 && c.Digits != 6 && c.Digits != 7 && c.Digits != 8 {
		return fmt.Errorf("%w: digits must be 6, 7, or 8", ErrInvalidConfig)
	}

	if c.Period > MaxPeriod {
		return fmt.Errorf("%w: period must not exceed %d seconds", ErrInvalidConfig, MaxPeriod)
	}

	if c.Algorithm != "" && c.Algorithm != AlgorithmSHA1 &&
		c.Algorithm != AlgorithmSHA256 && c.Algorithm != AlgorithmSHA512 {
		return fmt.Errorf("%w: algorithm must be SHA1, SHA256, or SHA512", ErrInvalidConfig)
	}

	return nil
}

// withDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Digits == 0 {
		c.Digits = DefaultDigits
	}
	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmSHA1
	}
	return c
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock used to pick time windows.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// Generator computes TOTP codes for decoded secrets.
// It holds no per-secret state and is safe for concurrent use.
type Generator struct {
	cfg       Config
	otpAlgo   otp.Algorithm
	otpDigits otp.Digits
	now       func() time.Time
}

// NewGenerator creates a new TOTP generator.
// The configuration is validated and an error is returned if invalid.
func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	var otpAlgo otp.Algorithm
	switch cfg.Algorithm {
	case AlgorithmSHA1:
		otpAlgo = otp.AlgorithmSHA1
	case AlgorithmSHA256:
		otpAlgo = otp.AlgorithmSHA256
	case AlgorithmSHA512:
		otpAlgo = otp.AlgorithmSHA512
	}

	g := &Generator{
		cfg:       cfg,
		otpAlgo:   otpAlgo,
		otpDigits: otp.Digits(cfg.Digits),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the effective configuration, defaults applied.
func (g *Generator) Config() Config {
	if g == nil {
		return Config{}.withDefaults()
	}
	return g.cfg
}

// Period returns the window length in seconds.
func (g *Generator) Period() uint {
	return g.Config().Period
}

// Compute returns the slot offset whole periods ahead of now.
func (g *Generator) Compute(secret []byte, offset uint) (Slot, error) {
	if g == nil {
		return Slot{}, ErrNilGenerator
	}
	return g.computeAt(secret, g.now(), offset)
}

// computeAt derives the code for the window containing at + offset periods.
// SecondsLeft counts whole seconds from at to the end of that window.
func (g *Generator) computeAt(secret []byte, at time.Time, offset uint) (Slot, error) {
	if len(secret) == 0 {
		return Slot{}, fmt.Errorf("%w: secret must not be empty", ErrSecretDecode)
	}

	period := int64(g.cfg.Period)
	shifted := time.Unix(at.Unix()+int64(offset)*period, 0)

	code, err := totp.GenerateCodeCustom(EncodeSecret(secret), shifted.UTC(),
		totp.ValidateOpts{
			Period:    g.cfg.Period,
			Skew:      0,
			Digits:    g.otpDigits,
			Algorithm: g.otpAlgo,
		})
	if err != nil {
		return Slot{}, fmt.Errorf("otp: failed to generate TOTP code: %w", err)
	}

	elapsed := at.Unix() % period
	if elapsed < 0 {
		elapsed += period
	}
	left := uint(period-1-elapsed) + offset*g.cfg.Period

	return Slot{Code: code, SecondsLeft: left, Offset: offset}, nil
}

// Verify checks code against secret at the current time, tolerating one
// period of clock skew in either direction.
func (g *Generator) Verify(ctx context.Context, secret []byte, code string) error {
	if g == nil {
		return ErrNilGenerator
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: code must not be empty", ErrInvalidCode)
	}
	if len(secret) == 0 {
		return fmt.Errorf("%w: secret must not be empty", ErrSecretDecode)
	}

	valid, err := totp.ValidateCustom(strings.TrimSpace(code), EncodeSecret(secret), g.now().UTC(),
		totp.ValidateOpts{
			Period:    g.cfg.Period,
			Skew:      1,
			Digits:    g.otpDigits,
			Algorithm: g.otpAlgo,
		})
	if err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidCode, err)
	}
	if !valid {
		return ErrInvalidCode
	}
	return nil
}

// DecodeSecret converts the textual BASE32 form of a secret into raw bytes.
// Whitespace is ignored, lowercase letters are accepted and missing padding
// is restored. An empty or malformed secret yields ErrSecretDecode.
func DecodeSecret(text string) ([]byte, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(text), ""))
	if clean == "" {
		return nil, fmt.Errorf("%w: secret must not be empty", ErrSecretDecode)
	}
	if n := len(clean) % 8; n != 0 {
		clean += strings.Repeat("=", 8-n)
	}

	secret, err := base32.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSecretDecode, err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret must not be empty", ErrSecretDecode)
	}
	return secret, nil
}

// EncodeSecret returns the unpadded BASE32 form of secret.
func EncodeSecret(secret []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)
}

// GenerateSecret generates a cryptographically random secret key.
// The secret is returned as a base32-encoded string suitable for storing
// as a login's secret.
func GenerateSecret() (string, error) {
	// Generate 20 bytes (160 bits) of random data
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("otp: failed to generate random secret: %w", err)
	}
	return EncodeSecret(secret), nil
}

// ProvisioningURI returns the otpauth:// URI for QR code generation.
// This URI can be encoded as a QR code and scanned by authenticator apps.
func ProvisioningURI(issuer, account, secret string, cfg Config) string {
	cfg = cfg.withDefaults()

	v := url.Values{}
	v.Set("secret", strings.ToUpper(strings.Join(strings.Fields(secret), "")))
	if issuer != "" {
		v.Set("issuer", issuer)
	}
	v.Set("algorithm", string(cfg.Algorithm))
	v.Set("digits", fmt.Sprintf("%d", cfg.Digits))
	v.Set("period", fmt.Sprintf("%d", cfg.Period))

	label := account
	if issuer != "" {
		label = fmt.Sprintf("%s:%s", issuer, account)
	}
	return fmt.Sprintf("otpauth://totp/%s?%s", url.PathEscape(label), v.Encode())
}
