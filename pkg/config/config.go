// Package config resolves runtime settings from defaults and environment
// variables. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"

	"github.com/jeremyhahn/go-totp/pkg/otp"
)

const (
	// AppName names the per-user data directory.
	AppName = "totp-cli"
	// FileName is the store file inside the data directory.
	FileName = "logins.toml"
	// DefaultMinSecondsLeft is the look-ahead threshold in seconds.
	DefaultMinSecondsLeft uint = 5
)

// Environment variables read by Load.
const (
	EnvConfig    = "TOTP_CONFIG"
	EnvMinTime   = "TOTP_MIN_TIME"
	EnvDigits    = "TOTP_DIGITS"
	EnvPeriod    = "TOTP_PERIOD"
	EnvAlgorithm = "TOTP_ALGORITHM"
)

// ErrInvalid indicates a setting has an unusable value.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the settings of one invocation.
type Config struct {
	// Path is the store file.
	Path string
	// MinSecondsLeft is the remaining validity below which the next time
	// slot is used.
	MinSecondsLeft uint
	Digits         uint
	Period         uint
	Algorithm      otp.Algorithm
	Verbose        bool
}

// DefaultPath returns the store file in the per-user data directory.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, FileName)
}

// Load returns the defaults overridden by TOTP_CONFIG, TOTP_MIN_TIME,
// TOTP_DIGITS, TOTP_PERIOD and TOTP_ALGORITHM.
func Load() (*Config, error) {
	cfg := &Config{
		Path:           DefaultPath(),
		MinSecondsLeft: DefaultMinSecondsLeft,
		Digits:         otp.DefaultDigits,
		Period:         otp.DefaultPeriod,
		Algorithm:      otp.AlgorithmSHA1,
	}

	if v, ok := os.LookupEnv(EnvConfig); ok && v != "" {
		cfg.Path = v
	}

	var err error
	if cfg.MinSecondsLeft, err = uintEnv(EnvMinTime, cfg.MinSecondsLeft); err != nil {
		return nil, err
	}
	if cfg.Digits, err = uintEnv(EnvDigits, cfg.Digits); err != nil {
		return nil, err
	}
	if cfg.Period, err = uintEnv(EnvPeriod, cfg.Period); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv(EnvAlgorithm); ok && v != "" {
		cfg.Algorithm = otp.Algorithm(strings.ToUpper(v))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("%w: config path must not be empty", ErrInvalid)
	}
	if c.Digits < 6 || c.Digits > 8 {
		return fmt.Errorf("%w: digits must be 6, 7, or 8", ErrInvalid)
	}
	if c.Period == 0 || c.Period > otp.MaxPeriod {
		return fmt.Errorf("%w: period must be between 1 and %d", ErrInvalid, otp.MaxPeriod)
	}
	switch c.Algorithm {
	case otp.AlgorithmSHA1, otp.AlgorithmSHA256, otp.AlgorithmSHA512:
	default:
		return fmt.Errorf("%w: algorithm must be SHA1, SHA256, or SHA512", ErrInvalid)
	}
	return nil
}

// OTP returns the code parameters for otp.NewGenerator.
func (c *Config) OTP() otp.Config {
	return otp.Config{
		Digits:    c.Digits,
		Period:    c.Period,
		Algorithm: c.Algorithm,
	}
}

func uintEnv(key string, fallback uint) (uint, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s has invalid value %q: %v", ErrInvalid, key, v, err)
	}
	return uint(n), nil
}
