package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-totp/pkg/otp"
)

var allConfigKeys = []string{EnvConfig, EnvMinTime, EnvDigits, EnvPeriod, EnvAlgorithm}

// isolateConfigEnv unsets all TOTP_ env vars for the duration of the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultPath(), cfg.Path)
	assert.Equal(t, uint(5), cfg.MinSecondsLeft)
	assert.Equal(t, uint(6), cfg.Digits)
	assert.Equal(t, uint(30), cfg.Period)
	assert.Equal(t, otp.AlgorithmSHA1, cfg.Algorithm)
	assert.False(t, cfg.Verbose)
}

func TestLoad_Environment(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv(EnvConfig, "/tmp/custom.toml")
	t.Setenv(EnvMinTime, "10")
	t.Setenv(EnvDigits, "8")
	t.Setenv(EnvPeriod, "60")
	t.Setenv(EnvAlgorithm, "sha256")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", cfg.Path)
	assert.Equal(t, uint(10), cfg.MinSecondsLeft)
	assert.Equal(t, uint(8), cfg.Digits)
	assert.Equal(t, uint(60), cfg.Period)
	assert.Equal(t, otp.AlgorithmSHA256, cfg.Algorithm)
}

func TestLoad_ZeroMinTime(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv(EnvMinTime, "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, uint(0), cfg.MinSecondsLeft)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvMinTime, "soon"},
		{EnvMinTime, "-1"},
		{EnvDigits, "5"},
		{EnvPeriod, "0"},
		{EnvAlgorithm, "MD5"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDefaultPath_UsesDataHome(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", dir)
	xdg.Reload()

	assert.Equal(t, filepath.Join(dir, "totp-cli", "logins.toml"), DefaultPath())
}

func TestValidate_EmptyPath(t *testing.T) {
	cfg := &Config{Digits: 6, Period: 30, Algorithm: otp.AlgorithmSHA1}

	err := cfg.Validate()

	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate_PeriodBounds(t *testing.T) {
	tests := []struct {
		name    string
		period  uint
		wantErr bool
	}{
		{"zero", 0, true},
		{"default", 30, false},
		{"maximum", otp.MaxPeriod, false},
		{"above maximum", otp.MaxPeriod + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Path: "logins.toml", Digits: 6, Period: tt.period, Algorithm: otp.AlgorithmSHA1}

			err := cfg.Validate()

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOTP(t *testing.T) {
	cfg := &Config{Digits: 7, Period: 45, Algorithm: otp.AlgorithmSHA512}

	assert.Equal(t, otp.Config{Digits: 7, Period: 45, Algorithm: otp.AlgorithmSHA512}, cfg.OTP())
}
