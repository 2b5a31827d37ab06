//go:build integration

package otp_test

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-totp/pkg/api"
	"github.com/jeremyhahn/go-totp/pkg/otp"
	"github.com/jeremyhahn/go-totp/pkg/store"
)

func TestIntegration_TOTP_MatchesReferenceLibrary(t *testing.T) {
	// Codes must match what any standard authenticator app would show.
	secretText, err := otp.GenerateSecret()
	require.NoError(t, err, "Failed to generate secret")
	secret, err := otp.DecodeSecret(secretText)
	require.NoError(t, err, "Failed to decode secret")

	now := time.Now()
	gen, err := otp.NewGenerator(otp.Config{}, otp.WithClock(func() time.Time { return now }))
	require.NoError(t, err, "Failed to create generator")

	slot, err := gen.Compute(secret, 0)
	require.NoError(t, err, "Failed to compute slot")

	want, err := totp.GenerateCode(secretText, now)
	require.NoError(t, err, "Reference library failed")
	assert.Equal(t, want, slot.Code)

	next, err := gen.Compute(secret, 1)
	require.NoError(t, err, "Failed to compute next slot")
	wantNext, err := totp.GenerateCode(secretText, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, wantNext, next.Code, "next window")
}

func TestIntegration_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totp-cli", "logins.toml")
	gen, err := otp.NewGenerator(otp.Config{})
	require.NoError(t, err, "Failed to create generator")

	var stdout, stderr bytes.Buffer
	svc, err := api.NewService(api.Config{
		Path:           path,
		MinSecondsLeft: 5,
		Generator:      gen,
		Stdout:         &stdout,
		Stderr:         &stderr,
	})
	require.NoError(t, err, "Failed to create service")
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := svc.Generate(ctx, name)
		require.NoError(t, err, "Failed to add %s", name)
	}
	stdout.Reset()
	stderr.Reset()

	require.NoError(t, svc.List(ctx))
	assert.Regexp(t, regexp.MustCompile(`^alice -> \d{6}\nbob -> \d{6}\ncarol -> \d{6}\n$`), stdout.String())
	assert.Equal(t, 1, strings.Count(stderr.String(), "The code expires in"))

	require.NoError(t, svc.Remove(ctx, "bob"))
	stdout.Reset()
	_, err = svc.Get(ctx, "bob")
	assert.Equal(t, api.KindNotFound, api.KindOf(err))
	assert.Empty(t, stdout.String())
}

func TestIntegration_LastWriterWins(t *testing.T) {
	// Two invocations load the same file, mutate it and save. There is no
	// coordination between them: the second save discards the first change.
	path := filepath.Join(t.TempDir(), "logins.toml")

	seed := store.New()
	seed.Add("alice", "JBSWY3DPEHPK3PXP")
	require.NoError(t, seed.Save(path), "Failed to seed store")

	first, err := store.Load(path)
	require.NoError(t, err)
	second, err := store.Load(path)
	require.NoError(t, err)

	first.Add("bob", "MFRGG")
	second.Add("carol", "MFRGG")
	require.NoError(t, first.Save(path))
	require.NoError(t, second.Save(path))

	final, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, final.Names())
}

func TestIntegration_ConcurrentGeneration(t *testing.T) {
	secretText, err := otp.GenerateSecret()
	require.NoError(t, err)
	secret, err := otp.DecodeSecret(secretText)
	require.NoError(t, err)

	now := time.Now()
	gen, err := otp.NewGenerator(otp.Config{}, otp.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	want, err := gen.Compute(secret, 0)
	require.NoError(t, err)

	const numGoroutines = 50
	var wg sync.WaitGroup
	var mismatches int32

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot, _, err := gen.SelectSlot(secret, 0)
			if err != nil || slot != want {
				atomic.AddInt32(&mismatches, 1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, mismatches, "Expected identical slots from all goroutines")
}
