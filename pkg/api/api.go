package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jeremyhahn/go-totp/pkg/otp"
	"github.com/jeremyhahn/go-totp/pkg/store"
)

var (
	// ErrLoginNotFound indicates the requested login is not in the store.
	ErrLoginNotFound = errors.New("api: login not found")
	// ErrNoConfigPath indicates the service was initialised without a store path.
	ErrNoConfigPath = errors.New("api: config path is required")
	// ErrNoGenerator indicates the service was initialised without a generator.
	ErrNoGenerator = errors.New("api: generator is required")
	// ErrMissingName indicates a command was given an empty login name.
	ErrMissingName = errors.New("api: login name is required")
	// ErrMissingKey indicates add was given an empty key.
	ErrMissingKey = errors.New("api: key is required")
)

// Config wires a Service.
type Config struct {
	// Path is the store file, resolved by the caller.
	Path string
	// MinSecondsLeft is the look-ahead threshold passed to the generator.
	MinSecondsLeft uint
	Generator      *otp.Generator
	// Stdout receives codes only. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives status, warning and not-found messages. Defaults to os.Stderr.
	Stderr io.Writer
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service runs one command per call against the store at Config.Path.
// The store is loaded afresh for every call; nothing is cached between calls.
type Service struct {
	path   string
	min    uint
	gen    *otp.Generator
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// NewService builds a Service from the supplied configuration.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, ErrNoConfigPath
	}
	if cfg.Generator == nil {
		return nil, ErrNoGenerator
	}

	s := &Service{
		path:   cfg.Path,
		min:    cfg.MinSecondsLeft,
		gen:    cfg.Generator,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		logger: cfg.Logger,
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Get prints the code for name. A missing login is reported on Stderr and
// ErrLoginNotFound is returned; KindOf maps it to a non-fatal outcome.
func (s *Service) Get(ctx context.Context, name string) (otp.Slot, error) {
	login, err := s.lookup(ctx, name)
	if err != nil {
		return otp.Slot{}, err
	}

	secret, err := otp.DecodeSecret(login.Secret)
	if err != nil {
		return otp.Slot{}, fmt.Errorf("login %q: %w", name, err)
	}

	slot, warned, err := s.gen.SelectSlot(secret, s.min)
	if err != nil {
		return otp.Slot{}, fmt.Errorf("login %q: %w", name, err)
	}
	s.logger.Debug("slot selected", "login", name, "offset", slot.Offset, "seconds_left", slot.SecondsLeft)

	s.reportExpiry(slot, warned)
	fmt.Fprintln(s.stdout, slot.Code)
	return slot, nil
}

// Add stores key under name, replacing any existing login, and saves.
// The key is not decoded until it is used.
func (s *Service) Add(ctx context.Context, name, key string) error {
	if err := requireName(name); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return ErrMissingKey
	}

	st, err := s.open(ctx)
	if err != nil {
		return err
	}

	st.Add(name, key)
	if err := s.save(st); err != nil {
		return err
	}
	fmt.Fprintf(s.stderr, "Login saved: %s\n", name)
	return nil
}

// Generate stores a new random secret under name, saves, and prints the
// secret so it can be entered on the other side.
func (s *Service) Generate(ctx context.Context, name string) (string, error) {
	if err := requireName(name); err != nil {
		return "", err
	}
	secret, err := otp.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := s.Add(ctx, name, secret); err != nil {
		return "", err
	}
	fmt.Fprintln(s.stdout, secret)
	return secret, nil
}

// Remove deletes name and saves. The store is written even when nothing
// was removed.
func (s *Service) Remove(ctx context.Context, name string) error {
	if err := requireName(name); err != nil {
		return err
	}
	st, err := s.open(ctx)
	if err != nil {
		return err
	}

	removed := st.Remove(name)
	if err := s.save(st); err != nil {
		return err
	}

	if removed {
		fmt.Fprintf(s.stderr, "Login removed: %s\n", name)
	} else {
		s.reportNotFound(name)
	}
	return nil
}

// List prints "<name> -> <code>" for every login in name order. All codes
// come from the same time window; the expiry line is printed once.
// The listing aborts on the first secret that fails to decode and then
// prints no codes at all.
func (s *Service) List(ctx context.Context) error {
	st, err := s.open(ctx)
	if err != nil {
		return err
	}

	names := st.Names()
	if len(names) == 0 {
		fmt.Fprintln(s.stderr, "No logins stored")
		return nil
	}

	listing := s.gen.NewListing(s.min)
	var out strings.Builder
	for _, name := range names {
		login, _ := st.Lookup(name)
		secret, err := otp.DecodeSecret(login.Secret)
		if err != nil {
			return fmt.Errorf("login %q: %w", name, err)
		}

		slot, err := listing.Next(secret)
		if err != nil {
			return fmt.Errorf("login %q: %w", name, err)
		}
		fmt.Fprintf(&out, "%s -> %s\n", name, slot.Code)
	}

	first, _ := listing.First()
	s.logger.Debug("listing computed", "logins", len(names), "offset", listing.Offset(), "seconds_left", first.SecondsLeft)

	s.reportExpiry(first, listing.Warned())
	_, err = io.WriteString(s.stdout, out.String())
	return err
}

// ListNames prints the stored login names, one per line, without
// computing any code.
func (s *Service) ListNames(ctx context.Context) error {
	st, err := s.open(ctx)
	if err != nil {
		return err
	}
	for _, name := range st.Names() {
		fmt.Fprintln(s.stdout, name)
	}
	return nil
}

// Verify checks code against the login's secret. A missing login is
// reported like Get. A mismatch returns an error wrapping otp.ErrInvalidCode.
func (s *Service) Verify(ctx context.Context, name, code string) error {
	login, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}

	secret, err := otp.DecodeSecret(login.Secret)
	if err != nil {
		return fmt.Errorf("login %q: %w", name, err)
	}
	if err := s.gen.Verify(ctx, secret, code); err != nil {
		return fmt.Errorf("login %q: %w", name, err)
	}

	fmt.Fprintf(s.stderr, "Code is valid for %s\n", name)
	return nil
}

// URI prints the otpauth:// provisioning URI for name.
func (s *Service) URI(ctx context.Context, name, issuer string) (string, error) {
	login, err := s.lookup(ctx, name)
	if err != nil {
		return "", err
	}

	if _, err := otp.DecodeSecret(login.Secret); err != nil {
		return "", fmt.Errorf("login %q: %w", name, err)
	}

	uri := otp.ProvisioningURI(issuer, name, login.Secret, s.gen.Config())
	fmt.Fprintln(s.stdout, uri)
	return uri, nil
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingName
	}
	return nil
}

// open loads the store unless ctx is already done.
func (s *Service) open(ctx context.Context) (*store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := store.Load(s.path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("store loaded", "path", s.path, "logins", st.Len())
	return st, nil
}

// lookup loads the store and returns the login. A missing login is
// reported on Stderr before ErrLoginNotFound is returned.
func (s *Service) lookup(ctx context.Context, name string) (store.Login, error) {
	if err := requireName(name); err != nil {
		return store.Login{}, err
	}
	st, err := s.open(ctx)
	if err != nil {
		return store.Login{}, err
	}

	login, ok := st.Lookup(name)
	if !ok {
		s.reportNotFound(name)
		return store.Login{}, fmt.Errorf("%w: %s", ErrLoginNotFound, name)
	}
	return login, nil
}

func (s *Service) save(st *store.Store) error {
	if err := st.Save(s.path); err != nil {
		return err
	}
	s.logger.Debug("store saved", "path", s.path, "logins", st.Len())
	return nil
}

func (s *Service) reportNotFound(name string) {
	fmt.Fprintf(s.stderr, "Login not found: %s\n", name)
}

func (s *Service) reportExpiry(slot otp.Slot, warned bool) {
	if warned {
		current := slot.SecondsLeft - s.gen.Period()
		fmt.Fprintf(s.stderr,
			"WARNING: only %d seconds left in the current time slot (minimum %d), using next time slot\n",
			current, s.min)
	}
	fmt.Fprintf(s.stderr, "The code expires in %d seconds\n", slot.SecondsLeft)
}
