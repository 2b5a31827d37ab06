package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-totp/pkg/api"
	"github.com/jeremyhahn/go-totp/pkg/config"
	"github.com/jeremyhahn/go-totp/pkg/otp"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// app carries the state shared by every sub-command of one invocation.
type app struct {
	cfg       *config.Config
	algorithm string
	stdout    io.Writer
	stderr    io.Writer
	logger    *slog.Logger
	level     *slog.LevelVar
	svc       *api.Service
}

// setup validates the merged settings and wires the service.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.cfg.Algorithm = otp.Algorithm(strings.ToUpper(a.algorithm))
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.level.Set(slog.LevelDebug)
	}

	gen, err := otp.NewGenerator(a.cfg.OTP())
	if err != nil {
		return err
	}

	a.svc, err = api.NewService(api.Config{
		Path:           a.cfg.Path,
		MinSecondsLeft: a.cfg.MinSecondsLeft,
		Generator:      gen,
		Stdout:         a.stdout,
		Stderr:         a.stderr,
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}
	a.logger.Debug("config resolved",
		"path", a.cfg.Path,
		"min_seconds_left", a.cfg.MinSecondsLeft,
		"digits", a.cfg.Digits,
		"period", a.cfg.Period,
		"algorithm", a.cfg.Algorithm,
	)
	return nil
}

func newRootCmd(stdout, stderr io.Writer, logger *slog.Logger, level *slog.LevelVar) (*cobra.Command, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:       cfg,
		algorithm: string(cfg.Algorithm),
		stdout:    stdout,
		stderr:    stderr,
		logger:    logger,
		level:     level,
	}

	root := &cobra.Command{
		Use:               "totp",
		Short:             "Print time-based one-time passwords for stored logins",
		Long:              "Without a sub-command, prints \"<name> -> <code>\" for every stored login.",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.svc.List(cmd.Context())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&cfg.Path, "config", "c", cfg.Path, "Use the specified config file")
	flags.UintVarP(&cfg.MinSecondsLeft, "min-time", "m", cfg.MinSecondsLeft,
		"Minimum time left below which the next time slot will be used")
	flags.UintVar(&cfg.Digits, "digits", cfg.Digits, "Number of digits in a code (6, 7, or 8)")
	flags.UintVar(&cfg.Period, "period", cfg.Period, "Length of a time slot in seconds")
	flags.StringVar(&a.algorithm, "algorithm", a.algorithm, "Hash algorithm (SHA1, SHA256, or SHA512)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log debug information to standard error")

	root.AddCommand(
		newGetCmd(a),
		newAddCmd(a),
		newRmCmd(a),
		newListCmd(a),
		newVerifyCmd(a),
		newURICmd(a),
	)
	return root, nil
}

func newGetCmd(a *app) *cobra.Command {
	var name string
	var copyCode bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slot, err := a.svc.Get(cmd.Context(), name)
			if err != nil {
				return err
			}
			if copyCode {
				if err := copyToClipboard(slot.Code); err != nil {
					a.logger.Warn("failed to copy code to clipboard", "error", err)
				} else {
					fmt.Fprintln(a.stderr, "Code copied to clipboard")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "The login name")
	cmd.Flags().BoolVar(&copyCode, "copy", false, "Also copy the code to the clipboard")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var name, key string
	var generate bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if generate {
				_, err := a.svc.Generate(cmd.Context(), name)
				return err
			}
			return a.svc.Add(cmd.Context(), name, key)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "The login name")
	cmd.Flags().StringVarP(&key, "key", "k", "", "The key value encoded in BASE32")
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "Generate a random key and print it")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("key", "generate")
	cmd.MarkFlagsOneRequired("key", "generate")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove a login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.svc.Remove(cmd.Context(), name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "The login name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var namesOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all logins with their current codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if namesOnly {
				return a.svc.ListNames(cmd.Context())
			}
			return a.svc.List(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&namesOnly, "names", false, "Print login names only")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var name, code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a code against a login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.svc.Verify(cmd.Context(), name, code)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "The login name")
	cmd.Flags().StringVar(&code, "code", "", "The code to check")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newURICmd(a *app) *cobra.Command {
	var name, issuer string

	cmd := &cobra.Command{
		Use:   "uri",
		Short: "Print the otpauth:// provisioning URI of a login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.svc.URI(cmd.Context(), name, issuer)
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "The login name")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer shown by authenticator apps")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
