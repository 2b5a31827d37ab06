// Command totp prints time-based one-time passwords for logins stored in a
// local file.
//
// Usage:
//
//	totp [--config path] [--min-time seconds]          list all codes
//	totp get --name alice [--copy]                     print one code
//	totp add --name alice --key JBSWY3DPEHPK3PXP       store a secret
//	totp add --name alice --generate                   store a new random secret
//	totp rm --name alice                               remove a login
//	totp verify --name alice --code 123456             check a code
//	totp uri --name alice --issuer Example             print an otpauth:// URI
//
// Codes go to standard output; everything else goes to standard error.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeremyhahn/go-totp/pkg/api"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one command and returns the process exit code. A login that
// does not exist is reported but still exits 0.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	root, err := newRootCmd(stdout, stderr, logger, level)
	if err != nil {
		logger.Error("fatal error", "error", err)
		return 1
	}
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	kind := api.KindOf(err)
	if !kind.Fatal() {
		return 0
	}
	logger.Error("fatal error", "kind", kind.String(), "error", err)
	return 1
}
