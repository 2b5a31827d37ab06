package api

import (
	"errors"

	"github.com/jeremyhahn/go-totp/pkg/otp"
	"github.com/jeremyhahn/go-totp/pkg/store"
)

// Kind classifies the outcome of a command.
type Kind int

const (
	// KindNone means the command succeeded.
	KindNone Kind = iota
	// KindNotFound means the requested login does not exist. It is reported
	// to the user but is not a failure.
	KindNotFound
	// KindConfigRead means the store file could not be read.
	KindConfigRead
	// KindConfigParse means the store file is malformed.
	KindConfigParse
	// KindConfigWrite means the store file could not be written.
	KindConfigWrite
	// KindSecretDecode means a stored secret is not valid BASE32.
	KindSecretDecode
	// KindInvalidCode means a code did not verify.
	KindInvalidCode
	// KindOther covers usage errors, cancellation and anything unexpected.
	KindOther
)

var kindNames = map[Kind]string{
	KindNone:         "none",
	KindNotFound:     "not_found",
	KindConfigRead:   "config_read",
	KindConfigParse:  "config_parse",
	KindConfigWrite:  "config_write",
	KindSecretDecode: "secret_decode",
	KindInvalidCode:  "invalid_code",
	KindOther:        "other",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Fatal reports whether a command ending with this kind must exit non-zero.
func (k Kind) Fatal() bool {
	return k != KindNone && k != KindNotFound
}

// KindOf maps err onto the closed set of outcome kinds.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrLoginNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrConfigRead):
		return KindConfigRead
	case errors.Is(err, store.ErrConfigParse):
		return KindConfigParse
	case errors.Is(err, store.ErrConfigWrite):
		return KindConfigWrite
	case errors.Is(err, otp.ErrSecretDecode):
		return KindSecretDecode
	case errors.Is(err, otp.ErrInvalidCode):
		return KindInvalidCode
	default:
		return KindOther
	}
}
