// Package fault classifies errors raised while creating and storing bound
// witnesses. Every error leaving a component boundary carries exactly one of
// the kind markers below so callers can tell a malformed peer from a dead
// peer, a broken disk, or an unsupported algorithm.
package fault

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrProtocol marks malformed or unexpected bytes: unknown schemas,
	// truncated buffers, transfers that do not fit the witness under
	// construction. Always fatal to the current session.
	ErrProtocol = errors.New("protocol error")

	// ErrCreation marks a session that could not progress because the peer
	// did not answer where an answer was expected.
	ErrCreation = errors.New("bound witness creation error")

	// ErrStorage marks repository read or write failures.
	ErrStorage = errors.New("storage error")

	// ErrCrypto marks unsupported algorithms and failed verification.
	ErrCrypto = errors.New("crypto error")
)

// Protocol marks err as a protocol error.
func Protocol(err error) error {
	return mark(err, ErrProtocol)
}

// Protocolf creates a new protocol error.
func Protocolf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrProtocol)
}

// Creation marks err as a creation error.
func Creation(err error) error {
	return mark(err, ErrCreation)
}

// Creationf creates a new creation error.
func Creationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrCreation)
}

// Storage marks err as a storage error.
func Storage(err error) error {
	return mark(err, ErrStorage)
}

// Storagef creates a new storage error.
func Storagef(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrStorage)
}

// Crypto marks err as a crypto error.
func Crypto(err error) error {
	return mark(err, ErrCrypto)
}

// Is reports whether any error in err's chain carries the given kind marker
// or is the given reference error.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// Kind returns a short name for the first kind marker found on err, or
// "unknown" when err carries none.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrCreation):
		return "creation"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrCrypto):
		return "crypto"
	default:
		return "unknown"
	}
}

func mark(err, kind error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, kind)
}
