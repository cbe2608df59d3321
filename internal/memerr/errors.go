// Package memerr defines the error taxonomy shared by all memkeep
// operations. Callers match with errors.Is; wrapping preserves the
// sentinel so context can be added at every layer.
package memerr

import "errors"

var (
	// ErrValidation indicates bad caller input: empty or oversized
	// content, an out-of-range importance, an identifier that fails the
	// allow-listed pattern, or an unknown content type. Never retried.
	ErrValidation = errors.New("memkeep: validation failed")

	// ErrStorage indicates the partition could not be created, read, or
	// written. Callers may retry the whole operation.
	ErrStorage = errors.New("memkeep: storage failed")

	// ErrDecryption indicates an authentication-tag mismatch. The
	// content is irrecoverable without the correct key; plaintext is
	// never partially returned.
	ErrDecryption = errors.New("memkeep: decryption failed")

	// ErrNotFound indicates a reference to an absent record. An empty
	// query or timeline result is a valid success, not ErrNotFound.
	ErrNotFound = errors.New("memkeep: not found")
)
