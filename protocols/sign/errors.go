package sign

import "errors"

var (
	// ErrBatchMismatch is returned when the per-message inputs of a round
	// do not all have the same length.
	ErrBatchMismatch = errors.New("messages, presigns and encrypted partial signatures must have equal length")
	// ErrStateNotSet is returned when a round is completed before the
	// session state received its message batch.
	ErrStateNotSet = errors.New("sign state messages were not set before completion")
	// ErrStateBatchMismatch is returned when the session state was set with
	// a batch different from the one the round was started with.
	ErrStateBatchMismatch = errors.New("sign state batch does not match the round batch")
	// ErrZeroMask is returned when the decrypted signature mask reduces to
	// zero modulo the curve order and cannot be inverted.
	ErrZeroMask = errors.New("decrypted signature mask is zero")
	// ErrSignatureInvalid is returned when a combined signature fails to
	// verify under the distributed public key.
	ErrSignatureInvalid = errors.New("combined signature failed to verify under the distributed public key")
)
