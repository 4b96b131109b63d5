// Package ecdsa provides the signature type emitted by the signing protocol.
package ecdsa

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// CompactSize is the length of a serialized signature: r ‖ s, 32 bytes each.
const CompactSize = 64

// Signature is an ECDSA signature over secp256k1.
type Signature struct {
	R *secp256k1.ModNScalar
	S *secp256k1.ModNScalar
}

// Verify reports whether the signature on the given message digest is valid
// under the public key.
func (sig Signature) Verify(publicKey *secp256k1.PublicKey, digest []byte) bool {
	if sig.R == nil || sig.S == nil {
		return false
	}
	return decredecdsa.NewSignature(sig.R, sig.S).Verify(digest, publicKey)
}

// SerializeCompact returns r ‖ s as CompactSize big-endian bytes.
func (sig Signature) SerializeCompact() []byte {
	out := make([]byte, CompactSize)
	r := sig.R.Bytes()
	s := sig.S.Bytes()
	copy(out[:32], r[:])
	copy(out[32:], s[:])
	return out
}

// ParseCompact parses a signature serialized by SerializeCompact.
func ParseCompact(data []byte) (Signature, error) {
	if len(data) != CompactSize {
		return Signature{}, errors.New("ecdsa: compact signature must be 64 bytes")
	}
	r := new(secp256k1.ModNScalar)
	s := new(secp256k1.ModNScalar)
	if overflow := r.SetByteSlice(data[:32]); overflow {
		return Signature{}, errors.New("ecdsa: r overflows the group order")
	}
	if overflow := s.SetByteSlice(data[32:]); overflow {
		return Signature{}, errors.New("ecdsa: s overflows the group order")
	}
	return Signature{R: r, S: s}, nil
}
