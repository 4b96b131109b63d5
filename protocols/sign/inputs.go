package sign

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/erik-3milabs/dwallet-network/pkg/tiresias"
)

// SessionID binds one signing session; it must be unique per session and is
// the seed for aggregator selection.
type SessionID [32]byte

// DKGOutput is the public result of distributed key generation that signing
// verifies against.
type DKGOutput struct {
	// PublicKey is the distributed ECDSA public key.
	PublicKey *secp256k1.PublicKey
	// Threshold is the number of parties required to decrypt.
	Threshold uint16
}

func (o *DKGOutput) Validate() error {
	if o == nil || o.PublicKey == nil {
		return errors.New("sign: dkg output missing public key")
	}
	if o.Threshold == 0 {
		return errors.New("sign: dkg output threshold is zero")
	}
	return nil
}

// Presign is the per-message preprocessing output consumed by one signature.
type Presign struct {
	// PublicNonce is the signature's nonce point R; the signature's r
	// component is its x coordinate.
	PublicNonce *secp256k1.PublicKey
}

// SignatureR returns the signature's r component, the x coordinate of the
// public nonce reduced modulo the curve order.
func (p *Presign) SignatureR() (*secp256k1.ModNScalar, error) {
	if p == nil || p.PublicNonce == nil {
		return nil, errors.New("sign: presign missing public nonce")
	}
	r := new(secp256k1.ModNScalar)
	r.SetByteSlice(p.PublicNonce.X().Bytes())
	if r.IsZero() {
		return nil, errors.New("sign: presign public nonce has zero x coordinate")
	}
	return r, nil
}

// PublicNonceEncryptedPartialSignatureAndProof carries the centralized
// party's message-dependent contribution: the homomorphically evaluated
// partial signature s⋅ρ and the mask ρ, both encrypted under the threshold
// Paillier key, together with the proof bytes that were verified when the
// contribution was accepted.
type PublicNonceEncryptedPartialSignatureAndProof struct {
	EncryptedMaskedSignature *tiresias.Ciphertext `cbor:"masked_sig"`
	EncryptedMask            *tiresias.Ciphertext `cbor:"mask"`
	Proof                    []byte               `cbor:"proof"`
}

func (p *PublicNonceEncryptedPartialSignatureAndProof) validate() error {
	if p == nil {
		return errors.New("sign: nil encrypted partial signature")
	}
	if p.EncryptedMaskedSignature == nil || p.EncryptedMaskedSignature.C == nil {
		return fmt.Errorf("sign: encrypted partial signature missing masked signature ciphertext")
	}
	if p.EncryptedMask == nil || p.EncryptedMask.C == nil {
		return fmt.Errorf("sign: encrypted partial signature missing mask ciphertext")
	}
	return nil
}
