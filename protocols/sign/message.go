package sign

import (
	"errors"

	"github.com/cronokirby/saferith"

	"github.com/erik-3milabs/dwallet-network/pkg/tiresias"
)

// DecryptionShares holds one party's partial decryptions for a single
// message: one share per ciphertext of the encrypted partial signature pair.
type DecryptionShares struct {
	MaskedSignature *saferith.Nat `cbor:"masked_sig"`
	Mask            *saferith.Nat `cbor:"mask"`
}

// FirstRoundMessage is the broadcast every party sends after its local
// first-round computation: decryption shares and a proof for each message in
// the batch, in batch order.
type FirstRoundMessage struct {
	Shares []DecryptionShares          `cbor:"shares"`
	Proofs []*tiresias.DecryptionProof `cbor:"proofs"`
}

func (m *FirstRoundMessage) validate() error {
	if m == nil {
		return errors.New("sign: nil first round message")
	}
	if len(m.Shares) != len(m.Proofs) {
		return errors.New("sign: first round message share and proof counts differ")
	}
	return nil
}
