// Package tiresias implements threshold Paillier decryption.
//
// A dealer (or a prior distributed key generation) splits the Paillier
// decryption exponent into Shamir shares held by n parties. Each party can
// produce a partial decryption of a ciphertext together with a zero-knowledge
// proof of correct computation, and any Threshold of these partial
// decryptions can be combined into the plaintext without ever reconstructing
// the decryption key at a single party.
//
// The scheme follows the classic Fouque-Poupard-Stern construction: shares
// are taken over ℤ_{Nφ(N)}, partial decryptions are cᵢ = (c²)^(Δ·dᵢ) with
// Δ = n!, and combination interpolates in the exponent with the integer
// coefficients Δ·λᵢ, avoiding modular inversion of share indices.
package tiresias

import (
	"errors"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
)

var (
	ErrTooFewShares           = errors.New("tiresias: not enough decryption shares to combine")
	ErrInvalidDecryptionProof = errors.New("tiresias: invalid partial decryption proof")
)

// PublicParameters holds the public material of a threshold Paillier key.
// It is identical at every party and immutable for the lifetime of the key.
type PublicParameters struct {
	// N is the Paillier modulus.
	N *saferith.Modulus
	// NSquared is N², the ciphertext modulus.
	NSquared *saferith.Modulus
	// PartyCount is the total number of shareholders n.
	PartyCount uint16
	// Threshold is the minimum number of partial decryptions needed to combine.
	Threshold uint16
	// VerificationBase is v, a generator of the squares mod N².
	VerificationBase *saferith.Nat
	// VerificationKeys maps each party to Vᵢ = v^(Δ·dᵢ) mod N².
	VerificationKeys map[party.ID]*saferith.Nat
}

// Validate checks the shape of the public parameters.
func (pp *PublicParameters) Validate() error {
	if pp == nil || pp.N == nil || pp.NSquared == nil || pp.VerificationBase == nil {
		return errors.New("tiresias: public parameters contain nil values")
	}
	if pp.PartyCount == 0 {
		return errors.New("tiresias: public parameters have no parties")
	}
	if pp.Threshold == 0 || pp.Threshold > pp.PartyCount {
		return errors.New("tiresias: threshold out of range")
	}
	nSquared := new(big.Int).Mul(pp.N.Big(), pp.N.Big())
	if nSquared.Cmp(pp.NSquared.Big()) != 0 {
		return errors.New("tiresias: NSquared is not N²")
	}
	if len(pp.VerificationKeys) != int(pp.PartyCount) {
		return errors.New("tiresias: verification key count does not match party count")
	}
	for id, v := range pp.VerificationKeys {
		if v == nil {
			return errors.New("tiresias: verification key for party " + id.String() + " is nil")
		}
	}
	return nil
}

// delta returns Δ = n!.
func (pp *PublicParameters) delta() *big.Int {
	return factorial(pp.PartyCount)
}

func factorial(n uint16) *big.Int {
	out := big.NewInt(1)
	for i := int64(2); i <= int64(n); i++ {
		out.Mul(out, big.NewInt(i))
	}
	return out
}

func natFromBig(x *big.Int) *saferith.Nat {
	return new(saferith.Nat).SetBytes(x.Bytes())
}
