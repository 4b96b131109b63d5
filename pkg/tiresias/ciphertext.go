package tiresias

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/pkg/math/sample"
)

// Ciphertext is a Paillier ciphertext, an element of ℤ_{N²}ˣ.
type Ciphertext struct {
	C *saferith.Nat
}

// Encrypt encrypts m under the public parameters, using a fresh nonce from rand.
//
// The plaintext is reduced mod N.
func (pp *PublicParameters) Encrypt(m *saferith.Nat, rand io.Reader) *Ciphertext {
	one := new(saferith.Nat).SetUint64(1)
	nNat := pp.N.Nat()
	nPlusOne := new(saferith.Nat).Add(nNat, one, -1)

	mReduced := new(saferith.Nat).Mod(m, pp.N)
	// (1+N)^m mod N²
	c := new(saferith.Nat).Exp(nPlusOne, mReduced, pp.NSquared)

	// ρ^N mod N² for a random unit ρ
	rho := sample.UnitModN(rand, pp.N)
	rhoN := new(saferith.Nat).Exp(rho, nNat, pp.NSquared)

	c.ModMul(c, rhoN, pp.NSquared)
	return &Ciphertext{C: c}
}

// Clone returns a deep copy of the ciphertext.
func (ct *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{C: ct.C.Clone()}
}
