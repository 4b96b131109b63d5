package tiresias

import (
	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
)

// KeyShare is one party's share dᵢ of the threshold Paillier decryption
// exponent, taken over ℤ_{Nφ(N)}.
//
// A security-conscious caller should discard the share as soon as the
// session it was issued for ends.
type KeyShare struct {
	PartyID party.ID
	share   *saferith.Nat
}

// NewKeyShare wraps a share produced by a dealer or an external DKG.
func NewKeyShare(id party.ID, share *saferith.Nat) *KeyShare {
	return &KeyShare{PartyID: id, share: share}
}

// decryptionExponent returns Δ·dᵢ, the exponent used both for partial
// decryption and as the witness of the correctness proof.
func (s *KeyShare) decryptionExponent(pp *PublicParameters) *saferith.Nat {
	delta := natFromBig(pp.delta())
	return new(saferith.Nat).Mul(delta, s.share, -1)
}

// PartialDecrypt computes this party's partial decryption (c²)^(Δ·dᵢ) mod N².
//
// The result reveals nothing about dᵢ beyond what the verification key Vᵢ
// already exposes; correctness is attested separately by ProveDecryption.
func (s *KeyShare) PartialDecrypt(pp *PublicParameters, ct *Ciphertext) *saferith.Nat {
	base := new(saferith.Nat).ModMul(ct.C, ct.C, pp.NSquared)
	return new(saferith.Nat).Exp(base, s.decryptionExponent(pp), pp.NSquared)
}
