package tiresias

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/internal/params"
	"github.com/erik-3milabs/dwallet-network/pkg/hash"
	"github.com/erik-3milabs/dwallet-network/pkg/math/sample"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
)

// Commitment is the first message of the decryption proof.
type Commitment struct {
	// A0 = v^r
	A0 *saferith.Nat
	// A[j] = (cⱼ²)^r, one per ciphertext
	A []*saferith.Nat
}

// DecryptionProof is a Schnorr-style proof of equality of discrete logs:
// the exponent tying the verification key Vᵢ to the base v is the same
// exponent tying every partial decryption to its squared ciphertext.
//
// The proof is non-interactive; the challenge is derived from the transcript
// hash the caller seeds with its session context.
type DecryptionProof struct {
	Comm Commitment
	// Z = r + e·Δ·dᵢ over the integers
	Z *saferith.Nat
}

// ProveDecryption proves that decryptions are correct partial decryptions of
// cts under this key share. decryptions must be positionally paired with cts.
//
// h must carry the same session context the verifier will use.
func (s *KeyShare) ProveDecryption(
	pp *PublicParameters,
	cts []*Ciphertext,
	decryptions []*saferith.Nat,
	h *hash.Hash,
	rand io.Reader,
) (*DecryptionProof, error) {
	if len(cts) != len(decryptions) {
		return nil, fmt.Errorf("tiresias: prove: %d ciphertexts but %d decryptions", len(cts), len(decryptions))
	}

	sigma := s.decryptionExponent(pp)

	// The nonce must statistically mask e·σ, where σ < Δ·N².
	rBits := pp.NSquared.BitLen() + pp.delta().BitLen() + 2*params.StatParam
	r := sample.Bits(rand, rBits)

	comm := Commitment{
		A0: new(saferith.Nat).Exp(pp.VerificationBase, r, pp.NSquared),
		A:  make([]*saferith.Nat, len(cts)),
	}
	for j, ct := range cts {
		base := new(saferith.Nat).ModMul(ct.C, ct.C, pp.NSquared)
		comm.A[j] = new(saferith.Nat).Exp(base, r, pp.NSquared)
	}

	e, err := challenge(h, pp, s.PartyID, cts, decryptions, &comm)
	if err != nil {
		return nil, err
	}

	z := new(saferith.Nat).Mul(e, sigma, -1)
	z.Add(z, r, -1)

	return &DecryptionProof{Comm: comm, Z: z}, nil
}

// Verify checks the proof against party id's verification key.
//
// h must be seeded with the same session context the prover used.
func (p *DecryptionProof) Verify(
	pp *PublicParameters,
	id party.ID,
	cts []*Ciphertext,
	decryptions []*saferith.Nat,
	h *hash.Hash,
) error {
	if p == nil || p.Z == nil || p.Comm.A0 == nil {
		return ErrInvalidDecryptionProof
	}
	if len(cts) != len(decryptions) || len(p.Comm.A) != len(cts) {
		return fmt.Errorf("tiresias: verify: mismatched lengths (%d ciphertexts, %d decryptions, %d commitments)",
			len(cts), len(decryptions), len(p.Comm.A))
	}
	for j := range p.Comm.A {
		if p.Comm.A[j] == nil || decryptions[j] == nil || cts[j] == nil || cts[j].C == nil {
			return ErrInvalidDecryptionProof
		}
	}
	verificationKey, ok := pp.VerificationKeys[id]
	if !ok {
		return errors.New("tiresias: verify: no verification key for party " + id.String())
	}

	e, err := challenge(h, pp, id, cts, decryptions, &p.Comm)
	if err != nil {
		return err
	}

	// v^z == A0 · Vᵢᵉ
	lhs := new(saferith.Nat).Exp(pp.VerificationBase, p.Z, pp.NSquared)
	rhs := new(saferith.Nat).Exp(verificationKey, e, pp.NSquared)
	rhs.ModMul(rhs, p.Comm.A0, pp.NSquared)
	if lhs.Eq(rhs) != 1 {
		return ErrInvalidDecryptionProof
	}

	// (cⱼ²)^z == Aⱼ · cᵢⱼᵉ for every ciphertext
	for j, ct := range cts {
		base := new(saferith.Nat).ModMul(ct.C, ct.C, pp.NSquared)
		lhs.Exp(base, p.Z, pp.NSquared)
		rhs.Exp(decryptions[j], e, pp.NSquared)
		rhs.ModMul(rhs, p.Comm.A[j], pp.NSquared)
		if lhs.Eq(rhs) != 1 {
			return ErrInvalidDecryptionProof
		}
	}
	return nil
}

// challenge derives the Fiat-Shamir challenge e ∈ [0, 2^StatParam) from the
// transcript. Prover and verifier must write the exact same values.
func challenge(
	h *hash.Hash,
	pp *PublicParameters,
	id party.ID,
	cts []*Ciphertext,
	decryptions []*saferith.Nat,
	comm *Commitment,
) (*saferith.Nat, error) {
	err := h.WriteAny(
		pp.N,
		pp.VerificationBase,
		pp.VerificationKeys[id],
		&hash.BytesWithDomain{TheDomain: "PartyID", Bytes: id.Bytes()},
	)
	if err != nil {
		return nil, err
	}
	for j := range cts {
		if err = h.WriteAny(cts[j].C, decryptions[j]); err != nil {
			return nil, err
		}
	}
	if err = h.WriteAny(comm.A0); err != nil {
		return nil, err
	}
	for _, a := range comm.A {
		if err = h.WriteAny(a); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, params.StatBytes)
	if _, err = io.ReadFull(h.Digest(), buf); err != nil {
		return nil, err
	}
	return new(saferith.Nat).SetBytes(buf), nil
}
