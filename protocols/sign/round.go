package sign

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/erik-3milabs/dwallet-network/pkg/ecdsa"
	"github.com/erik-3milabs/dwallet-network/pkg/hash"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
	"github.com/erik-3milabs/dwallet-network/pkg/pool"
	"github.com/erik-3milabs/dwallet-network/pkg/tiresias"
)

// SignRound is the single round of the signing protocol. NewSignRound
// performs the local party's contribution for a whole message batch and
// returns the broadcast to send; CompleteRound consumes the round on the
// aggregator once every contribution arrived.
//
// A round is single-use: CompleteRound empties it whether or not it
// succeeds, and completing an already-consumed round is a no-op.
type SignRound struct {
	decryptionParties   []*thresholdDecryptionParty
	verificationParties []*proofVerificationParty
}

// SignRoundCompletion is the terminal result of a signing round.
type SignRoundCompletion struct {
	// Signatures holds one compact r‖s signature per input message, in
	// batch order. It is nil when the round had already been consumed and
	// the completion is a no-op.
	Signatures [][]byte
}

// None reports whether the completion carries no output because the round
// was already consumed.
func (c SignRoundCompletion) None() bool { return c.Signatures == nil }

// thresholdDecryptionParty finishes one message's signature once the
// decryption shares for its ciphertext pair are collected.
type thresholdDecryptionParty struct {
	publicParameters *tiresias.PublicParameters
	publicKey        *secp256k1.PublicKey
	r                *secp256k1.ModNScalar
	digest           []byte
}

// proofVerificationParty checks one message's decryption share proofs, one
// sender at a time, against the session-bound transcript.
type proofVerificationParty struct {
	publicParameters *tiresias.PublicParameters
	cts              []*tiresias.Ciphertext
	transcript       *hash.Hash
}

// NewSignRound runs the local party's first-round computation for the whole
// batch: a partial decryption of each message's encrypted partial signature
// pair, with a proof of correct decryption bound to this session. The
// returned message is broadcast to all parties; the returned round is kept
// for completion.
//
// The three per-message slices must have equal length; on any failure no
// partial result is retained.
func NewSignRound(
	publicParameters *tiresias.PublicParameters,
	keyShare *tiresias.KeyShare,
	epoch uint64,
	partyID party.ID,
	parties party.IDSlice,
	sessionID SessionID,
	messages [][]byte,
	dkgOutput *DKGOutput,
	presigns []*Presign,
	partialSignatures []*PublicNonceEncryptedPartialSignatureAndProof,
	hashFunc Hash,
	pl *pool.Pool,
) (*SignRound, *FirstRoundMessage, error) {
	if err := publicParameters.Validate(); err != nil {
		return nil, nil, err
	}
	if keyShare == nil {
		return nil, nil, errors.New("sign: nil key share")
	}
	if keyShare.PartyID != partyID {
		return nil, nil, fmt.Errorf("sign: key share belongs to party %s, not %s", keyShare.PartyID, partyID)
	}
	if !parties.Valid() || !parties.Contains(partyID) {
		return nil, nil, errors.New("sign: invalid party set")
	}
	if err := dkgOutput.Validate(); err != nil {
		return nil, nil, err
	}
	if len(messages) != len(presigns) || len(messages) != len(partialSignatures) {
		return nil, nil, fmt.Errorf("%w: %d messages, %d presigns, %d encrypted partial signatures",
			ErrBatchMismatch, len(messages), len(presigns), len(partialSignatures))
	}

	type result struct {
		shares       DecryptionShares
		proof        *tiresias.DecryptionProof
		decryption   *thresholdDecryptionParty
		verification *proofVerificationParty
	}
	results := pl.Parallelize(len(messages), func(i int) interface{} {
		digest, err := MessageDigest(messages[i], hashFunc)
		if err != nil {
			return err
		}
		r, err := presigns[i].SignatureR()
		if err != nil {
			return err
		}
		if err = partialSignatures[i].validate(); err != nil {
			return err
		}
		cts := []*tiresias.Ciphertext{
			partialSignatures[i].EncryptedMaskedSignature,
			partialSignatures[i].EncryptedMask,
		}
		decryptions := []*saferith.Nat{
			keyShare.PartialDecrypt(publicParameters, cts[0]),
			keyShare.PartialDecrypt(publicParameters, cts[1]),
		}
		transcript := proofTranscript(epoch, sessionID, digest, partialSignatures[i])
		proof, err := keyShare.ProveDecryption(publicParameters, cts, decryptions, transcript.Clone(), rand.Reader)
		if err != nil {
			return err
		}
		return &result{
			shares: DecryptionShares{
				MaskedSignature: decryptions[0],
				Mask:            decryptions[1],
			},
			proof: proof,
			decryption: &thresholdDecryptionParty{
				publicParameters: publicParameters,
				publicKey:        dkgOutput.PublicKey,
				r:                r,
				digest:           digest,
			},
			verification: &proofVerificationParty{
				publicParameters: publicParameters,
				cts:              cts,
				transcript:       transcript,
			},
		}
	})

	round := &SignRound{
		decryptionParties:   make([]*thresholdDecryptionParty, len(messages)),
		verificationParties: make([]*proofVerificationParty, len(messages)),
	}
	message := &FirstRoundMessage{
		Shares: make([]DecryptionShares, len(messages)),
		Proofs: make([]*tiresias.DecryptionProof, len(messages)),
	}
	for i, out := range results {
		switch v := out.(type) {
		case error:
			return nil, nil, fmt.Errorf("sign: message %d: %w", i, v)
		case *result:
			round.decryptionParties[i] = v.decryption
			round.verificationParties[i] = v.verification
			message.Shares[i] = v.shares
			message.Proofs[i] = v.proof
		}
	}
	return round, message, nil
}

func (r *SignRound) started() bool {
	return r.decryptionParties != nil
}

// CompleteRound verifies every party's collected proofs and combines the
// decryption shares into one ECDSA signature per message. Only the session's
// aggregator is expected to call it, after ReadyForCompleteFirstRound.
//
// The round is consumed before anything else happens, so a failed completion
// cannot be retried with the same round, and a second call is a no-op.
func (r *SignRound) CompleteRound(state *SignState) (SignRoundCompletion, error) {
	decryptionParties := r.decryptionParties
	verificationParties := r.verificationParties
	r.decryptionParties = nil
	r.verificationParties = nil
	if decryptionParties == nil {
		return SignRoundCompletion{}, nil
	}

	if state == nil || state.messages == nil {
		return SignRoundCompletion{}, ErrStateNotSet
	}
	if len(state.messages) != len(decryptionParties) || len(state.partialSignatures) != len(decryptionParties) {
		return SignRoundCompletion{}, fmt.Errorf("%w: round has %d messages, state has %d messages and %d encrypted partial signatures",
			ErrStateBatchMismatch, len(decryptionParties), len(state.messages), len(state.partialSignatures))
	}

	// Verify before combining, so a bad contribution names its sender
	// instead of surfacing as an unexplained bad signature.
	for _, from := range state.parties {
		shares, ok := state.shares[from]
		if !ok {
			return SignRoundCompletion{}, fmt.Errorf("sign: party %s: missing first round message", from)
		}
		proofs := state.proofs[from]
		if len(shares) != len(verificationParties) || len(proofs) != len(verificationParties) {
			return SignRoundCompletion{}, fmt.Errorf("sign: party %s: sent %d shares and %d proofs for a batch of %d messages",
				from, len(shares), len(proofs), len(verificationParties))
		}
		for i, vp := range verificationParties {
			if err := vp.verify(from, shares[i], proofs[i]); err != nil {
				return SignRoundCompletion{}, fmt.Errorf("sign: party %s: message %d: %w", from, i, err)
			}
		}
	}

	signatures := make([][]byte, len(decryptionParties))
	for i, dp := range decryptionParties {
		sig, err := dp.decrypt(i, state)
		if err != nil {
			return SignRoundCompletion{}, fmt.Errorf("sign: message %d: %w", i, err)
		}
		signatures[i] = sig
	}
	return SignRoundCompletion{Signatures: signatures}, nil
}

func (p *proofVerificationParty) verify(from party.ID, shares DecryptionShares, proof *tiresias.DecryptionProof) error {
	if shares.MaskedSignature == nil || shares.Mask == nil {
		return errors.New("missing decryption share")
	}
	decryptions := []*saferith.Nat{shares.MaskedSignature, shares.Mask}
	return proof.Verify(p.publicParameters, from, p.cts, decryptions, p.transcript.Clone())
}

// decrypt combines the collected shares for message i into a verified ECDSA
// signature in 64-byte compact form.
func (p *thresholdDecryptionParty) decrypt(i int, state *SignState) ([]byte, error) {
	maskedPartials := make(map[party.ID]*saferith.Nat, len(state.parties))
	maskPartials := make(map[party.ID]*saferith.Nat, len(state.parties))
	for _, from := range state.parties {
		maskedPartials[from] = state.shares[from][i].MaskedSignature
		maskPartials[from] = state.shares[from][i].Mask
	}

	maskedSignature, err := tiresias.Combine(p.publicParameters, maskedPartials)
	if err != nil {
		return nil, err
	}
	mask, err := tiresias.Combine(p.publicParameters, maskPartials)
	if err != nil {
		return nil, err
	}

	rho := scalarFromNat(mask)
	if rho.IsZero() {
		return nil, ErrZeroMask
	}
	rho.InverseNonConst()
	s := scalarFromNat(maskedSignature)
	s.Mul(rho)
	if s.IsZero() {
		return nil, ErrSignatureInvalid
	}

	sig := &ecdsa.Signature{R: new(secp256k1.ModNScalar).Set(p.r), S: s}
	if !sig.Verify(p.publicKey, p.digest) {
		return nil, ErrSignatureInvalid
	}
	return sig.SerializeCompact(), nil
}

// proofTranscript seeds the decryption proof transcript with everything that
// identifies this proof instance: session, epoch, message, and the proof the
// encrypted partial signature was accepted with.
func proofTranscript(epoch uint64, sessionID SessionID, digest []byte, ps *PublicNonceEncryptedPartialSignatureAndProof) *hash.Hash {
	epochBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(epochBytes, epoch)
	h := hash.New(
		&hash.BytesWithDomain{TheDomain: "Epoch", Bytes: epochBytes},
		&hash.BytesWithDomain{TheDomain: "SessionID", Bytes: sessionID[:]},
		&hash.BytesWithDomain{TheDomain: "MessageDigest", Bytes: digest},
		&hash.BytesWithDomain{TheDomain: "PartialSignatureProof", Bytes: ps.Proof},
	)
	return h
}

// scalarFromNat reduces a Paillier plaintext into the curve's scalar field.
func scalarFromNat(n *saferith.Nat) *secp256k1.ModNScalar {
	reduced := new(big.Int).Mod(n.Big(), secp256k1.S256().N)
	buf := make([]byte, 32)
	reduced.FillBytes(buf)
	out := new(secp256k1.ModNScalar)
	out.SetByteSlice(buf)
	return out
}
