package sign

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/erik-3milabs/dwallet-network/pkg/ecdsa"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
	"github.com/erik-3milabs/dwallet-network/pkg/tiresias"
)

const (
	testParties   = 3
	testThreshold = 2

	testPrimePHex = "D08769E92F80F7FDFB85EC02AFFDAED0FDE2782070757F191DCDC4D108110AC1E31C07FC253B5F7B91C5D9F203AA0572D3F2062A3D2904C535C6ACCA7D5674E1C2640720E762C72B66931F483C2D910908CF02EA6723A0CBBB1016CA696C38FEAC59B31E40584C8141889A11F7A38F5B17811D11F42CD15B8470F11C6183802B"
	testPrimeQHex = "C21239C3484FC3C8409F40A9A22FABFFE26CA10C27506E3E017C2EC8C4B98D7A6D30DED0686869884BE9BAD27F5241B7313F73D19E9E4B384FABF9554B5BB4D517CBAC0268420C63D545612C9ADABEEDF20F94244E7F8F2080B0C675AC98D97C580D43375F999B1AC127EC580B89B2D302EF33DD5FD8474A241B0398F6088CA7"
)

var (
	testDealOnce   sync.Once
	testDealPP     *tiresias.PublicParameters
	testDealShares map[party.ID]*tiresias.KeyShare
)

// testDeal shares a fixed Paillier key among testParties parties, reusing
// precomputed primes since prime generation dominates test time.
func testDeal(t *testing.T) (*tiresias.PublicParameters, map[party.ID]*tiresias.KeyShare) {
	testDealOnce.Do(func() {
		p, _ := new(big.Int).SetString(testPrimePHex, 16)
		q, _ := new(big.Int).SetString(testPrimeQHex, 16)
		pp, shares, err := tiresias.DealFromPrimes(rand.Reader, p, q, party.RangeN(testParties), testThreshold)
		if err != nil {
			panic(err)
		}
		testDealPP, testDealShares = pp, shares
	})
	return testDealPP, testDealShares
}

func scalarFromDigest(digest []byte) *secp256k1.ModNScalar {
	e := new(secp256k1.ModNScalar)
	e.SetByteSlice(digest)
	return e
}

func natFromScalar(s *secp256k1.ModNScalar) *saferith.Nat {
	b := s.Bytes()
	return new(saferith.Nat).SetBytes(b[:])
}

// testContribution plays the centralized party for one message: it signs the
// digest with a fresh nonce and hands back the presign, together with the
// masked partial signature s·ρ and mask ρ encrypted under the threshold key.
func testContribution(
	t *testing.T,
	pp *tiresias.PublicParameters,
	key *secp256k1.PrivateKey,
	message []byte,
	hashFunc Hash,
) (*Presign, *PublicNonceEncryptedPartialSignatureAndProof) {
	digest, err := MessageDigest(message, hashFunc)
	require.NoError(t, err)

	nonce, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	presign := &Presign{PublicNonce: nonce.PubKey()}
	r, err := presign.SignatureR()
	require.NoError(t, err)

	// s = k⁻¹(e + r·x)
	kInv := new(secp256k1.ModNScalar).Set(&nonce.Key)
	kInv.InverseNonConst()
	s := new(secp256k1.ModNScalar).Mul2(r, &key.Key)
	s.Add(scalarFromDigest(digest))
	s.Mul(kInv)
	require.False(t, s.IsZero())

	mask, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	rho := &mask.Key
	masked := new(secp256k1.ModNScalar).Mul2(s, rho)

	proof := make([]byte, 32)
	_, err = rand.Read(proof)
	require.NoError(t, err)

	return presign, &PublicNonceEncryptedPartialSignatureAndProof{
		EncryptedMaskedSignature: pp.Encrypt(natFromScalar(masked), rand.Reader),
		EncryptedMask:            pp.Encrypt(natFromScalar(rho), rand.Reader),
		Proof:                    proof,
	}
}

type testSession struct {
	pp       *tiresias.PublicParameters
	parties  party.IDSlice
	dkg      *DKGOutput
	key      *secp256k1.PrivateKey
	messages [][]byte
	presigns []*Presign
	contribs []*PublicNonceEncryptedPartialSignatureAndProof
	sid      SessionID
	epoch    uint64

	rounds map[party.ID]*SignRound
	msgs   map[party.ID]*FirstRoundMessage
}

// runFirstRound has every party compute its first-round contribution
// concurrently over the same inputs.
func runFirstRound(t *testing.T, messages [][]byte) *testSession {
	pp, shares := testDeal(t)
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	ts := &testSession{
		pp:       pp,
		parties:  party.RangeN(testParties),
		dkg:      &DKGOutput{PublicKey: key.PubKey(), Threshold: testThreshold},
		key:      key,
		messages: messages,
		epoch:    7,
		rounds:   map[party.ID]*SignRound{},
		msgs:     map[party.ID]*FirstRoundMessage{},
	}
	for _, m := range messages {
		presign, contrib := testContribution(t, pp, key, m, KECCAK256)
		ts.presigns = append(ts.presigns, presign)
		ts.contribs = append(ts.contribs, contrib)
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	for _, id := range ts.parties {
		id := id
		g.Go(func() error {
			round, msg, err := NewSignRound(pp, shares[id], ts.epoch, id, ts.parties, ts.sid,
				messages, ts.dkg, ts.presigns, ts.contribs, KECCAK256, nil)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			ts.rounds[id] = round
			ts.msgs[id] = msg
			return nil
		})
	}
	require.NoError(t, g.Wait())
	return ts
}

// aggregatorState builds the aggregator's state with the batch set and every
// party's contribution inserted. The zero session ID selects party 1.
func (ts *testSession) aggregatorState(t *testing.T) *SignState {
	state := NewSignState(ts.pp, ts.epoch, 1, ts.parties, ts.sid)
	require.Equal(t, party.ID(1), state.AggregatorPartyID())
	state.Set(ts.messages, ts.contribs)
	for _, id := range ts.parties {
		require.NoError(t, state.InsertFirstRound(id, ts.msgs[id]))
	}
	return state
}

func TestSignRoundEndToEnd(t *testing.T) {
	messages := [][]byte{
		[]byte("transfer 10 to alice"),
		[]byte("transfer 25 to bob"),
	}
	ts := runFirstRound(t, messages)
	state := ts.aggregatorState(t)
	require.True(t, state.ReadyForCompleteFirstRound(ts.rounds[1]))

	completion, err := ts.rounds[1].CompleteRound(state)
	require.NoError(t, err)
	require.False(t, completion.None())
	require.Len(t, completion.Signatures, len(messages))

	for i, raw := range completion.Signatures {
		require.Len(t, raw, ecdsa.CompactSize)
		sig, err := ecdsa.ParseCompact(raw)
		require.NoError(t, err)
		digest, err := MessageDigest(messages[i], KECCAK256)
		require.NoError(t, err)
		assert.True(t, sig.Verify(ts.dkg.PublicKey, digest), "signature %d must verify under the distributed key", i)
	}
}

func TestSignRoundSingleUse(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("once")})
	state := ts.aggregatorState(t)

	_, err := ts.rounds[1].CompleteRound(state)
	require.NoError(t, err)

	completion, err := ts.rounds[1].CompleteRound(state)
	require.NoError(t, err)
	assert.True(t, completion.None(), "a consumed round completes as a no-op")
}

func TestCompleteRoundConsumesOnFailure(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("m")})
	unset := NewSignState(ts.pp, ts.epoch, 1, ts.parties, ts.sid)

	_, err := ts.rounds[1].CompleteRound(unset)
	require.ErrorIs(t, err, ErrStateNotSet)

	// The failure consumed the round; even a valid state cannot revive it.
	completion, err := ts.rounds[1].CompleteRound(ts.aggregatorState(t))
	require.NoError(t, err)
	assert.True(t, completion.None())
}

func TestCompleteRoundNamesBadParty(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("m")})
	ts.msgs[2].Shares[0].MaskedSignature = new(saferith.Nat).SetUint64(12345)
	state := ts.aggregatorState(t)

	_, err := ts.rounds[1].CompleteRound(state)
	require.ErrorIs(t, err, tiresias.ErrInvalidDecryptionProof)
	assert.ErrorContains(t, err, "party 2")
}

func TestCompleteRoundRejectsShortContribution(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("a"), []byte("b")})
	ts.msgs[3].Shares = ts.msgs[3].Shares[:1]
	ts.msgs[3].Proofs = ts.msgs[3].Proofs[:1]
	state := ts.aggregatorState(t)

	_, err := ts.rounds[1].CompleteRound(state)
	require.Error(t, err)
	assert.ErrorContains(t, err, "party 3")
}

func TestNewSignRoundRejectsBatchMismatch(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("m")})
	pp, shares := testDeal(t)

	_, _, err := NewSignRound(pp, shares[1], ts.epoch, 1, ts.parties, ts.sid,
		[][]byte{[]byte("a"), []byte("b")}, ts.dkg, ts.presigns, ts.contribs, KECCAK256, nil)
	require.ErrorIs(t, err, ErrBatchMismatch)
}

func TestNewSignRoundRejectsForeignKeyShare(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("m")})
	pp, shares := testDeal(t)

	_, _, err := NewSignRound(pp, shares[2], ts.epoch, 1, ts.parties, ts.sid,
		ts.messages, ts.dkg, ts.presigns, ts.contribs, KECCAK256, nil)
	require.Error(t, err)
}

func TestFirstRoundMessageRoundTrip(t *testing.T) {
	ts := runFirstRound(t, [][]byte{[]byte("m")})

	data, err := cbor.Marshal(ts.msgs[2])
	require.NoError(t, err)
	var decoded FirstRoundMessage
	require.NoError(t, cbor.Unmarshal(data, &decoded))

	ts.msgs[2] = &decoded
	state := ts.aggregatorState(t)
	_, err = ts.rounds[1].CompleteRound(state)
	require.NoError(t, err, "a re-encoded contribution must still verify")
}
