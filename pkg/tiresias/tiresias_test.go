package tiresias

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/pkg/hash"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Precomputed 1024-bit Blum primes so the tests do not spend their time
// searching for primes.
const (
	testPrimePHex = "D08769E92F80F7FDFB85EC02AFFDAED0FDE2782070757F191DCDC4D108110AC1E31C07FC253B5F7B91C5D9F203AA0572D3F2062A3D2904C535C6ACCA7D5674E1C2640720E762C72B66931F483C2D910908CF02EA6723A0CBBB1016CA696C38FEAC59B31E40584C8141889A11F7A38F5B17811D11F42CD15B8470F11C6183802B"
	testPrimeQHex = "C21239C3484FC3C8409F40A9A22FABFFE26CA10C27506E3E017C2EC8C4B98D7A6D30DED0686869884BE9BAD27F5241B7313F73D19E9E4B384FABF9554B5BB4D517CBAC0268420C63D545612C9ADABEEDF20F94244E7F8F2080B0C675AC98D97C580D43375F999B1AC127EC580B89B2D302EF33DD5FD8474A241B0398F6088CA7"
)

var (
	dealOnce   sync.Once
	dealPP     *PublicParameters
	dealShares map[party.ID]*KeyShare
)

// testDeal returns a 3-of-3 setup shared by all tests in this package.
func testDeal(t *testing.T) (*PublicParameters, map[party.ID]*KeyShare) {
	t.Helper()
	dealOnce.Do(func() {
		p, _ := new(big.Int).SetString(testPrimePHex, 16)
		q, _ := new(big.Int).SetString(testPrimeQHex, 16)
		var err error
		dealPP, dealShares, err = DealFromPrimes(rand.Reader, p, q, party.RangeN(3), 3)
		if err != nil {
			panic(err)
		}
	})
	return dealPP, dealShares
}

func TestDealShape(t *testing.T) {
	pp, shares := testDeal(t)
	require.NoError(t, pp.Validate())
	assert.Len(t, shares, 3)
	assert.Len(t, pp.VerificationKeys, 3)
}

func TestDealRejectsBadInput(t *testing.T) {
	p, _ := new(big.Int).SetString(testPrimePHex, 16)
	q, _ := new(big.Int).SetString(testPrimeQHex, 16)

	_, _, err := DealFromPrimes(rand.Reader, p, q, party.IDSlice{2, 3, 4}, 3)
	assert.Error(t, err, "non-contiguous party set")

	_, _, err = DealFromPrimes(rand.Reader, p, q, party.RangeN(3), 4)
	assert.Error(t, err, "threshold above party count")

	_, _, err = DealFromPrimes(rand.Reader, p, q, party.RangeN(3), 0)
	assert.Error(t, err, "zero threshold")

	_, _, err = DealFromPrimes(rand.Reader, p, p, party.RangeN(3), 2)
	assert.Error(t, err, "equal primes")
}

func TestEncryptThresholdDecrypt(t *testing.T) {
	pp, shares := testDeal(t)

	plaintext := new(saferith.Nat).SetUint64(0xDEADBEEF)
	ct := pp.Encrypt(plaintext, rand.Reader)

	partials := make(map[party.ID]*saferith.Nat, len(shares))
	for id, share := range shares {
		partials[id] = share.PartialDecrypt(pp, ct)
	}

	decrypted, err := Combine(pp, partials)
	require.NoError(t, err)
	assert.True(t, plaintext.Eq(decrypted) == 1, "expected %v, got %v", plaintext, decrypted)
}

func TestCombineWithSubset(t *testing.T) {
	p, _ := new(big.Int).SetString(testPrimePHex, 16)
	q, _ := new(big.Int).SetString(testPrimeQHex, 16)
	pp, shares, err := DealFromPrimes(rand.Reader, p, q, party.RangeN(3), 2)
	require.NoError(t, err)

	plaintext := new(saferith.Nat).SetUint64(99)
	ct := pp.Encrypt(plaintext, rand.Reader)

	// parties 1 and 3 suffice for a threshold of 2
	partials := map[party.ID]*saferith.Nat{
		1: shares[1].PartialDecrypt(pp, ct),
		3: shares[3].PartialDecrypt(pp, ct),
	}
	decrypted, err := Combine(pp, partials)
	require.NoError(t, err)
	assert.True(t, plaintext.Eq(decrypted) == 1)
}

func TestCombineTooFewShares(t *testing.T) {
	pp, shares := testDeal(t)

	ct := pp.Encrypt(new(saferith.Nat).SetUint64(1), rand.Reader)
	partials := map[party.ID]*saferith.Nat{
		1: shares[1].PartialDecrypt(pp, ct),
	}
	_, err := Combine(pp, partials)
	assert.ErrorIs(t, err, ErrTooFewShares)
}

func TestProveAndVerifyDecryption(t *testing.T) {
	pp, shares := testDeal(t)

	cts := []*Ciphertext{
		pp.Encrypt(new(saferith.Nat).SetUint64(7), rand.Reader),
		pp.Encrypt(new(saferith.Nat).SetUint64(11), rand.Reader),
	}

	for id, share := range shares {
		decryptions := []*saferith.Nat{
			share.PartialDecrypt(pp, cts[0]),
			share.PartialDecrypt(pp, cts[1]),
		}
		proof, err := share.ProveDecryption(pp, cts, decryptions, hash.New(), rand.Reader)
		require.NoError(t, err)
		assert.NoError(t, proof.Verify(pp, id, cts, decryptions, hash.New()))
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	pp, shares := testDeal(t)

	cts := []*Ciphertext{pp.Encrypt(new(saferith.Nat).SetUint64(42), rand.Reader)}
	share := shares[2]
	decryptions := []*saferith.Nat{share.PartialDecrypt(pp, cts[0])}
	proof, err := share.ProveDecryption(pp, cts, decryptions, hash.New(), rand.Reader)
	require.NoError(t, err)

	// wrong party
	assert.ErrorIs(t, proof.Verify(pp, 1, cts, decryptions, hash.New()), ErrInvalidDecryptionProof)

	// tampered decryption share
	bad := []*saferith.Nat{new(saferith.Nat).ModMul(decryptions[0], decryptions[0], pp.NSquared)}
	assert.ErrorIs(t, proof.Verify(pp, 2, cts, bad, hash.New()), ErrInvalidDecryptionProof)

	// tampered response
	tampered := &DecryptionProof{Comm: proof.Comm, Z: new(saferith.Nat).Add(proof.Z, new(saferith.Nat).SetUint64(1), -1)}
	assert.ErrorIs(t, tampered.Verify(pp, 2, cts, decryptions, hash.New()), ErrInvalidDecryptionProof)

	// transcript mismatch
	seeded := hash.New()
	require.NoError(t, seeded.WriteAny([]byte("other session")))
	assert.ErrorIs(t, proof.Verify(pp, 2, cts, decryptions, seeded), ErrInvalidDecryptionProof)
}

func TestVerifyRejectsShapeMismatch(t *testing.T) {
	pp, shares := testDeal(t)

	cts := []*Ciphertext{pp.Encrypt(new(saferith.Nat).SetUint64(1), rand.Reader)}
	share := shares[1]
	decryptions := []*saferith.Nat{share.PartialDecrypt(pp, cts[0])}
	proof, err := share.ProveDecryption(pp, cts, decryptions, hash.New(), rand.Reader)
	require.NoError(t, err)

	assert.Error(t, proof.Verify(pp, 1, cts, nil, hash.New()))
	assert.Error(t, proof.Verify(pp, 1, nil, decryptions, hash.New()))
}
