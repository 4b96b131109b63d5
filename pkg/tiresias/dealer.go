package tiresias

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/internal/params"
	"github.com/erik-3milabs/dwallet-network/pkg/math/sample"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
)

var one = big.NewInt(1)

var errBadPrimePair = errors.New("tiresias: N and φ(N) share a factor")

// Deal generates a fresh threshold Paillier key for the party set
// {1, …, n} and splits it so that any threshold shares can decrypt.
//
// This is a trusted-dealer setup: it stands in for the distributed key
// generation protocol, which is out of scope here. The dealer learns the
// full decryption key and must be trusted to forget it.
func Deal(random io.Reader, partyIDs party.IDSlice, threshold uint16) (*PublicParameters, map[party.ID]*KeyShare, error) {
	for {
		p := sample.BlumPrime(params.BitsBlumPrime)
		q := sample.BlumPrime(params.BitsBlumPrime)
		if p.Cmp(q) == 0 {
			continue
		}
		pp, shares, err := DealFromPrimes(random, p, q, partyIDs, threshold)
		if errors.Is(err, errBadPrimePair) {
			continue
		}
		return pp, shares, err
	}
}

// DealFromPrimes is Deal with caller-supplied primes, used when primes are
// precomputed. p and q must be distinct odd primes.
func DealFromPrimes(random io.Reader, p, q *big.Int, partyIDs party.IDSlice, threshold uint16) (*PublicParameters, map[party.ID]*KeyShare, error) {
	n := len(partyIDs)
	if !partyIDs.Valid() || n == 0 {
		return nil, nil, errors.New("tiresias: deal: invalid party set")
	}
	// Δ·λᵢ is only guaranteed integral for ids within {1, …, n}, and the
	// aggregator selection rule assumes the same contiguous set.
	if int(partyIDs[n-1]) != n {
		return nil, nil, fmt.Errorf("tiresias: deal: party set must be {1, …, %d}", n)
	}
	if threshold == 0 || int(threshold) > n {
		return nil, nil, fmt.Errorf("tiresias: deal: threshold %d invalid for %d parties", threshold, n)
	}
	if p.Cmp(q) == 0 {
		return nil, nil, errors.New("tiresias: deal: prime factors must be distinct")
	}

	nBig := new(big.Int).Mul(p, q)
	nSquared := new(big.Int).Mul(nBig, nBig)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))

	mu := new(big.Int).ModInverse(phi, nBig)
	if mu == nil {
		return nil, nil, errBadPrimePair
	}
	// d ≡ 0 (mod φ) and d ≡ 1 (mod N): the Paillier decryption exponent.
	d := new(big.Int).Mul(phi, mu)

	// Shamir-share d over ℤ_{Nφ} with a polynomial of degree threshold-1.
	shareModulus := new(big.Int).Mul(nBig, phi)
	coefficients := make([]*big.Int, threshold-1)
	for k := range coefficients {
		c, err := rand.Int(random, shareModulus)
		if err != nil {
			return nil, nil, fmt.Errorf("tiresias: deal: %w", err)
		}
		coefficients[k] = c
	}

	delta := factorial(uint16(n))

	// v is a random square, a generator of the squares mod N² with
	// overwhelming probability.
	u, err := randomUnit(random, nSquared)
	if err != nil {
		return nil, nil, fmt.Errorf("tiresias: deal: %w", err)
	}
	v := new(big.Int).Mul(u, u)
	v.Mod(v, nSquared)

	pp := &PublicParameters{
		N:                saferith.ModulusFromNat(natFromBig(nBig)),
		NSquared:         saferith.ModulusFromNat(natFromBig(nSquared)),
		PartyCount:       uint16(n),
		Threshold:        threshold,
		VerificationBase: natFromBig(v),
		VerificationKeys: make(map[party.ID]*saferith.Nat, n),
	}

	shares := make(map[party.ID]*KeyShare, n)
	for _, id := range partyIDs {
		di := evaluatePolynomial(d, coefficients, int64(id), shareModulus)
		shares[id] = NewKeyShare(id, natFromBig(di))

		exponent := new(big.Int).Mul(delta, di)
		vi := new(big.Int).Exp(v, exponent, nSquared)
		pp.VerificationKeys[id] = natFromBig(vi)
	}

	return pp, shares, nil
}

// evaluatePolynomial returns f(x) mod m for f(X) = d + Σ cₖ·X^k.
func evaluatePolynomial(d *big.Int, coefficients []*big.Int, x int64, m *big.Int) *big.Int {
	xBig := big.NewInt(x)
	out := new(big.Int).Set(d)
	power := big.NewInt(1)
	for _, c := range coefficients {
		power.Mul(power, xBig)
		power.Mod(power, m)
		term := new(big.Int).Mul(c, power)
		out.Add(out, term)
		out.Mod(out, m)
	}
	return out
}

func randomUnit(random io.Reader, m *big.Int) (*big.Int, error) {
	gcd := new(big.Int)
	for i := 0; i < 256; i++ {
		u, err := rand.Int(random, m)
		if err != nil {
			return nil, err
		}
		gcd.GCD(nil, nil, u, m)
		if gcd.Cmp(one) == 0 {
			return u, nil
		}
	}
	return nil, errors.New("tiresias: deal: failed to sample a unit")
}
