package tiresias

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/cronokirby/saferith"
	"github.com/erik-3milabs/dwallet-network/pkg/party"
)

// Combine reconstructs a plaintext from the partial decryptions of at least
// Threshold parties, interpolating in the exponent with the integer
// coefficients 2·Δ·λᵢ.
//
// Combine does not verify correctness proofs; callers must have verified the
// contributions beforehand. A malformed share surfaces as a combination error
// or as a garbage plaintext, never as a panic.
func Combine(pp *PublicParameters, partials map[party.ID]*saferith.Nat) (*saferith.Nat, error) {
	if len(partials) < int(pp.Threshold) {
		return nil, ErrTooFewShares
	}

	ids := make(party.IDSlice, 0, len(partials))
	for id := range partials {
		ids = append(ids, id)
	}
	sort.Sort(ids)

	delta := pp.delta()
	nBig := pp.N.Big()
	nSquaredBig := pp.NSquared.Big()

	combined := big.NewInt(1)
	for _, id := range ids {
		// 2·Δ·λᵢ, where λᵢ is the Lagrange coefficient at 0 over ids
		exponent := new(big.Int).Lsh(lagrangeNumerator(delta, ids, id), 1)
		share := partials[id].Big()

		term := new(big.Int).Exp(share, new(big.Int).Abs(exponent), nSquaredBig)
		if exponent.Sign() < 0 {
			if term.ModInverse(term, nSquaredBig) == nil {
				return nil, fmt.Errorf("tiresias: decryption share of party %s is not invertible", id)
			}
		}
		combined.Mul(combined, term)
		combined.Mod(combined, nSquaredBig)
	}

	// combined = (1+N)^(4Δ²·m), so m = L(combined)·(4Δ²)⁻¹ mod N
	// with L(x) = (x-1)/N.
	l := new(big.Int).Sub(combined, big.NewInt(1))
	l.Div(l, nBig)

	factor := new(big.Int).Mul(delta, delta)
	factor.Lsh(factor, 2)
	if factor.ModInverse(factor, nBig) == nil {
		return nil, fmt.Errorf("tiresias: 4Δ² is not invertible mod N")
	}
	l.Mul(l, factor)
	l.Mod(l, nBig)

	return natFromBig(l), nil
}

// lagrangeNumerator returns Δ·λᵢ = Δ·∏_{j≠i} j/(j-i), which is an integer
// whenever ids ⊆ {1, …, n} and Δ = n!.
func lagrangeNumerator(delta *big.Int, ids party.IDSlice, i party.ID) *big.Int {
	num := new(big.Int).Set(delta)
	den := big.NewInt(1)
	for _, j := range ids {
		if j == i {
			continue
		}
		num.Mul(num, big.NewInt(int64(j)))
		den.Mul(den, big.NewInt(int64(j)-int64(i)))
	}
	// exact by construction
	return num.Quo(num, den)
}
