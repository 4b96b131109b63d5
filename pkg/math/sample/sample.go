package sample

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// Bits samples a uniform Nat in [0, 2^bits).
func Bits(rand io.Reader, bits int) *saferith.Nat {
	buf := make([]byte, (bits+7)/8)
	mustReadBits(rand, buf)
	if rem := bits % 8; rem != 0 {
		buf[0] &= byte(1<<rem) - 1
	}
	return new(saferith.Nat).SetBytes(buf)
}

// ModN samples an element of ℤₙ.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	for {
		mustReadBits(rand, buf)
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			break
		}
	}
	return out
}

// UnitModN returns a u ∈ ℤₙˣ.
func UnitModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	for i := 0; i < maxIterations; i++ {
		u := ModN(rand, n)
		if u.IsUnit(n) == 1 {
			return u
		}
	}
	panic(ErrMaxIterations)
}

// BlumPrime samples a prime p of the given bit size with p ≡ 3 (mod 4).
func BlumPrime(bits int) *big.Int {
	for {
		p, err := rand.Prime(rand.Reader, bits)
		if err != nil {
			continue
		}
		// bit 0 is always 1, so we just need to check that bit 1 is set
		if p.Bit(1) != 1 {
			continue
		}
		return p
	}
}
