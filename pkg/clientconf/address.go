// Package clientconf holds the client-side profile of a dwallet network
// deployment: the RPC environments a client can talk to, the active
// environment and address, and the file keystore backing them.
package clientconf

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// SignatureFlagSecp256k1 is the key scheme flag prefixed to a public key
// before hashing it into an address.
const SignatureFlagSecp256k1 byte = 0x01

// Address identifies an account: the blake3 hash of the flagged, compressed
// public key.
type Address [32]byte

// AddressFromPublicKey derives the account address of a public key.
func AddressFromPublicKey(pub *secp256k1.PublicKey) Address {
	flagged := make([]byte, 0, 34)
	flagged = append(flagged, SignatureFlagSecp256k1)
	flagged = append(flagged, pub.SerializeCompressed()...)
	return blake3.Sum256(flagged)
}

// AddressFromHex parses a 0x-prefixed hex address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	trimmed := strings.TrimPrefix(s, "0x")
	if len(trimmed) != 2*len(a) {
		return a, fmt.Errorf("clientconf: address %q has wrong length", s)
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return a, fmt.Errorf("clientconf: invalid address %q: %w", s, err)
	}
	copy(a[:], raw)
	return a, nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a *Address) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
