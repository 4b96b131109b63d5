package sign

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Hash selects the digest function applied to each message before signing.
type Hash uint8

const (
	KECCAK256 Hash = iota
	SHA256
)

// MessageDigest hashes message with the selected function.
func MessageDigest(message []byte, hash Hash) ([]byte, error) {
	switch hash {
	case KECCAK256:
		h := sha3.NewLegacyKeccak256()
		_, _ = h.Write(message)
		return h.Sum(nil), nil
	case SHA256:
		digest := sha256.Sum256(message)
		return digest[:], nil
	default:
		return nil, fmt.Errorf("sign: unknown hash function %d", hash)
	}
}
