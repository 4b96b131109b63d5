package clientconf

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"gopkg.in/yaml.v3"
)

// Keystore is a file-backed set of secp256k1 keys, addressed by the account
// address of their public key. The file holds hex-encoded private keys and
// is written with owner-only permissions.
type Keystore struct {
	path string
	keys map[Address]*secp256k1.PrivateKey
}

// NewKeystore opens the keystore at path, creating an empty one if the file
// does not exist yet.
func NewKeystore(path string) (*Keystore, error) {
	ks := &Keystore{
		path: path,
		keys: map[Address]*secp256k1.PrivateKey{},
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ks, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clientconf: read keystore %q: %w", path, err)
	}

	var encoded []string
	if err = yaml.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("clientconf: parse keystore %q: %w", path, err)
	}
	for _, e := range encoded {
		raw, err := hex.DecodeString(e)
		if err != nil {
			return nil, fmt.Errorf("clientconf: keystore %q holds a malformed key: %w", path, err)
		}
		key := secp256k1.PrivKeyFromBytes(raw)
		ks.keys[AddressFromPublicKey(key.PubKey())] = key
	}
	return ks, nil
}

// Generate creates a fresh key, adds it and persists the keystore.
func (ks *Keystore) Generate() (Address, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return Address{}, fmt.Errorf("clientconf: generate key: %w", err)
	}
	return ks.AddKey(key)
}

// AddKey adds a key and persists the keystore. Adding a key that is already
// present rewrites the file but changes nothing.
func (ks *Keystore) AddKey(key *secp256k1.PrivateKey) (Address, error) {
	addr := AddressFromPublicKey(key.PubKey())
	ks.keys[addr] = key
	if err := ks.save(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Key returns the private key for addr, or false if the keystore does not
// hold it.
func (ks *Keystore) Key(addr Address) (*secp256k1.PrivateKey, bool) {
	key, ok := ks.keys[addr]
	return key, ok
}

// Addresses returns all managed addresses in a stable order.
func (ks *Keystore) Addresses() []Address {
	addrs := make([]Address, 0, len(ks.keys))
	for addr := range ks.keys {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].String() < addrs[j].String() })
	return addrs
}

func (ks *Keystore) save() error {
	encoded := make([]string, 0, len(ks.keys))
	for _, addr := range ks.Addresses() {
		encoded = append(encoded, hex.EncodeToString(ks.keys[addr].Serialize()))
	}
	data, err := yaml.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("clientconf: encode keystore: %w", err)
	}
	if err = os.WriteFile(ks.path, data, 0o600); err != nil {
		return fmt.Errorf("clientconf: write keystore %q: %w", ks.path, err)
	}
	return nil
}
