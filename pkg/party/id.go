package party

import (
	"encoding/binary"
	"strconv"
)

// ByteSize is the number of bytes required to store an ID.
const ByteSize = 2

// MAX is the maximum integer value an ID can take.
const MAX = (1 << (ByteSize * 8)) - 1

// ID represents the identifier of a particular party.
// IDs are small positive integers, unique within a session's party set.
// 0 is not a valid ID.
type ID uint16

// Bytes returns a big-endian []byte slice of length party.ByteSize.
func (p ID) Bytes() []byte {
	bytes := make([]byte, ByteSize)
	binary.BigEndian.PutUint16(bytes, uint16(p))
	return bytes
}

// String returns a base 10 representation of ID.
func (p ID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// FromBytes reads the first party.ByteSize bytes from b and creates an ID from it.
func FromBytes(b []byte) ID {
	return ID(binary.BigEndian.Uint16(b))
}

// FromString reads a base 10 string and attempts to generate an ID from it.
func FromString(str string) (ID, error) {
	p, err := strconv.ParseUint(str, 10, 16)
	if err != nil {
		return 0, err
	}
	return ID(p), nil
}
