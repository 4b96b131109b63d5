package params

const (
	SecParam  = 256
	SecBytes  = SecParam / 8
	StatParam = 80
	StatBytes = StatParam / 8

	// BitsBlumPrime is the size of each prime factor of a Paillier modulus N.
	BitsBlumPrime = 4 * SecParam
	// BitsPaillier is the size of a Paillier modulus N.
	BitsPaillier = 2 * BitsBlumPrime

	BytesPaillier = BitsPaillier / 8
	// BytesCiphertext is the size of a Paillier ciphertext, which lives mod N².
	BytesCiphertext = 2 * BytesPaillier
)
