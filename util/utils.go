package util

import (
	"crypto/rand"
	"math/big"
)

// RandomBytes generates a random byte slice of length n.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// RandomBits returns a uniformly random integer below 2^bits.
func RandomBits(bits int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	num, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return num
}

// RandomFieldElement returns a uniformly random integer below the modulus.
func RandomFieldElement(modulus *big.Int) *big.Int {
	num, err := rand.Int(rand.Reader, modulus)
	if err != nil {
		panic(err)
	}
	return num
}
