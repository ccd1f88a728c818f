package committee

import (
	"fmt"
	"io"

	"github.com/vocdoni/albatross-zkp/crypto/bls"
)

// Generate creates a committee with fresh keys and the given weights,
// returning the secret keys in committee order. It is meant for tests and
// local networks.
func Generate(r io.Reader, weights ...uint64) (*Committee, []*bls.SecretKey, error) {
	c := &Committee{Validators: make([]Validator, len(weights))}
	sks := make([]*bls.SecretKey, len(weights))
	for i, w := range weights {
		sk, err := bls.GenerateKey(r)
		if err != nil {
			return nil, nil, fmt.Errorf("validator %d: %w", i, err)
		}
		pop, err := sk.ProvePossession()
		if err != nil {
			return nil, nil, fmt.Errorf("validator %d: %w", i, err)
		}
		sks[i] = sk
		c.Validators[i] = Validator{PublicKey: sk.PublicKey(), Weight: w, Possession: pop}
	}
	return c, sks, nil
}

// BitmapOf returns a bitmap of the given size with the listed positions set.
func BitmapOf(size int, signers ...int) Bitmap {
	b := make(Bitmap, size)
	for _, i := range signers {
		b[i] = true
	}
	return b
}
