// Package pedersen implements the native Pedersen commitment used to compress
// committee keys and header fields into field elements. The commitment is
// computed over the twisted Edwards curve embedded in BW6-761, whose base
// field is the BW6-761 scalar field, so that the same computation can be
// constrained natively inside BW6-761 circuits (see circuits/pedersen).
//
// A commitment to the chunks c_0..c_n-1 is the x coordinate of
//
//	c_0*G_0 + c_1*G_1 + ... + c_n-1*G_n-1
//
// where every chunk is smaller than 2^ChunkBits and the generators G_i are
// derived from a public seed with a try-and-increment procedure.
package pedersen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/twistededwards"
	"github.com/vocdoni/albatross-zkp/types"
)

const (
	// ChunkBits is the size of every chunk. It is below the bit length of the
	// prime subgroup order, so chunks are never reduced.
	ChunkBits = 248
	// ChunkBytes is the size of a byte chunk accepted by CommitBytes.
	ChunkBytes = ChunkBits / 8
	// ChunksPerElement is the number of chunks a BW6-761 scalar field
	// element is split into by Commit.
	ChunksPerElement = 2
	// DefaultGenerators is the number of generators of the default parameter
	// set, enough for the largest commitment of the pipeline (a committee
	// leaf: domain tag, four key coordinates and the weight).
	DefaultGenerators = 6 * ChunksPerElement
)

// DefaultSeed is the public seed of the production generators.
var DefaultSeed = []byte("albatross-zkp/pedersen/ed_bw6761/v1")

// Domain separates the different uses of the commitment.
type Domain uint64

const (
	DomainCommitteeLeaf Domain = iota + 1
	DomainCommitteeNode
	DomainState
)

var chunkBound = new(big.Int).Lsh(big.NewInt(1), ChunkBits)

// Params is an immutable set of generator points.
type Params struct {
	seed       []byte
	generators []twistededwards.PointAffine
}

var defaultParams = sync.OnceValues(func() (*Params, error) {
	return NewParams(DefaultSeed, DefaultGenerators)
})

// DefaultParams returns the production parameter set, derived once per
// process.
func DefaultParams() *Params {
	p, err := defaultParams()
	if err != nil {
		panic(fmt.Sprintf("pedersen: cannot derive default generators: %v", err))
	}
	return p
}

// NewParams derives n generators from the seed. For every index i it hashes
// (seed, i, counter) into a candidate y coordinate until the curve equation
// has a solution, takes the smaller root as x and clears the cofactor.
func NewParams(seed []byte, n int) (*Params, error) {
	if n <= 0 {
		return nil, types.Malformed("generator count must be positive, got %d", n)
	}
	curve := twistededwards.GetEdwardsCurve()
	var cofactor big.Int
	curve.Cofactor.BigInt(&cofactor)

	var one fr.Element
	one.SetOne()

	p := &Params{
		seed:       append([]byte{}, seed...),
		generators: make([]twistededwards.PointAffine, 0, n),
	}
	for i := 0; i < n; i++ {
		for ctr := uint32(0); ; ctr++ {
			if ctr == 1<<16 {
				return nil, fmt.Errorf("no generator found for index %d", i)
			}
			var y, y2, num, den, x fr.Element
			y.SetBytes(generatorHash(seed, uint32(i), ctr))
			y2.Square(&y)
			// x^2 = (1 - y^2) / (a - d*y^2)
			num.Sub(&one, &y2)
			den.Mul(&curve.D, &y2).Sub(&curve.A, &den)
			if den.IsZero() {
				continue
			}
			den.Inverse(&den)
			num.Mul(&num, &den)
			if x.Sqrt(&num) == nil {
				continue
			}
			if x.LexicographicallyLargest() {
				x.Neg(&x)
			}
			candidate := twistededwards.PointAffine{X: x, Y: y}
			var g twistededwards.PointAffine
			g.ScalarMultiplication(&candidate, &cofactor)
			if isIdentity(&g) || !g.IsOnCurve() {
				continue
			}
			p.generators = append(p.generators, g)
			break
		}
	}
	return p, nil
}

func generatorHash(seed []byte, index, ctr uint32) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], index)
	binary.BigEndian.PutUint32(buf[4:], ctr)
	h := sha256.New()
	h.Write(seed)
	h.Write(buf[:])
	return h.Sum(nil)
}

func isIdentity(p *twistededwards.PointAffine) bool {
	return p.X.IsZero() && p.Y.IsOne()
}

// Len returns the number of generators, which bounds the number of chunks a
// single commitment can take.
func (p *Params) Len() int {
	return len(p.generators)
}

// Seed returns a copy of the seed the generators were derived from.
func (p *Params) Seed() []byte {
	return append([]byte{}, p.seed...)
}

// Generator returns the i-th generator.
func (p *Params) Generator(i int) twistededwards.PointAffine {
	return p.generators[i]
}

// CommitChunks commits to chunks that are already smaller than 2^ChunkBits.
func (p *Params) CommitChunks(chunks ...*big.Int) (*big.Int, error) {
	if len(chunks) > len(p.generators) {
		return nil, types.Malformed("%d chunks exceed the %d available generators", len(chunks), len(p.generators))
	}
	var acc twistededwards.PointAffine
	acc.X.SetZero()
	acc.Y.SetOne()
	for i, c := range chunks {
		if c == nil || c.Sign() < 0 || c.Cmp(chunkBound) >= 0 {
			return nil, types.Malformed("chunk %d out of range", i)
		}
		var term twistededwards.PointAffine
		term.ScalarMultiplication(&p.generators[i], c)
		acc.Add(&acc, &term)
	}
	return acc.X.BigInt(new(big.Int)), nil
}

// Commit commits to a sequence of BW6-761 scalar field elements, splitting
// each one into ChunksPerElement chunks (low bits first).
func (p *Params) Commit(elems ...*big.Int) (*big.Int, error) {
	chunks := make([]*big.Int, 0, len(elems)*ChunksPerElement)
	for i, e := range elems {
		if e == nil || e.Sign() < 0 || e.Cmp(fr.Modulus()) >= 0 {
			return nil, types.Malformed("element %d is not a canonical field element", i)
		}
		lo, hi := SplitElement(e)
		chunks = append(chunks, lo, hi)
	}
	return p.CommitChunks(chunks...)
}

// CommitDomain commits to the domain tag followed by the elements.
func (p *Params) CommitDomain(d Domain, elems ...*big.Int) (*big.Int, error) {
	return p.Commit(append([]*big.Int{new(big.Int).SetUint64(uint64(d))}, elems...)...)
}

// CommitBytes commits to a byte string made of big-endian chunks of
// ChunkBytes bytes. A length that is not a multiple of ChunkBytes is a
// caller error.
func (p *Params) CommitBytes(data []byte) (*big.Int, error) {
	if len(data) == 0 || len(data)%ChunkBytes != 0 {
		return nil, types.Malformed("input length %d is not a multiple of %d", len(data), ChunkBytes)
	}
	chunks := make([]*big.Int, 0, len(data)/ChunkBytes)
	for i := 0; i < len(data); i += ChunkBytes {
		chunks = append(chunks, new(big.Int).SetBytes(data[i:i+ChunkBytes]))
	}
	return p.CommitChunks(chunks...)
}

// SplitElement returns the low ChunkBits bits and the remaining high bits.
func SplitElement(e *big.Int) (lo, hi *big.Int) {
	lo = new(big.Int).And(e, new(big.Int).Sub(chunkBound, big.NewInt(1)))
	hi = new(big.Int).Rsh(e, ChunkBits)
	return lo, hi
}

// Digest truncates a commitment to its low ChunkBits bits. Digests are the
// form in which commitments cross between the two curves of the cycle,
// since they are valid scalars on both.
func Digest(x *big.Int) *big.Int {
	lo, _ := SplitElement(x)
	return lo
}

// IsDigest reports whether v fits in a digest.
func IsDigest(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(chunkBound) < 0
}
