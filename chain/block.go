package chain

import (
	"errors"
	"fmt"

	"github.com/vocdoni/albatross-zkp/committee"
	"github.com/vocdoni/albatross-zkp/crypto/bls"
	"github.com/vocdoni/albatross-zkp/crypto/pedersen"
	"github.com/vocdoni/albatross-zkp/types"
)

// CircuitMacroBlock names the block validity circuit in constraint
// violation errors raised by native checks that mirror it.
const CircuitMacroBlock = "macroblock"

var (
	ErrThreshold = errors.New("signers below two thirds of the committee weight")
	ErrSignature = errors.New("invalid committee signature")
)

// Block is a macro block as consumed by the prover: the new header, the
// committee elected by the previous header (the signers), the committee
// elected by this header, the signer bitmap and the aggregated signature.
type Block struct {
	Header        *Header
	Committee     *committee.Committee
	NextCommittee *committee.Committee
	Bitmap        committee.Bitmap
	Signature     bls.Signature
}

// Validate checks the block against the previous header. Structural
// problems are ErrMalformedInput. A block whose signature or signer weight
// would not satisfy the validity circuit is a constraint violation of the
// macroblock circuit.
func (b *Block) Validate(params *pedersen.Params, capacity int, prev *Header) error {
	if b == nil || b.Header == nil || b.Committee == nil || b.NextCommittee == nil {
		return types.Malformed("incomplete block")
	}
	if err := prev.Validate(); err != nil {
		return err
	}
	if err := b.Header.Validate(); err != nil {
		return err
	}
	if b.Header.Height != prev.Height+1 {
		return types.Malformed("block height %d does not follow %d", b.Header.Height, prev.Height)
	}
	if len(b.Bitmap) != capacity {
		return types.Malformed("bitmap of %d bits, want %d", len(b.Bitmap), capacity)
	}
	prevState, err := StateCommitment(params, prev)
	if err != nil {
		return err
	}
	if b.Header.ParentCommitment.Cmp(prevState) != 0 {
		return types.Malformed("parent commitment does not match the previous state")
	}
	signing, err := b.Committee.Commitment(params, capacity)
	if err != nil {
		return fmt.Errorf("signing committee: %w", err)
	}
	if signing.Cmp(prev.NextCommitteeCommitment) != 0 {
		return types.Malformed("signing committee is not the one elected at height %d", prev.Height)
	}
	next, err := b.NextCommittee.Commitment(params, capacity)
	if err != nil {
		return fmt.Errorf("next committee: %w", err)
	}
	if next.Cmp(b.Header.NextCommitteeCommitment) != 0 {
		return types.Malformed("next committee does not match the header commitment")
	}
	if err := b.NextCommittee.VerifyPossession(); err != nil {
		return fmt.Errorf("next committee: %w", err)
	}

	aggPK, signed, total, err := b.Committee.Aggregate(b.Bitmap)
	if err != nil {
		return err
	}
	if !committee.MeetsThreshold(signed, total) {
		return types.NewConstraintViolation(CircuitMacroBlock,
			fmt.Errorf("%w: %d of %d", ErrThreshold, signed, total))
	}
	if err := bls.Verify(aggPK, b.Header.Message(), b.Signature); err != nil {
		return types.NewConstraintViolation(CircuitMacroBlock, fmt.Errorf("%w: %v", ErrSignature, err))
	}
	return nil
}

// Sign produces the aggregated signature of the listed signers over the
// header, as a committee would after a successful vote. It is used by tests
// and local networks.
func Sign(h *Header, sks []*bls.SecretKey, signers ...int) (bls.Signature, error) {
	sigs := make([]bls.Signature, 0, len(signers))
	for _, i := range signers {
		sig, _, err := sks[i].Sign(h.Message())
		if err != nil {
			return bls.Signature{}, err
		}
		sigs = append(sigs, sig)
	}
	return bls.AggregateSignatures(sigs...), nil
}
