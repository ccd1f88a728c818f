package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals JSON and CBOR to a decimal
// string. Commitments and public inputs are stored and exported as BigInt.
type BigInt big.Int

// NewInt returns a BigInt from a uint64.
func NewInt(x uint64) *BigInt {
	return (*BigInt)(new(big.Int).SetUint64(x))
}

// ToBigInt converts a *big.Int into a *BigInt. It returns nil on nil input.
func ToBigInt(i *big.Int) *BigInt {
	if i == nil {
		return nil
	}
	return (*BigInt)(new(big.Int).Set(i))
}

func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// MathBigInt returns a copy of the value as *big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(i))
}

func (i *BigInt) Bytes() []byte {
	return (*big.Int)(i).Bytes()
}

func (i *BigInt) SetBytes(b []byte) *BigInt {
	(*big.Int)(i).SetBytes(b)
	return i
}

func (i *BigInt) Equal(j *BigInt) bool {
	return (*big.Int)(i).Cmp((*big.Int)(j)) == 0
}

func (i BigInt) MarshalText() ([]byte, error) {
	return []byte((*big.Int)(&i).String()), nil
}

func (i *BigInt) UnmarshalText(data []byte) error {
	if i == nil {
		return fmt.Errorf("cannot unmarshal into nil BigInt")
	}
	if _, ok := (*big.Int)(i).SetString(string(data), 0); !ok {
		return fmt.Errorf("invalid big int %q", data)
	}
	return nil
}

// MarshalCBOR encodes the value as its decimal string, so that stored
// artifacts remain readable with generic CBOR tooling.
func (i BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal((*big.Int)(&i).String())
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	return i.UnmarshalText([]byte(s))
}
