package circuits

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	fr_bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	fr_bw6761 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
)

// FrontendError function is an in-circuit function to print an error message
// and an error trace, making the circuit fail.
func FrontendError(api frontend.API, msg string, trace error) {
	err := fmt.Errorf("%s", msg)
	if trace != nil {
		err = fmt.Errorf("%w: %v", err, trace)
	}
	api.Println(err.Error())
	api.AssertIsEqual(1, 0)
}

// Serialize returns the binary encoding of a gnark object (constraint
// system, keys or proofs).
func Serialize(obj io.WriterTo) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := obj.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeRaw is like Serialize but uses the uncompressed point encoding,
// which is faster to read back for large proving keys.
func SerializeRaw(obj interface {
	WriteRawTo(io.Writer) (int64, error)
},
) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := obj.WriteRawTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize reads a gnark object from its binary encoding.
func Deserialize(obj io.ReaderFrom, data []byte) error {
	_, err := obj.ReadFrom(bytes.NewReader(data))
	return err
}

// WipeWitness overwrites every value of the witness vector with zeros.
func WipeWitness(w witness.Witness) {
	if w == nil {
		return
	}
	switch v := w.Vector().(type) {
	case fr_bls12377.Vector:
		for i := range v {
			v[i].SetZero()
		}
	case fr_bw6761.Vector:
		for i := range v {
			v[i].SetZero()
		}
	}
}

// PublicValues returns the public values of a witness as integers.
func PublicValues(w witness.Witness) ([]*big.Int, error) {
	pub, err := w.Public()
	if err != nil {
		return nil, err
	}
	var values []*big.Int
	switch v := pub.Vector().(type) {
	case fr_bls12377.Vector:
		for i := range v {
			values = append(values, v[i].BigInt(new(big.Int)))
		}
	case fr_bw6761.Vector:
		for i := range v {
			values = append(values, v[i].BigInt(new(big.Int)))
		}
	default:
		return nil, fmt.Errorf("unsupported witness vector %T", v)
	}
	return values, nil
}

// PublicWitness builds the public witness of a proof on the given curve from
// its public inputs.
func PublicWitness(curve ecc.ID, values []*big.Int) (witness.Witness, error) {
	w, err := witness.New(curve.ScalarField())
	if err != nil {
		return nil, err
	}
	ch := make(chan any, len(values))
	for _, v := range values {
		if v == nil {
			return nil, fmt.Errorf("nil public input")
		}
		if v.Sign() < 0 || v.Cmp(curve.ScalarField()) >= 0 {
			return nil, fmt.Errorf("public input %s out of the %s field", v, curve)
		}
		ch <- v
	}
	close(ch)
	if err := w.Fill(len(values), 0, ch); err != nil {
		return nil, err
	}
	return w, nil
}
