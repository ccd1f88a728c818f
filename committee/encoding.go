package committee

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vocdoni/albatross-zkp/types"
)

type validatorRecord struct {
	PublicKey  types.HexBytes `json:"publicKey" cbor:"0,keyasint"`
	Weight     uint64         `json:"weight" cbor:"1,keyasint"`
	Possession types.HexBytes `json:"possession,omitempty" cbor:"2,keyasint,omitempty"`
}

func (c *Committee) records() []validatorRecord {
	recs := make([]validatorRecord, len(c.Validators))
	for i, v := range c.Validators {
		pk := v.PublicKey.Bytes()
		recs[i] = validatorRecord{PublicKey: pk[:], Weight: v.Weight}
		if !v.Possession.IsInfinity() {
			pop := v.Possession.Bytes()
			recs[i].Possession = pop[:]
		}
	}
	return recs
}

func (c *Committee) fromRecords(recs []validatorRecord) error {
	c.Validators = make([]Validator, len(recs))
	for i, r := range recs {
		v := Validator{Weight: r.Weight}
		if _, err := v.PublicKey.SetBytes(r.PublicKey); err != nil {
			return fmt.Errorf("validator %d public key: %w", i, err)
		}
		if len(r.Possession) > 0 {
			if _, err := v.Possession.SetBytes(r.Possession); err != nil {
				return fmt.Errorf("validator %d possession: %w", i, err)
			}
		}
		c.Validators[i] = v
	}
	return nil
}

// MarshalCBOR encodes the committee with compressed points.
func (c *Committee) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(c.records())
}

// UnmarshalCBOR decodes a committee encoded by MarshalCBOR. Points are
// checked to be on their subgroups.
func (c *Committee) UnmarshalCBOR(data []byte) error {
	var recs []validatorRecord
	if err := cbor.Unmarshal(data, &recs); err != nil {
		return err
	}
	return c.fromRecords(recs)
}
