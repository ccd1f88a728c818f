package storage

import (
	"fmt"
)

func keyRecordKey(circuit string, validators int) []byte {
	return []byte(fmt.Sprintf("%s/%d", circuit, validators))
}

// SetKey stores the index record of a circuit key pair.
func (s *Storage) SetKey(rec *KeyRecord) error {
	if rec == nil {
		return fmt.Errorf("nil key record")
	}
	return s.setArtifact(keyPrefix, keyRecordKey(rec.Circuit, rec.Validators), rec)
}

// Key returns the index record of the circuit key pair for a committee
// capacity. It returns ErrNotFound if no setup was stored for it.
func (s *Storage) Key(circuit string, validators int) (*KeyRecord, error) {
	rec := &KeyRecord{}
	if err := s.getArtifact(keyPrefix, keyRecordKey(circuit, validators), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteKey removes the index record of a circuit key pair.
func (s *Storage) DeleteKey(circuit string, validators int) error {
	return s.deleteArtifact(keyPrefix, keyRecordKey(circuit, validators))
}
