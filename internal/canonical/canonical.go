// Package canonical computes the anchor hash of a record.
//
// The digest covers a record's semantic fields only, serialized in a fixed,
// variant-defined order. Two logically identical records therefore always
// produce the same hash regardless of how the caller supplied or stored the
// fields; record ids and storage metadata never enter the digest. A naive
// JSON stringify would be key-order-dependent and is exactly the defect
// this package exists to avoid.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/caldermed/medanchor/internal/records"
)

// ErrInvalidRecord is returned when a record is missing a required
// semantic field or carries one with an invalid value.
var ErrInvalidRecord = errors.New("invalid record")

// HashPatient returns the canonical lowercase hex SHA-256 digest of a
// patient's semantic fields: name, bloodType, age, always in that order.
func HashPatient(p *records.Patient) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: nil patient", ErrInvalidRecord)
	}
	if p.Name == "" {
		return "", fmt.Errorf("%w: patient name is required", ErrInvalidRecord)
	}
	if p.BloodType == "" {
		return "", fmt.Errorf("%w: patient bloodType is required", ErrInvalidRecord)
	}
	if p.Age < 0 {
		return "", fmt.Errorf("%w: patient age must be non-negative", ErrInvalidRecord)
	}

	h := sha256.New()
	// %q keeps the serialization unambiguous even when field values
	// contain the separator character.
	fmt.Fprintf(h, "name=%q|bloodType=%q|age=%d", p.Name, p.BloodType, p.Age)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashOrgan returns the canonical lowercase hex SHA-256 digest of an
// organ's semantic fields: type, bloodType, donorId, always in that order.
func HashOrgan(o *records.Organ) (string, error) {
	if o == nil {
		return "", fmt.Errorf("%w: nil organ", ErrInvalidRecord)
	}
	if o.OrganType == "" {
		return "", fmt.Errorf("%w: organ type is required", ErrInvalidRecord)
	}
	if o.BloodType == "" {
		return "", fmt.Errorf("%w: organ bloodType is required", ErrInvalidRecord)
	}
	if o.DonorID == "" {
		return "", fmt.Errorf("%w: organ donorId is required", ErrInvalidRecord)
	}

	h := sha256.New()
	fmt.Fprintf(h, "type=%q|bloodType=%q|donorId=%q", o.OrganType, o.BloodType, o.DonorID)
	return hex.EncodeToString(h.Sum(nil)), nil
}
