// Package records defines the medical record variants and the keyed
// document store that owns them.
//
// The store is deliberately simple: create, list, and find-by-id. Integrity
// is not the store's job; a record's canonical hash is anchored to the
// external ledger at creation time, and verification always goes back to
// the ledger rather than trusting anything persisted here.
package records

import (
	"time"

	"github.com/google/uuid"
)

// Type tags a record variant. The tag is also the TYPE half of the
// "<TYPE>|<hash>" anchor message submitted to the ledger.
type Type string

const (
	TypePatient Type = "PATIENT"
	TypeOrgan   Type = "ORGAN"
)

// Patient is a stored patient record. Name, BloodType, and Age are the
// semantic fields covered by the canonical hash; everything else is
// storage metadata and never enters the digest.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BloodType string    `json:"bloodType"`
	Age       int       `json:"age"`

	// TransactionID is the ledger submission id returned when the record
	// was anchored. Informational only: verification recomputes the hash
	// and replays the ledger, it never trusts this field.
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Organ is a stored organ record. OrganType, BloodType, and DonorID are
// the semantic fields covered by the canonical hash.
type Organ struct {
	ID        uuid.UUID `json:"id"`
	OrganType string    `json:"type"`
	BloodType string    `json:"bloodType"`
	DonorID   string    `json:"donorId"`

	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
