package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record id does not resolve in the store.
var ErrNotFound = errors.New("record not found")

// Store is the keyed persistence interface for medical records.
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// CreatePatient assigns the patient an id and timestamp and persists it.
	CreatePatient(ctx context.Context, p *Patient) error

	// CreateOrgan assigns the organ an id and timestamp and persists it.
	CreateOrgan(ctx context.Context, o *Organ) error

	// GetPatient returns the patient with the given id, or ErrNotFound.
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetOrgan returns the organ with the given id, or ErrNotFound.
	GetOrgan(ctx context.Context, id uuid.UUID) (*Organ, error)

	// ListPatients returns all stored patients in creation order.
	ListPatients(ctx context.Context) ([]*Patient, error)

	// ListOrgans returns all stored organs in creation order.
	ListOrgans(ctx context.Context) ([]*Organ, error)

	// SetPatientTransaction records the ledger submission id on an
	// already stored patient, or ErrNotFound.
	SetPatientTransaction(ctx context.Context, id uuid.UUID, txID string) error

	// SetOrganTransaction records the ledger submission id on an
	// already stored organ, or ErrNotFound.
	SetOrganTransaction(ctx context.Context, id uuid.UUID, txID string) error
}
