package records

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	patients []*Patient
	organs   []*Organ
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// CreatePatient implements Store.
func (s *MemoryStore) CreatePatient(_ context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	s.patients = append(s.patients, &cp)
	return nil
}

// CreateOrgan implements Store.
func (s *MemoryStore) CreateOrgan(_ context.Context, o *Organ) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	cp := *o
	s.organs = append(s.organs, &cp)
	return nil
}

// GetPatient implements Store.
func (s *MemoryStore) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// GetOrgan implements Store.
func (s *MemoryStore) GetOrgan(_ context.Context, id uuid.UUID) (*Organ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.organs {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListPatients implements Store.
func (s *MemoryStore) ListPatients(_ context.Context) ([]*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Patient, 0, len(s.patients))
	for _, p := range s.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ListOrgans implements Store.
func (s *MemoryStore) ListOrgans(_ context.Context) ([]*Organ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Organ, 0, len(s.organs))
	for _, o := range s.organs {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

// SetPatientTransaction implements Store.
func (s *MemoryStore) SetPatientTransaction(_ context.Context, id uuid.UUID, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == id {
			p.TransactionID = txID
			return nil
		}
	}
	return ErrNotFound
}

// SetOrganTransaction implements Store.
func (s *MemoryStore) SetOrganTransaction(_ context.Context, id uuid.UUID, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.organs {
		if o.ID == id {
			o.TransactionID = txID
			return nil
		}
	}
	return ErrNotFound
}

// UpdatePatient replaces a stored patient's semantic fields in place.
// Used by tests to simulate post-anchor tampering; not part of the Store
// interface because the HTTP surface has no update operation.
func (s *MemoryStore) UpdatePatient(_ context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.patients {
		if existing.ID == p.ID {
			cp := *p
			s.patients[i] = &cp
			return nil
		}
	}
	return ErrNotFound
}
