package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records to PostgreSQL. It implements Store.
//
// Schema:
//
//	CREATE TABLE patients (
//	    id             UUID PRIMARY KEY,
//	    name           TEXT NOT NULL,
//	    blood_type     TEXT NOT NULL,
//	    age            INT NOT NULL,
//	    transaction_id TEXT NOT NULL DEFAULT '',
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE organs (
//	    id             UUID PRIMARY KEY,
//	    organ_type     TEXT NOT NULL,
//	    blood_type     TEXT NOT NULL,
//	    donor_id       TEXT NOT NULL,
//	    transaction_id TEXT NOT NULL DEFAULT '',
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreatePatient implements Store.
func (s *PostgresStore) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx,
		`INSERT INTO patients (id, name, blood_type, age, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.BloodType, p.Age, p.TransactionID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// CreateOrgan implements Store.
func (s *PostgresStore) CreateOrgan(ctx context.Context, o *Organ) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx,
		`INSERT INTO organs (id, organ_type, blood_type, donor_id, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.OrganType, o.BloodType, o.DonorID, o.TransactionID, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organ: %w", err)
	}
	return nil
}

// GetPatient implements Store.
func (s *PostgresStore) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p := &Patient{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, blood_type, age, transaction_id, created_at
		 FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.BloodType, &p.Age, &p.TransactionID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return p, nil
}

// GetOrgan implements Store.
func (s *PostgresStore) GetOrgan(ctx context.Context, id uuid.UUID) (*Organ, error) {
	o := &Organ{}
	err := s.db.QueryRow(ctx,
		`SELECT id, organ_type, blood_type, donor_id, transaction_id, created_at
		 FROM organs WHERE id = $1`, id,
	).Scan(&o.ID, &o.OrganType, &o.BloodType, &o.DonorID, &o.TransactionID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organ %s: %w", id, err)
	}
	return o, nil
}

// SetPatientTransaction implements Store.
func (s *PostgresStore) SetPatientTransaction(ctx context.Context, id uuid.UUID, txID string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE patients SET transaction_id = $1 WHERE id = $2", txID, id,
	)
	if err != nil {
		return fmt.Errorf("set patient transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOrganTransaction implements Store.
func (s *PostgresStore) SetOrganTransaction(ctx context.Context, id uuid.UUID, txID string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE organs SET transaction_id = $1 WHERE id = $2", txID, id,
	)
	if err != nil {
		return fmt.Errorf("set organ transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPatients implements Store.
func (s *PostgresStore) ListPatients(ctx context.Context) ([]*Patient, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, blood_type, age, transaction_id, created_at
		 FROM patients ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p := &Patient{}
		if err := rows.Scan(&p.ID, &p.Name, &p.BloodType, &p.Age, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOrgans implements Store.
func (s *PostgresStore) ListOrgans(ctx context.Context) ([]*Organ, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, organ_type, blood_type, donor_id, transaction_id, created_at
		 FROM organs ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list organs: %w", err)
	}
	defer rows.Close()

	var out []*Organ
	for rows.Next() {
		o := &Organ{}
		if err := rows.Scan(&o.ID, &o.OrganType, &o.BloodType, &o.DonorID, &o.TransactionID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organ row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
