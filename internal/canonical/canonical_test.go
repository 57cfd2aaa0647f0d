package canonical_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/caldermed/medanchor/internal/canonical"
	"github.com/caldermed/medanchor/internal/records"
	"github.com/google/uuid"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestHashPatient_deterministic(t *testing.T) {
	p := &records.Patient{Name: "Alice", BloodType: "O+", Age: 30}

	h1, err := canonical.HashPatient(p)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := canonical.HashPatient(p)
	if err != nil {
		t.Fatal(err)
	}

	if h1 != h2 {
		t.Errorf("hash not deterministic: %q vs %q", h1, h2)
	}
	if !hexDigest.MatchString(h1) {
		t.Errorf("hash is not a lowercase 64-char hex digest: %q", h1)
	}
}

func TestHashPatient_ignoresStorageMetadata(t *testing.T) {
	p1 := &records.Patient{Name: "Alice", BloodType: "O+", Age: 30}
	p2 := &records.Patient{
		ID:            uuid.New(),
		Name:          "Alice",
		BloodType:     "O+",
		Age:           30,
		TransactionID: "sub-123",
	}

	h1, _ := canonical.HashPatient(p1)
	h2, _ := canonical.HashPatient(p2)
	if h1 != h2 {
		t.Errorf("id/transaction metadata perturbed the hash: %q vs %q", h1, h2)
	}
}

func TestHashPatient_fieldChangeChangesHash(t *testing.T) {
	p := &records.Patient{Name: "Alice", BloodType: "O+", Age: 30}
	h1, _ := canonical.HashPatient(p)

	p.Age = 31
	h2, _ := canonical.HashPatient(p)

	if h1 == h2 {
		t.Error("mutating age did not change the hash")
	}
}

func TestHashPatient_separatorInValueIsUnambiguous(t *testing.T) {
	p1 := &records.Patient{Name: `a|bloodType="x"`, BloodType: "O+", Age: 1}
	p2 := &records.Patient{Name: "a", BloodType: `x"|O+`, Age: 1}

	h1, err := canonical.HashPatient(p1)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := canonical.HashPatient(p2)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("distinct field tuples collided")
	}
}

func TestHashPatient_invalid(t *testing.T) {
	cases := []struct {
		name string
		p    *records.Patient
	}{
		{"nil", nil},
		{"missing name", &records.Patient{BloodType: "O+", Age: 30}},
		{"missing bloodType", &records.Patient{Name: "Alice", Age: 30}},
		{"negative age", &records.Patient{Name: "Alice", BloodType: "O+", Age: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := canonical.HashPatient(tc.p); !errors.Is(err, canonical.ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestHashOrgan_deterministic(t *testing.T) {
	o := &records.Organ{OrganType: "kidney", BloodType: "A-", DonorID: "donor-7"}

	h1, err := canonical.HashOrgan(o)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := canonical.HashOrgan(o)
	if h1 != h2 {
		t.Errorf("hash not deterministic: %q vs %q", h1, h2)
	}
	if !hexDigest.MatchString(h1) {
		t.Errorf("hash is not a lowercase 64-char hex digest: %q", h1)
	}
}

func TestHashOrgan_invalid(t *testing.T) {
	cases := []struct {
		name string
		o    *records.Organ
	}{
		{"nil", nil},
		{"missing type", &records.Organ{BloodType: "A-", DonorID: "d"}},
		{"missing bloodType", &records.Organ{OrganType: "kidney", DonorID: "d"}},
		{"missing donorId", &records.Organ{OrganType: "kidney", BloodType: "A-"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := canonical.HashOrgan(tc.o); !errors.Is(err, canonical.ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestHashPatient_distinctFromOrganWithSameValues(t *testing.T) {
	p := &records.Patient{Name: "kidney", BloodType: "A-", Age: 0}
	o := &records.Organ{OrganType: "kidney", BloodType: "A-", DonorID: "0"}

	hp, _ := canonical.HashPatient(p)
	ho, _ := canonical.HashOrgan(o)
	if hp == ho {
		t.Error("patient and organ serializations collided")
	}
}
