package ledger_test

import (
	"errors"
	"testing"

	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/caldermed/medanchor/internal/records"
)

func TestEncodeAnchor(t *testing.T) {
	got := string(ledger.EncodeAnchor(records.TypePatient, "abc123"))
	if got != "PATIENT|abc123" {
		t.Errorf("EncodeAnchor: got %q, want %q", got, "PATIENT|abc123")
	}
}

func TestDecodeAnchor_roundTrip(t *testing.T) {
	msg, err := ledger.DecodeAnchor(ledger.EncodeAnchor(records.TypeOrgan, "deadbeef"))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != records.TypeOrgan || msg.Hash != "deadbeef" {
		t.Errorf("decoded %+v", msg)
	}
}

func TestDecodeAnchor_malformed(t *testing.T) {
	cases := []string{
		"",
		"noseparator",
		"|hashonly",
		"PATIENT|",
		"|",
	}
	for _, c := range cases {
		if _, err := ledger.DecodeAnchor([]byte(c)); !errors.Is(err, ledger.ErrMalformedEntry) {
			t.Errorf("DecodeAnchor(%q): expected ErrMalformedEntry, got %v", c, err)
		}
	}
}

func TestDecodeAnchor_splitsOnFirstSeparatorOnly(t *testing.T) {
	msg, err := ledger.DecodeAnchor([]byte("PATIENT|ab|cd"))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Hash != "ab|cd" {
		t.Errorf("hash: got %q, want %q", msg.Hash, "ab|cd")
	}
}
