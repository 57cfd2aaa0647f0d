package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestVerifyAll_200(t *testing.T) {
	e := setupEnv(t)

	// One anchored patient, one never-anchored organ placed directly in
	// the store behind the API's back.
	w := e.do(t, http.MethodPost, "/patients", map[string]any{
		"name": "Alice", "bloodType": "O+", "age": 30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed patient: %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/verify", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var results []struct {
		RecordType     string `json:"recordType"`
		Valid          bool   `json:"valid"`
		ReplayComplete bool   `json:"replayComplete"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results: got %d, want 1", len(results))
	}
	if !results[0].Valid || !results[0].ReplayComplete {
		t.Errorf("result: %+v", results[0])
	}
}

func TestVerifyRecord_200(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/organs", map[string]any{
		"type": "kidney", "bloodType": "A-", "donorId": "donor-7",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed organ: %d", w.Code)
	}
	var created struct {
		Organ struct {
			ID string `json:"id"`
		} `json:"organ"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	w = e.do(t, http.MethodPost, "/verify", map[string]any{
		"type": "organ", "id": created.Organ.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Valid    bool `json:"valid"`
		Evidence *struct {
			SequenceNumber uint64 `json:"sequenceNumber"`
		} `json:"evidence"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Error("expected valid=true")
	}
	if result.Evidence == nil || result.Evidence.SequenceNumber != 1 {
		t.Errorf("evidence: %+v", result.Evidence)
	}
}

func TestVerifyRecord_400_unknownType(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/verify", map[string]any{
		"type": "vehicle", "id": uuid.NewString(),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyRecord_404_unknownID(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/verify", map[string]any{
		"type": "patient", "id": uuid.NewString(),
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyRecord_404_malformedID(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/verify", map[string]any{
		"type": "patient", "id": "not-a-uuid",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVerifyRecord_400_missingBody(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/verify", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
