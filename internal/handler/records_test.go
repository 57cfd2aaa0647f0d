package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caldermed/medanchor/internal/handler"
	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/caldermed/medanchor/internal/reconcile"
	"github.com/caldermed/medanchor/internal/records"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// env is the full in-memory wiring behind a test router.
type env struct {
	router *gin.Engine
	store  *records.MemoryStore
	client *ledger.MemoryClient
	topic  ledger.TopicID
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := records.NewMemoryStore()
	client := ledger.NewMemoryClient()
	topic, err := client.CreateTopic(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	writer := ledger.NewWriter(client, topic, time.Second, logger)
	reader := ledger.NewReader(client, logger)
	rec := reconcile.New(store, reader, topic, 2*time.Second, 2*time.Second, logger)

	r := gin.New()
	root := r.Group("")
	handler.NewRecordHandler(store, writer, logger).Register(root)
	handler.NewVerifyHandler(rec, logger).Register(root)
	handler.NewTopicHandler(client, reader, topic, 2*time.Second, logger).Register(root)

	return &env{router: r, store: store, client: client, topic: topic}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreatePatient_201(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/patients", map[string]any{
		"name": "Alice", "bloodType": "O+", "age": 30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		TransactionID string          `json:"transactionId"`
		Hash          string          `json:"hash"`
		Patient       records.Patient `json:"patient"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TransactionID == "" {
		t.Error("expected a transactionId")
	}
	if len(resp.Hash) != 64 {
		t.Errorf("expected a 64-char hash, got %q", resp.Hash)
	}
	if resp.Patient.Name != "Alice" {
		t.Errorf("patient name: got %q", resp.Patient.Name)
	}

	stored, err := e.store.GetPatient(context.Background(), resp.Patient.ID)
	if err != nil {
		t.Fatalf("patient not in store: %v", err)
	}
	if stored.TransactionID != resp.TransactionID {
		t.Errorf("stored transaction id %q != response %q", stored.TransactionID, resp.TransactionID)
	}
}

func TestCreatePatient_400_missingField(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/patients", map[string]any{"name": "Alice", "age": 30})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreatePatient_400_badJSON(t *testing.T) {
	e := setupEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateOrgan_201(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/organs", map[string]any{
		"type": "kidney", "bloodType": "A-", "donorId": "donor-7",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		TransactionID string        `json:"transactionId"`
		Organ         records.Organ `json:"organ"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Organ.OrganType != "kidney" || resp.Organ.DonorID != "donor-7" {
		t.Errorf("organ: %+v", resp.Organ)
	}
}

func TestCreateOrgan_400_missingDonor(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodPost, "/organs", map[string]any{"type": "kidney", "bloodType": "A-"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
