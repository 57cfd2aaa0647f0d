// Package client is the Go SDK for the medanchor HTTP API: creating
// anchored records, running verifications, and inspecting the topic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Patient mirrors the stored patient record returned by the API.
type Patient struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BloodType     string    `json:"bloodType"`
	Age           int       `json:"age"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Organ mirrors the stored organ record returned by the API.
type Organ struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	BloodType     string    `json:"bloodType"`
	DonorID       string    `json:"donorId"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AnchorResult is the outcome of creating and anchoring a record.
type AnchorResult struct {
	TransactionID string   `json:"transactionId"`
	Hash          string   `json:"hash"`
	Patient       *Patient `json:"patient,omitempty"`
	Organ         *Organ   `json:"organ,omitempty"`
}

// Evidence points at the ledger entry backing a valid verdict.
type Evidence struct {
	SequenceNumber     uint64    `json:"sequenceNumber"`
	ConsensusTimestamp time.Time `json:"consensusTimestamp"`
}

// VerifyResult is one record's reconciliation verdict.
type VerifyResult struct {
	RecordType     string    `json:"recordType"`
	RecordID       string    `json:"recordId"`
	ComputedHash   string    `json:"computedHash"`
	Valid          bool      `json:"valid"`
	ReplayComplete bool      `json:"replayComplete"`
	Evidence       *Evidence `json:"evidence,omitempty"`
}

// LogEntry is one decoded topic entry from GET /logs.
type LogEntry struct {
	SequenceNumber     uint64    `json:"sequenceNumber"`
	ConsensusTimestamp time.Time `json:"consensusTimestamp"`
	Contents           string    `json:"contents"`
	Type               string    `json:"type"`
	Hash               string    `json:"hash"`
}

// LogsResult is the response of GET /logs.
type LogsResult struct {
	Success  bool       `json:"success"`
	Count    int        `json:"count"`
	Complete bool       `json:"complete"`
	Skipped  int        `json:"skipped"`
	Messages []LogEntry `json:"messages"`
}

// Client talks to a medanchor server.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for the server at base (e.g. "http://localhost:8080").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreatePatient stores and anchors a patient record.
func (c *Client) CreatePatient(ctx context.Context, name, bloodType string, age int) (*AnchorResult, error) {
	body := map[string]any{"name": name, "bloodType": bloodType, "age": age}
	var out AnchorResult
	if err := c.do(ctx, http.MethodPost, "/patients", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrgan stores and anchors an organ record.
func (c *Client) CreateOrgan(ctx context.Context, organType, bloodType, donorID string) (*AnchorResult, error) {
	body := map[string]any{"type": organType, "bloodType": bloodType, "donorId": donorID}
	var out AnchorResult
	if err := c.do(ctx, http.MethodPost, "/organs", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyAll runs bulk verification over every stored record.
func (c *Client) VerifyAll(ctx context.Context) ([]VerifyResult, error) {
	var out []VerifyResult
	if err := c.do(ctx, http.MethodGet, "/verify", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyRecord runs point verification for one record.
// recordType is "patient" or "organ".
func (c *Client) VerifyRecord(ctx context.Context, recordType, id string) (*VerifyResult, error) {
	body := map[string]any{"type": recordType, "id": id}
	var out VerifyResult
	if err := c.do(ctx, http.MethodPost, "/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTopic provisions a fresh topic and returns its id.
func (c *Client) CreateTopic(ctx context.Context) (string, error) {
	var out struct {
		TopicID string `json:"topicId"`
	}
	if err := c.do(ctx, http.MethodGet, "/create-topic", nil, &out); err != nil {
		return "", err
	}
	return out.TopicID, nil
}

// Logs replays the anchoring topic and returns its decoded entries.
func (c *Client) Logs(ctx context.Context) (*LogsResult, error) {
	var out LogsResult
	if err := c.do(ctx, http.MethodGet, "/logs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// apiError is the JSON error shape returned by the server.
type apiError struct {
	Error string `json:"error"`
}

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, ae.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
