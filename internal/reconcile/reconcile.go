// Package reconcile decides whether locally held records are still
// backed by their ledger anchors.
//
// The ledger is the sole source of truth: every verification recomputes
// the record's canonical hash and replays the topic, never trusting a
// locally stored hash or submission id. There is no cross-request cache
// of replay results; each verification re-replays, trading latency for
// freshness.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caldermed/medanchor/internal/canonical"
	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/caldermed/medanchor/internal/records"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidType is returned when a verification request names a record
// type that is not one of the known variants.
var ErrInvalidType = errors.New("invalid record type")

// Evidence points at the ledger entry that backs a valid verdict.
type Evidence struct {
	SequenceNumber     uint64    `json:"sequenceNumber"`
	ConsensusTimestamp time.Time `json:"consensusTimestamp"`
}

// Result is the verdict for one record.
//
// Valid=false with ReplayComplete=true is a confident negative: the
// whole topic was replayed and the hash is not anchored (tampered, or
// never anchored). Valid=false with ReplayComplete=false is
// inconclusive: the deadline cut the replay short and the anchor may
// lie beyond the collected window.
type Result struct {
	RecordType     records.Type `json:"recordType"`
	RecordID       uuid.UUID    `json:"recordId"`
	ComputedHash   string       `json:"computedHash"`
	Valid          bool         `json:"valid"`
	ReplayComplete bool         `json:"replayComplete"`
	Evidence       *Evidence    `json:"evidence,omitempty"`
}

// Reconciler recomputes record hashes and checks them against ledger
// replay windows. One handle is safe for concurrent use.
type Reconciler struct {
	store         records.Store
	reader        *ledger.Reader
	topic         ledger.TopicID
	bulkDeadline  time.Duration
	pointDeadline time.Duration
	logger        *zap.Logger
}

// New creates a Reconciler over the given store and replay engine.
// Non-positive deadlines fall back to 30s (bulk) and 10s (point).
func New(store records.Store, reader *ledger.Reader, topic ledger.TopicID, bulkDeadline, pointDeadline time.Duration, logger *zap.Logger) *Reconciler {
	if bulkDeadline <= 0 {
		bulkDeadline = 30 * time.Second
	}
	if pointDeadline <= 0 {
		pointDeadline = 10 * time.Second
	}
	return &Reconciler{
		store:         store,
		reader:        reader,
		topic:         topic,
		bulkDeadline:  bulkDeadline,
		pointDeadline: pointDeadline,
		logger:        logger,
	}
}

// VerifyAll replays the full topic from its origin and reconciles every
// stored record against the anchors found. One Result per record.
func (r *Reconciler) VerifyAll(ctx context.Context) ([]Result, error) {
	window, err := r.reader.Replay(ctx, r.topic, time.Time{}, r.bulkDeadline, nil)
	if err != nil {
		return nil, fmt.Errorf("bulk replay: %w", err)
	}

	anchored := make(map[ledger.Message]ledger.Entry, len(window.Entries))
	for _, e := range window.Entries {
		if _, ok := anchored[e.Message]; !ok {
			anchored[e.Message] = e
		}
	}

	patients, err := r.store.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	organs, err := r.store.ListOrgans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organs: %w", err)
	}

	results := make([]Result, 0, len(patients)+len(organs))
	for _, p := range patients {
		hash, err := canonical.HashPatient(p)
		if err != nil {
			return nil, fmt.Errorf("hash patient %s: %w", p.ID, err)
		}
		results = append(results, r.resolve(records.TypePatient, p.ID, hash, anchored, window.Complete))
	}
	for _, o := range organs {
		hash, err := canonical.HashOrgan(o)
		if err != nil {
			return nil, fmt.Errorf("hash organ %s: %w", o.ID, err)
		}
		results = append(results, r.resolve(records.TypeOrgan, o.ID, hash, anchored, window.Complete))
	}

	r.logger.Info("bulk verification finished",
		zap.String("topic", string(r.topic)),
		zap.Int("records", len(results)),
		zap.Int("anchors", len(anchored)),
		zap.Bool("replay_complete", window.Complete),
	)
	return results, nil
}

// resolve builds the Result for one record from the anchored set.
func (r *Reconciler) resolve(typ records.Type, id uuid.UUID, hash string, anchored map[ledger.Message]ledger.Entry, complete bool) Result {
	res := Result{
		RecordType:     typ,
		RecordID:       id,
		ComputedHash:   hash,
		ReplayComplete: complete,
	}
	if e, ok := anchored[ledger.Message{Type: typ, Hash: hash}]; ok {
		res.Valid = true
		res.Evidence = &Evidence{
			SequenceNumber:     e.SequenceNumber,
			ConsensusTimestamp: e.ConsensusTimestamp,
		}
	}
	return res
}

// VerifyRecord verifies a single record, replaying only until its
// anchor is found or the point deadline lapses. Returns ErrInvalidType
// for unknown type tags and records.ErrNotFound for unknown ids.
func (r *Reconciler) VerifyRecord(ctx context.Context, typ records.Type, id uuid.UUID) (*Result, error) {
	var (
		hash string
		err  error
	)
	switch typ {
	case records.TypePatient:
		var p *records.Patient
		if p, err = r.store.GetPatient(ctx, id); err == nil {
			hash, err = canonical.HashPatient(p)
		}
	case records.TypeOrgan:
		var o *records.Organ
		if o, err = r.store.GetOrgan(ctx, id); err == nil {
			hash, err = canonical.HashOrgan(o)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	if err != nil {
		return nil, err
	}

	want := ledger.Message{Type: typ, Hash: hash}
	window, err := r.reader.Replay(ctx, r.topic, time.Time{}, r.pointDeadline,
		func(e ledger.Entry) bool { return e.Message == want },
	)
	if err != nil {
		return nil, fmt.Errorf("point replay for %s %s: %w", typ, id, err)
	}

	res := &Result{
		RecordType:     typ,
		RecordID:       id,
		ComputedHash:   hash,
		ReplayComplete: window.Complete,
	}
	if e, ok := window.Contains(want); ok {
		res.Valid = true
		res.Evidence = &Evidence{
			SequenceNumber:     e.SequenceNumber,
			ConsensusTimestamp: e.ConsensusTimestamp,
		}
	}
	return res, nil
}

// ParseType maps a request type tag ("patient", "organ") to the record
// variant, or ErrInvalidType.
func ParseType(s string) (records.Type, error) {
	switch s {
	case "patient", "PATIENT":
		return records.TypePatient, nil
	case "organ", "ORGAN":
		return records.TypeOrgan, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}
