package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StopCondition lets a caller end a replay early. It is evaluated once
// per newly accepted entry; returning true terminates the replay with
// the window collected so far marked complete.
type StopCondition func(Entry) bool

// ReplayWindow is the outcome of one bounded replay: the deduplicated,
// sequence-sorted entries collected before the replay terminated.
type ReplayWindow struct {
	// Entries is sorted ascending by SequenceNumber, independent of
	// arrival order. Every entry carries a decoded Message.
	Entries []Entry

	// Skipped counts malformed entries that were observed and excluded.
	Skipped int

	// Complete is false when the deadline cut the replay short. An
	// incomplete window is a valid, normal result: "hash not found in
	// an incomplete window" is inconclusive, not evidence of tampering.
	Complete bool
}

// Contains reports whether the window holds an anchor for the given
// decoded message, returning the matching entry.
func (w *ReplayWindow) Contains(msg Message) (Entry, bool) {
	for _, e := range w.Entries {
		if e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// Reader is the replay engine. It re-consumes a topic from a start
// point within a bounded amount of time. One Reader handle is safe for
// concurrent use; each Replay call owns its own subscription.
type Reader struct {
	client Client
	logger *zap.Logger
}

// NewReader creates a Reader over the given transport client.
func NewReader(client Client, logger *zap.Logger) *Reader {
	return &Reader{client: client, logger: logger}
}

// Replay subscribes to topic at start and consumes deliveries until the
// first of: stop returns true, the subscription's channels are drained
// and closed, or deadline elapses. The zero start time means the topic
// origin; stop may be nil.
//
// Deadline expiry is not an error: the window collected so far is
// returned with Complete=false. An error is returned only for a genuine
// transport failure (ErrLedgerTransport) or caller cancellation.
func (r *Reader) Replay(ctx context.Context, topic TopicID, start time.Time, deadline time.Duration, stop StopCondition) (*ReplayWindow, error) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := r.client.Subscribe(subCtx, topic, start)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe to topic %s: %v", ErrLedgerTransport, topic, err)
	}

	// The subscription must be released exactly once on every exit path.
	// Both the deadline path and the data path may race to tear down.
	var once sync.Once
	release := func() { once.Do(sub.Close) }
	defer release()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	window := &ReplayWindow{}
	seen := make(map[uint64]struct{})
	primary, secondary := sub.Primary(), sub.Secondary()

	for primary != nil || secondary != nil {
		var (
			d  Delivery
			ok bool
		)

		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()

		case <-timer.C:
			// Partial-result policy: return what was collected so far.
			release()
			r.sortEntries(window)
			r.logger.Debug("replay deadline elapsed",
				zap.String("topic", string(topic)),
				zap.Int("entries", len(window.Entries)),
				zap.Int("skipped", window.Skipped),
			)
			return window, nil

		case d, ok = <-primary:
			if !ok {
				primary = nil
				continue
			}

		case d, ok = <-secondary:
			if !ok {
				secondary = nil
				continue
			}
		}

		// Classify by content, not by channel: an entry is ledger data
		// wherever it arrived; an entry-less delivery is a fault.
		if d.Entry == nil {
			if d.Err == nil {
				continue
			}
			release()
			return nil, fmt.Errorf("%w: topic %s: %v", ErrLedgerTransport, topic, d.Err)
		}

		e := *d.Entry
		if _, dup := seen[e.SequenceNumber]; dup {
			// At-least-once redelivery of an already-seen entry.
			continue
		}
		seen[e.SequenceNumber] = struct{}{}

		msg, err := DecodeAnchor(e.Contents)
		if err != nil {
			window.Skipped++
			r.logger.Warn("skipping malformed ledger entry",
				zap.String("topic", string(topic)),
				zap.Uint64("sequence", e.SequenceNumber),
				zap.Error(err),
			)
			continue
		}
		e.Message = msg
		window.Entries = append(window.Entries, e)

		if stop != nil && stop(e) {
			break
		}
	}

	// Stop condition satisfied or stream drained before the deadline.
	release()
	window.Complete = true
	r.sortEntries(window)
	return window, nil
}

// sortEntries orders the window ascending by sequence number. Arrival
// order is not guaranteed to match sequence order across the two
// delivery channels.
func (r *Reader) sortEntries(w *ReplayWindow) {
	sort.Slice(w.Entries, func(i, j int) bool {
		return w.Entries[i].SequenceNumber < w.Entries[j].SequenceNumber
	})
}
