package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryClient is an in-memory, thread-safe Client implementation.
// It is primarily useful for testing and for single-process development
// deployments that have no ledger network available.
//
// Options simulate real transport behavior: duplicate delivery, entries
// arriving via the secondary channel, paced delivery, and mid-stream
// faults. Sequence numbers start at 1 and increase monotonically per
// topic.
type MemoryClient struct {
	mu     sync.Mutex
	topics map[TopicID]*memTopic

	dualDelivery  bool
	redeliver     bool
	deliveryDelay time.Duration
	faultAfter    int
	faultErr      error
}

type memTopic struct {
	entries []Entry
	nextSeq uint64
}

// MemoryOption configures a MemoryClient.
type MemoryOption func(*MemoryClient)

// WithDualDelivery mirrors every delivery onto the secondary channel,
// simulating a transport that hands the same entry to both its success
// and error callbacks.
func WithDualDelivery() MemoryOption {
	return func(c *MemoryClient) { c.dualDelivery = true }
}

// WithRedelivery delivers every entry twice on the primary channel,
// simulating at-least-once redelivery.
func WithRedelivery() MemoryOption {
	return func(c *MemoryClient) { c.redeliver = true }
}

// WithDeliveryDelay paces the stream, sleeping d before each delivery.
func WithDeliveryDelay(d time.Duration) MemoryOption {
	return func(c *MemoryClient) { c.deliveryDelay = d }
}

// WithFaultAfter injects a transport fault on the secondary channel
// after n entries have been delivered; the stream ends there.
func WithFaultAfter(n int, err error) MemoryOption {
	return func(c *MemoryClient) {
		c.faultAfter = n
		c.faultErr = err
	}
}

// NewMemoryClient creates an empty MemoryClient.
func NewMemoryClient(opts ...MemoryOption) *MemoryClient {
	c := &MemoryClient{topics: make(map[TopicID]*memTopic), faultAfter: -1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTopic implements Client.
func (c *MemoryClient) CreateTopic(_ context.Context) (TopicID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := TopicID(uuid.NewString())
	c.topics[id] = &memTopic{nextSeq: 1}
	return id, nil
}

// Submit implements Client.
func (c *MemoryClient) Submit(_ context.Context, topic TopicID, contents []byte) (SubmissionID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.topics[topic]
	if !ok {
		return "", ErrTopicNotFound
	}

	cp := make([]byte, len(contents))
	copy(cp, contents)
	t.entries = append(t.entries, Entry{
		SequenceNumber:     t.nextSeq,
		ConsensusTimestamp: time.Now().UTC(),
		Contents:           cp,
	})
	t.nextSeq++

	return SubmissionID(uuid.NewString()), nil
}

// Subscribe implements Client. The snapshot taken at subscription time
// is delivered asynchronously, then both channels are closed.
func (c *MemoryClient) Subscribe(ctx context.Context, topic TopicID, start time.Time) (Subscription, error) {
	c.mu.Lock()
	t, ok := c.topics[topic]
	if !ok {
		c.mu.Unlock()
		return nil, ErrTopicNotFound
	}

	var snapshot []Entry
	for _, e := range t.entries {
		if start.IsZero() || !e.ConsensusTimestamp.Before(start) {
			snapshot = append(snapshot, e)
		}
	}
	c.mu.Unlock()

	sub := newMemSubscription()
	go c.stream(ctx, sub, snapshot)
	return sub, nil
}

// stream pushes the snapshot to the subscription, honoring the
// configured delivery quirks, and ends the stream when done.
func (c *MemoryClient) stream(ctx context.Context, sub *memSubscription, snapshot []Entry) {
	defer sub.finish()

	for i := range snapshot {
		if c.faultAfter >= 0 && i == c.faultAfter {
			sub.deliverSecondary(Delivery{Err: c.faultErr})
			return
		}
		if c.deliveryDelay > 0 {
			select {
			case <-time.After(c.deliveryDelay):
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			}
		}

		e := snapshot[i]
		if !sub.deliverPrimary(Delivery{Entry: &e}) {
			return
		}
		if c.redeliver {
			sub.deliverPrimary(Delivery{Entry: &e})
		}
		if c.dualDelivery {
			sub.deliverSecondary(Delivery{Entry: &e})
		}
	}
}

// memSubscription is the Subscription returned by MemoryClient.
type memSubscription struct {
	primary   chan Delivery
	secondary chan Delivery
	done      chan struct{}
	closeOnce sync.Once
	endOnce   sync.Once
}

func newMemSubscription() *memSubscription {
	return &memSubscription{
		primary:   make(chan Delivery, 256),
		secondary: make(chan Delivery, 256),
		done:      make(chan struct{}),
	}
}

func (s *memSubscription) Primary() <-chan Delivery   { return s.primary }
func (s *memSubscription) Secondary() <-chan Delivery { return s.secondary }

// Close implements Subscription. Idempotent and safe to race with the
// streaming goroutine: it signals the streamer, which closes the
// channels exactly once when it exits.
func (s *memSubscription) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// finish ends the stream, closing both delivery channels exactly once.
func (s *memSubscription) finish() {
	s.endOnce.Do(func() {
		close(s.primary)
		close(s.secondary)
	})
}

// deliverPrimary sends on the primary channel unless the subscription
// is closed. Reports whether the stream should continue.
func (s *memSubscription) deliverPrimary(d Delivery) bool {
	select {
	case <-s.done:
		return false
	case s.primary <- d:
		return true
	}
}

func (s *memSubscription) deliverSecondary(d Delivery) bool {
	select {
	case <-s.done:
		return false
	case s.secondary <- d:
		return true
	}
}
