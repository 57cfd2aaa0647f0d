// Package ledger is the client side of the external append-only,
// globally ordered log that anchor hashes are submitted to.
//
// The package has three layers:
//
//   - Client: the transport abstraction: create a topic, submit bytes,
//     subscribe to a topic from a start point. Two implementations are
//     provided: MemoryClient (in-process, for testing and development)
//     and PostgresClient (durable, for production use).
//   - Writer: builds "<TYPE>|<hash>" anchor messages and submits them
//     with a bounded acknowledgment wait.
//   - Reader: the replay engine. Re-consumes a topic within a time
//     limit, deduplicates at-least-once deliveries, tolerates malformed
//     entries, and returns a sequence-sorted window.
//
// Delivery is at-least-once and dual-channel: the same entry may reach
// the consumer more than once, on either the primary or the secondary
// channel, depending on transport quirks. Consumers must classify
// deliveries by content, never by which channel they arrived on.
package ledger

import (
	"context"
	"time"
)

// TopicID addresses one ordered log on the ledger network.
type TopicID string

// SubmissionID is the opaque, ledger-assigned identifier of one
// successful submission.
type SubmissionID string

// Delivery is one unit received from a subscription. Exactly one of
// Entry or Err is meaningful: a delivery carrying an entry is ledger
// data (even when it arrived on the secondary channel), a delivery
// carrying only an error is a transport fault.
type Delivery struct {
	Entry *Entry
	Err   error
}

// Subscription is a live attachment to a topic. Close releases the
// underlying transport resources and is safe to call more than once and
// from concurrent goroutines; after Close both channels are closed.
type Subscription interface {
	// Primary is the main delivery channel.
	Primary() <-chan Delivery

	// Secondary carries deliveries that the transport routed through its
	// error path. Entries arriving here are as valid as any other.
	Secondary() <-chan Delivery

	Close()
}

// Client is the transport interface to the external ordered log.
// Implementations must be safe for concurrent use; one Client handle is
// shared by all requests for the life of the process.
type Client interface {
	// CreateTopic provisions a new topic and returns its id.
	CreateTopic(ctx context.Context) (TopicID, error)

	// Submit appends contents to the topic and returns the
	// ledger-assigned submission id once the write is acknowledged.
	Submit(ctx context.Context, topic TopicID, contents []byte) (SubmissionID, error)

	// Subscribe attaches to a topic and replays entries whose consensus
	// timestamp is at or after start (the zero time means the topic
	// origin) up to the topic tip observed at subscription time, then
	// ends the stream by closing both channels. Replays are restartable,
	// not live: a later verification re-subscribes from its own start
	// point rather than holding a subscription open.
	Subscribe(ctx context.Context, topic TopicID, start time.Time) (Subscription, error)
}
