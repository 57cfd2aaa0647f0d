package ledger

import "errors"

var (
	// ErrLedgerUnavailable is returned when a submission cannot be
	// delivered to the ledger at all.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrSubmitTimeout is returned when a submission was sent but no
	// acknowledgment arrived within the configured wait.
	ErrSubmitTimeout = errors.New("ledger submission not acknowledged in time")

	// ErrLedgerTransport is returned for a genuine subscription or
	// transport failure during replay. A deadline elapsing with entries
	// still outstanding is NOT a transport error; that case returns a
	// partial ReplayWindow and no error.
	ErrLedgerTransport = errors.New("ledger transport failure")

	// ErrMalformedEntry marks topic contents that do not decode as an
	// anchor message. The replay engine logs and skips such entries;
	// this error never propagates out of a replay.
	ErrMalformedEntry = errors.New("malformed ledger entry")

	// ErrTopicNotFound is returned when a topic id does not exist.
	ErrTopicNotFound = errors.New("topic not found")
)
