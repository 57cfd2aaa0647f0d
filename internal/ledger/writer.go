package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caldermed/medanchor/internal/records"
	"go.uber.org/zap"
)

// DefaultSubmitTimeout bounds the wait for a submission acknowledgment
// when the Writer is constructed with a non-positive timeout.
const DefaultSubmitTimeout = 10 * time.Second

// Writer submits anchor messages to a single configured topic.
//
// Exactly one submission attempt is made per Anchor call; there is no
// internal retry. Failed anchors surface to the caller, who still holds
// the record locally and may re-anchor later.
type Writer struct {
	client  Client
	topic   TopicID
	timeout time.Duration
	logger  *zap.Logger
}

// NewWriter creates a Writer bound to the given topic.
func NewWriter(client Client, topic TopicID, timeout time.Duration, logger *zap.Logger) *Writer {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &Writer{client: client, topic: topic, timeout: timeout, logger: logger}
}

// Topic returns the topic this writer anchors to.
func (w *Writer) Topic() TopicID {
	return w.topic
}

// Anchor submits "<recordType>|<hash>" to the topic and returns the
// ledger-assigned submission id. The append is irreversible.
func (w *Writer) Anchor(ctx context.Context, recordType records.Type, hash string) (SubmissionID, error) {
	msg := EncodeAnchor(recordType, hash)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	id, err := w.client.Submit(ctx, w.topic, msg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: topic %s, type %s", ErrSubmitTimeout, w.topic, recordType)
		}
		return "", fmt.Errorf("%w: topic %s, type %s: %v", ErrLedgerUnavailable, w.topic, recordType, err)
	}

	w.logger.Info("anchored record hash",
		zap.String("topic", string(w.topic)),
		zap.String("type", string(recordType)),
		zap.String("hash", hash),
		zap.String("submission_id", string(id)),
	)
	return id, nil
}
