package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/caldermed/medanchor/internal/records"
	"go.uber.org/zap"
)

func TestWriter_anchorRoundTrip(t *testing.T) {
	client := ledger.NewMemoryClient()
	topic, err := client.CreateTopic(ctx)
	if err != nil {
		t.Fatal(err)
	}

	writer := ledger.NewWriter(client, topic, time.Second, zap.NewNop())
	hash := "a3f5c2d1e4b6978012345678901234567890123456789012345678901234abcd"

	id, err := writer.Anchor(ctx, records.TypePatient, hash)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("expected a non-empty submission id")
	}

	// A replay starting at the topic origin must contain the anchor.
	reader := ledger.NewReader(client, zap.NewNop())
	window, err := reader.Replay(ctx, topic, time.Time{}, 2*time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := window.Contains(ledger.Message{Type: records.TypePatient, Hash: hash}); !ok {
		t.Error("anchored hash not found in replay window")
	}
}

func TestWriter_unknownTopicIsUnavailable(t *testing.T) {
	client := ledger.NewMemoryClient()
	writer := ledger.NewWriter(client, "no-such-topic", time.Second, zap.NewNop())

	_, err := writer.Anchor(ctx, records.TypeOrgan, "feedface")
	if !errors.Is(err, ledger.ErrLedgerUnavailable) {
		t.Errorf("expected ErrLedgerUnavailable, got %v", err)
	}
}

func TestWriter_topicAccessor(t *testing.T) {
	writer := ledger.NewWriter(ledger.NewMemoryClient(), "t-1", 0, zap.NewNop())
	if writer.Topic() != "t-1" {
		t.Errorf("Topic(): got %q, want %q", writer.Topic(), "t-1")
	}
}
