package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/caldermed/medanchor/internal/ledger"
)

func TestMemoryClient_sequenceNumbersAreMonotonic(t *testing.T) {
	client := ledger.NewMemoryClient()
	topic, err := client.CreateTopic(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := client.Submit(ctx, topic, []byte("A|b")); err != nil {
			t.Fatal(err)
		}
	}

	sub, err := client.Subscribe(ctx, topic, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	var want uint64 = 1
	for d := range sub.Primary() {
		if d.Entry.SequenceNumber != want {
			t.Errorf("sequence: got %d, want %d", d.Entry.SequenceNumber, want)
		}
		want++
	}
	if want != 4 {
		t.Errorf("delivered %d entries, want 3", want-1)
	}
}

func TestMemoryClient_submitToUnknownTopic(t *testing.T) {
	client := ledger.NewMemoryClient()
	if _, err := client.Submit(ctx, "nope", []byte("A|b")); !errors.Is(err, ledger.ErrTopicNotFound) {
		t.Errorf("expected ErrTopicNotFound, got %v", err)
	}
}

func TestMemoryClient_subscribeToUnknownTopic(t *testing.T) {
	client := ledger.NewMemoryClient()
	if _, err := client.Subscribe(ctx, "nope", time.Time{}); !errors.Is(err, ledger.ErrTopicNotFound) {
		t.Errorf("expected ErrTopicNotFound, got %v", err)
	}
}

func TestMemoryClient_topicsAreIsolated(t *testing.T) {
	client := ledger.NewMemoryClient()
	t1, _ := client.CreateTopic(ctx)
	t2, _ := client.CreateTopic(ctx)

	if _, err := client.Submit(ctx, t1, []byte("A|only-t1")); err != nil {
		t.Fatal(err)
	}

	sub, err := client.Subscribe(ctx, t2, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	n := 0
	for range sub.Primary() {
		n++
	}
	if n != 0 {
		t.Errorf("topic t2 delivered %d entries from t1", n)
	}
}

func TestSubscription_closeIsIdempotent(t *testing.T) {
	client := ledger.NewMemoryClient()
	topic, _ := client.CreateTopic(ctx)

	sub, err := client.Subscribe(ctx, topic, time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	// Must not panic however many times and from wherever Close runs.
	done := make(chan struct{})
	go func() {
		sub.Close()
		close(done)
	}()
	sub.Close()
	<-done
	sub.Close()
}
