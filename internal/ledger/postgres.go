package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey is a stable PostgreSQL advisory lock key used to
// serialise concurrent Submit calls assigning sequence numbers. The
// value is arbitrary but must be consistent across all instances.
const advisoryLockKey = int64(7_420_118_305)

// PostgresClient persists topics and their ordered entries to
// PostgreSQL. It implements Client.
//
// Schema:
//
//	CREATE TABLE topics (
//	    id         UUID PRIMARY KEY,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE topic_entries (
//	    topic_id     UUID NOT NULL REFERENCES topics(id),
//	    seq          BIGINT NOT NULL,
//	    consensus_ts TIMESTAMPTZ NOT NULL,
//	    contents     BYTEA NOT NULL,
//	    PRIMARY KEY (topic_id, seq)
//	);
type PostgresClient struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresClient creates a PostgresClient backed by the given pool.
func NewPostgresClient(pool *pgxpool.Pool, logger *zap.Logger) *PostgresClient {
	return &PostgresClient{pool: pool, logger: logger}
}

// CreateTopic implements Client.
func (c *PostgresClient) CreateTopic(ctx context.Context) (TopicID, error) {
	id := TopicID(uuid.NewString())
	if _, err := c.pool.Exec(ctx,
		"INSERT INTO topics (id, created_at) VALUES ($1, $2)",
		string(id), time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("create topic: %w", err)
	}
	return id, nil
}

// Submit implements Client. It acquires a transaction-scoped advisory
// lock, reads the topic tail, and inserts the entry with the next
// sequence number, all within one transaction.
func (c *PostgresClient) Submit(ctx context.Context, topic TopicID, contents []byte) (SubmissionID, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialise concurrent submits with a transaction-scoped advisory
	// lock; it is released when the transaction commits or rolls back.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return "", fmt.Errorf("acquire advisory lock: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM topics WHERE id = $1)", string(topic),
	).Scan(&exists); err != nil {
		return "", fmt.Errorf("check topic: %w", err)
	}
	if !exists {
		return "", ErrTopicNotFound
	}

	var seq uint64
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM topic_entries WHERE topic_id = $1",
		string(topic),
	).Scan(&seq); err != nil {
		return "", fmt.Errorf("read topic tail: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`INSERT INTO topic_entries (topic_id, seq, consensus_ts, contents)
		 VALUES ($1, $2, $3, $4)`,
		string(topic), seq, now, contents,
	); err != nil {
		return "", fmt.Errorf("insert topic entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit entry tx: %w", err)
	}

	c.logger.Debug("ledger entry appended",
		zap.String("topic", string(topic)),
		zap.Uint64("seq", seq),
	)
	return SubmissionID(fmt.Sprintf("%s@%d", topic, seq)), nil
}

// Subscribe implements Client. The snapshot between start and the topic
// tip at subscription time is streamed on the primary channel, then
// both channels are closed. Query failures mid-stream are delivered as
// fault deliveries on the secondary channel.
func (c *PostgresClient) Subscribe(ctx context.Context, topic TopicID, start time.Time) (Subscription, error) {
	var exists bool
	if err := c.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM topics WHERE id = $1)", string(topic),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check topic: %w", err)
	}
	if !exists {
		return nil, ErrTopicNotFound
	}

	sub := newPgSubscription()
	go c.stream(ctx, sub, topic, start)
	return sub, nil
}

func (c *PostgresClient) stream(ctx context.Context, sub *pgSubscription, topic TopicID, start time.Time) {
	defer sub.finish()

	query := `SELECT seq, consensus_ts, contents FROM topic_entries
	          WHERE topic_id = $1 AND ($2::timestamptz IS NULL OR consensus_ts >= $2)
	          ORDER BY seq ASC`
	var startArg *time.Time
	if !start.IsZero() {
		startArg = &start
	}

	rows, err := c.pool.Query(ctx, query, string(topic), startArg)
	if err != nil {
		sub.deliverSecondary(Delivery{Err: fmt.Errorf("query topic entries: %w", err)})
		return
	}
	defer rows.Close()

	for rows.Next() {
		e := Entry{}
		if err := rows.Scan(&e.SequenceNumber, &e.ConsensusTimestamp, &e.Contents); err != nil {
			sub.deliverSecondary(Delivery{Err: fmt.Errorf("scan topic entry: %w", err)})
			return
		}
		if !sub.deliverPrimary(Delivery{Entry: &e}) {
			return
		}
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		sub.deliverSecondary(Delivery{Err: fmt.Errorf("read topic entries: %w", err)})
	}
}

// pgSubscription is the Subscription returned by PostgresClient.
type pgSubscription struct {
	primary   chan Delivery
	secondary chan Delivery
	done      chan struct{}
	closeOnce sync.Once
	endOnce   sync.Once
}

func newPgSubscription() *pgSubscription {
	return &pgSubscription{
		primary:   make(chan Delivery, 256),
		secondary: make(chan Delivery, 16),
		done:      make(chan struct{}),
	}
}

func (s *pgSubscription) Primary() <-chan Delivery   { return s.primary }
func (s *pgSubscription) Secondary() <-chan Delivery { return s.secondary }

// Close implements Subscription; idempotent and race-safe.
func (s *pgSubscription) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *pgSubscription) finish() {
	s.endOnce.Do(func() {
		close(s.primary)
		close(s.secondary)
	})
}

func (s *pgSubscription) deliverPrimary(d Delivery) bool {
	select {
	case <-s.done:
		return false
	case s.primary <- d:
		return true
	}
}

func (s *pgSubscription) deliverSecondary(d Delivery) bool {
	select {
	case <-s.done:
		return false
	case s.secondary <- d:
		return true
	}
}
