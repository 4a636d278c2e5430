package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// counterTables maps counter types to the backend tables that hold their
// domain events. The engine does not own this schema; it only aggregates.
var counterTables = map[CounterType]string{
	CounterWorkouts: "workout_sessions",
	CounterAIChats:  "ai_chat_messages",
}

// PostgresEventSource counts usage events with a SQL aggregate over the
// app's domain-event tables. Because the query runs against the shared
// database, it reflects events created by every app surface including
// backend jobs, which an in-process counter would miss.
type PostgresEventSource struct {
	pool *pgxpool.Pool
}

// NewPostgresEventSource creates an EventSource over the given pool.
// Panics if pool is nil to fail fast during initialization.
func NewPostgresEventSource(pool *pgxpool.Pool) *PostgresEventSource {
	if pool == nil {
		panic("usage: pgx pool is required")
	}
	return &PostgresEventSource{pool: pool}
}

func (s *PostgresEventSource) CountEvents(ctx context.Context, userID string, counterType CounterType, windowStart time.Time) (int64, error) {
	table, ok := counterTables[counterType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCounter, counterType)
	}

	// Table names come from the static map above, never from input.
	query := fmt.Sprintf(
		`SELECT count(*) FROM %s WHERE user_id = $1 AND created_at >= $2`,
		table,
	)

	var count int64
	if err := s.pool.QueryRow(ctx, query, userID, windowStart.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s for user %s: %w", counterType, userID, err)
	}
	return count, nil
}
