package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"antiromantic-be/internal/db"
)

type Repository interface {
	Enqueue(ctx context.Context, e *Event) error
	FetchUnpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

// Enqueue joins the transaction in ctx, if any.
func (r *repository) Enqueue(ctx context.Context, e *Event) error {
	_, err := db.RunnerFrom(ctx, r.db).ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.AggregateType, e.AggregateID, e.EventType, string(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// FetchUnpublished returns pending events oldest first. ULIDs sort by time.
func (r *repository) FetchUnpublished(ctx context.Context, limit int) ([]Event, error) {
	rows, err := db.RunnerFrom(ctx, r.db).QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}

	return events, nil
}

func (r *repository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	_, err := db.RunnerFrom(ctx, r.db).ExecContext(ctx, `
		UPDATE outbox_events
		SET published_at = $2
		WHERE id = $1 AND published_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}
