package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crowdfund/internal/domain"
	"crowdfund/internal/infra"
	"crowdfund/internal/sqlinline"
)

// EventRepositoryPG persists the audit journal in PostgreSQL. The in-memory
// ledger stays the source of truth; this table is its durability and is
// replayed at startup.
type EventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewEventRepository creates a new journal repo.
func NewEventRepository(sql infra.SQLExecutor) *EventRepositoryPG {
	return &EventRepositoryPG{sql: sql}
}

// EnsureSchema creates the journal table and its index when missing.
func (r *EventRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureEventsTable); err != nil {
		return fmt.Errorf("ensure events table: %w", err)
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureEventsCampaignIndex); err != nil {
		return fmt.Errorf("ensure events index: %w", err)
	}
	return nil
}

// Append writes one committed audit record. Inserts are idempotent on seq so
// a retried write-through never duplicates a record.
func (r *EventRepositoryPG) Append(ctx context.Context, ev domain.Event, originCountry string) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertEvent,
		ev.Seq, ev.CampaignID, string(ev.Type), payload, originCountry, ev.At)
	if err != nil {
		return fmt.Errorf("insert event seq %d: %w", ev.Seq, err)
	}
	return nil
}

// ListSince returns persisted records with seq greater than cursor, oldest
// first, with payloads as raw JSON.
func (r *EventRepositoryPG) ListSince(ctx context.Context, cursor int64) ([]domain.Event, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListEventsSince, cursor)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			ev      domain.Event
			typ     string
			payload []byte
			at      time.Time
		)
		if err := rows.Scan(&ev.Seq, &ev.CampaignID, &typ, &payload, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = domain.EventType(typ)
		ev.At = at
		ev.Payload = json.RawMessage(append([]byte(nil), payload...))
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

var _ domain.EventRepository = (*EventRepositoryPG)(nil)
