package domain

import "context"

// EventRepository persists the audit journal. Appends carry an optional
// origin country resolved from the caller's address for audit enrichment.
type EventRepository interface {
	Append(ctx context.Context, ev Event, originCountry string) error
	ListSince(ctx context.Context, cursor int64) ([]Event, error)
}
