package handlers

import (
	"net/http"
	"strconv"

	"crowdfund/internal/domain"
)

func sinceCursor(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return 0, true
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, false
	}
	return cursor, true
}

func eventsPage(events []domain.Event, cursor int64) map[string]any {
	next := cursor
	if n := len(events); n > 0 {
		next = events[n-1].Seq
	}
	return map[string]any{"items": events, "cursor": next}
}

// EventsFeed streams the global audit journal from a cursor. Clients poll
// with the returned cursor to tail new records.
func (a *App) EventsFeed(w http.ResponseWriter, r *http.Request) {
	cursor, ok := sinceCursor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid since cursor")
		return
	}
	a.json(w, http.StatusOK, eventsPage(a.Registry.Events(cursor), cursor))
}

// CampaignEvents is the per-campaign view of the audit journal.
func (a *App) CampaignEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	cursor, ok := sinceCursor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid since cursor")
		return
	}
	a.json(w, http.StatusOK, eventsPage(c.Events(cursor), cursor))
}
