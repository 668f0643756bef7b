package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CampaignParams are the immutable parameters of a new campaign.
type CampaignParams struct {
	MinimumContribution int64
	Deadline            time.Time
	TargetContribution  int64
	Title               string
	Description         string
}

// Registry is the factory and directory for campaigns. It owns the arena of
// campaign records; handles are stable UUIDs assigned at creation, and the
// directory preserves creation order. Campaigns are never removed: completed
// and expired campaigns remain readable history.
type Registry struct {
	mu      sync.RWMutex
	order   []*Campaign
	byID    map[string]*Campaign
	journal *Journal
	payout  PayoutFunc
}

// NewRegistry creates an empty registry. The payout callback, which may be
// nil, is handed to every campaign the registry creates.
func NewRegistry(payout PayoutFunc) *Registry {
	return &Registry{
		byID:    make(map[string]*Campaign),
		journal: NewJournal(),
		payout:  payout,
	}
}

// CreateCampaign constructs a campaign owned by creator and appends it to the
// directory. Business validation of the parameters (a deadline in the future
// and the like) is deliberately left to the campaign's own operations; the
// registry only rejects values that are not representable as amounts.
func (r *Registry) CreateCampaign(creator string, p CampaignParams) (*Campaign, Event, error) {
	if creator == "" {
		return nil, Event{}, ErrInvalidArgument
	}
	if p.MinimumContribution < 0 || p.TargetContribution < 0 {
		return nil, Event{}, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.newCampaign(uuid.NewString(), creator, p)
	ev := r.journal.Append(c.ID, EventProjectStarted, ProjectStarted{
		CampaignID:          c.ID,
		Creator:             c.Creator,
		MinimumContribution: c.MinimumContribution,
		Deadline:            c.Deadline,
		TargetContribution:  c.TargetContribution,
		RaisedAmount:        0,
		ContributorCount:    0,
		Title:               c.Title,
		Description:         c.Description,
	})
	return c, ev, nil
}

// newCampaign builds and indexes a campaign record. Callers hold r.mu.
func (r *Registry) newCampaign(id, creator string, p CampaignParams) *Campaign {
	c := &Campaign{
		ID:                  id,
		Creator:             creator,
		Title:               p.Title,
		Description:         p.Description,
		MinimumContribution: p.MinimumContribution,
		Deadline:            p.Deadline,
		TargetContribution:  p.TargetContribution,
		state:               StateFundraising,
		contributors:        make(map[string]int64),
		journal:             r.journal,
		payout:              r.payout,
	}
	r.order = append(r.order, c)
	r.byID[c.ID] = c
	return c
}

// All returns every campaign ever created, in creation order.
func (r *Registry) All() []*Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Campaign, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the campaign with the given handle.
func (r *Registry) Get(id string) (*Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Events returns the registry-wide audit records with Seq greater than cursor.
func (r *Registry) Events(cursor int64) []Event {
	return r.journal.Since(cursor)
}
