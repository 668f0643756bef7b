package domain

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// EventType enumerates the audit record kinds emitted by the ledger.
type EventType string

const (
	EventProjectStarted         EventType = "project_started"
	EventFundingReceived        EventType = "funding_received"
	EventWithdrawRequestCreated EventType = "withdraw_request_created"
	EventWithdrawVote           EventType = "withdraw_vote"
	EventWithdrawCompleted      EventType = "withdraw_completed"
)

// Event is one audit record. Records are append-only and globally ordered by
// Seq, so external consumers read the journal incrementally instead of
// re-polling every getter.
type Event struct {
	Seq        int64     `json:"seq"`
	CampaignID string    `json:"campaign_id"`
	Type       EventType `json:"type"`
	At         time.Time `json:"at"`
	Payload    any       `json:"payload"`
}

// ProjectStarted is recorded when the registry creates a campaign.
type ProjectStarted struct {
	CampaignID          string    `json:"campaign_id"`
	Creator             string    `json:"creator"`
	MinimumContribution int64     `json:"minimum_contribution"`
	Deadline            time.Time `json:"deadline"`
	TargetContribution  int64     `json:"target_contribution"`
	RaisedAmount        int64     `json:"raised_amount"`
	ContributorCount    int       `json:"contributor_count"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
}

// FundingReceived is recorded for every accepted contribution.
type FundingReceived struct {
	Contributor  string `json:"contributor"`
	Amount       int64  `json:"amount"`
	CurrentTotal int64  `json:"current_total"`
}

// WithdrawRequestCreated is recorded when the creator proposes a withdrawal.
type WithdrawRequestCreated struct {
	RequestID   int    `json:"request_id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	VoteCount   int    `json:"vote_count"`
	IsCompleted bool   `json:"is_completed"`
	Recipient   string `json:"recipient"`
}

// WithdrawVote is recorded for every accepted contributor vote.
type WithdrawVote struct {
	RequestID  int    `json:"request_id"`
	Voter      string `json:"voter"`
	TotalVotes int    `json:"total_votes"`
}

// WithdrawCompleted is recorded when a quorum-approved withdrawal executes.
type WithdrawCompleted struct {
	RequestID   int    `json:"request_id"`
	Amount      int64  `json:"amount"`
	VoteCount   int    `json:"vote_count"`
	IsCompleted bool   `json:"is_completed"`
	Recipient   string `json:"recipient"`
}

// Journal is the append-only audit log shared by a registry and every
// campaign it creates. Sequence numbers start at 1 and never repeat, but a
// journal restored from storage may carry gaps, so readers select by Seq
// value rather than by position.
type Journal struct {
	mu      sync.Mutex
	lastSeq int64
	events  []Event
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Append(campaignID string, typ EventType, payload any) Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastSeq++
	ev := Event{
		Seq:        j.lastSeq,
		CampaignID: campaignID,
		Type:       typ,
		At:         timeNow().UTC(),
		Payload:    payload,
	}
	j.events = append(j.events, ev)
	return ev
}

// restore re-appends a persisted record and keeps future minted seqs strictly
// ahead of everything seen, so a rebuilt journal never reissues a seq that is
// already on disk.
func (j *Journal) restore(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	if ev.Seq > j.lastSeq {
		j.lastSeq = ev.Seq
	}
}

// Since returns all records with Seq greater than cursor, oldest first.
func (j *Journal) Since(cursor int64) []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []Event
	for _, ev := range j.events {
		if ev.Seq > cursor {
			out = append(out, ev)
		}
	}
	return out
}

// CampaignSince returns one campaign's records with Seq greater than cursor.
func (j *Journal) CampaignSince(campaignID string, cursor int64) []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []Event
	for _, ev := range j.events {
		if ev.Seq > cursor && ev.CampaignID == campaignID {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of records appended so far.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.events)
}

// decodePayload converts an event payload into dst. Payloads held in memory
// are typed structs while payloads loaded from storage are raw JSON, so the
// conversion goes through a JSON round trip either way.
func decodePayload(payload any, dst any) error {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		raw = encoded
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
