package domain

import (
	"encoding/json"
	"testing"
	"time"
)

// storedForm round-trips events through JSON the way the persistence layer
// does: typed payloads go in, raw JSON payloads come back.
func storedForm(t *testing.T, events []Event) []Event {
	t.Helper()
	out := make([]Event, len(events))
	for i, ev := range events {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		ev.Payload = json.RawMessage(raw)
		out[i] = ev
	}
	return out
}

func TestRebuildRestoresLedger(t *testing.T) {
	r := NewRegistry(nil)
	c, _, err := r.CreateCampaign(creatorAddr, testParams(time.Now().Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if _, err := c.Contribute(creatorAddr, 6); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := c.Contribute(contributorAddr, 7); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, _, err := c.CreateWithdrawRequest(creatorAddr, "server hosting", 2, creatorAddr); err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := c.VoteWithdrawRequest(contributorAddr, 0); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := c.WithdrawRequestedAmount(creatorAddr, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	rebuilt, err := Rebuild(storedForm(t, r.Events(0)), nil)
	if err != nil {
		t.Fatalf("Rebuild returned error: %v", err)
	}

	rc, err := rebuilt.Get(c.ID)
	if err != nil {
		t.Fatalf("rebuilt registry missing campaign: %v", err)
	}

	got, want := rc.Snapshot(), c.Snapshot()
	if got.Creator != want.Creator || got.Title != want.Title || got.Description != want.Description {
		t.Fatalf("identity mismatch:\n got %+v\nwant %+v", got, want)
	}
	if got.RaisedAmount != 13 || got.Balance != 11 {
		t.Fatalf("amounts mismatch: raised=%d balance=%d", got.RaisedAmount, got.Balance)
	}
	if got.State != StateSuccessful {
		t.Fatalf("state = %v, want successful", got.State)
	}
	if got.ContributorCount != 2 {
		t.Fatalf("contributorCount = %d, want 2", got.ContributorCount)
	}
	if got.CompleteAt == nil {
		t.Fatal("completeAt lost in replay")
	}

	if rc.ContributionOf(contributorAddr) != 7 {
		t.Fatalf("contribution ledger mismatch: %d", rc.ContributionOf(contributorAddr))
	}

	req, err := rc.Request(0)
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if !req.IsCompleted || req.VoteCount != 1 || req.Amount != 2 || req.Recipient != creatorAddr {
		t.Fatalf("request mismatch: %+v", req)
	}
	voted, err := rc.HasVoted(0, contributorAddr)
	if err != nil || !voted {
		t.Fatalf("vote set lost in replay: %v, %v", voted, err)
	}

	// The journal itself must survive, cursor semantics included.
	if rebuilt.Events(0)[0].Seq != 1 || len(rebuilt.Events(0)) != len(r.Events(0)) {
		t.Fatalf("journal not restored: %d records", len(rebuilt.Events(0)))
	}
}

func TestRebuildDoesNotReevaluateDeadlines(t *testing.T) {
	restore := timeNow
	defer func() { timeNow = restore }()

	start := time.Now()
	timeNow = func() time.Time { return start }

	r := NewRegistry(nil)
	c, _, err := r.CreateCampaign(creatorAddr, testParams(start.Add(time.Hour)))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	// Hits the target while fundraising is still open.
	if _, err := c.Contribute(creatorAddr, 12); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	// Replay long after the deadline: the successful outcome must hold even
	// though a fresh contribution at this clock would be rejected.
	timeNow = func() time.Time { return start.Add(48 * time.Hour) }
	rebuilt, err := Rebuild(storedForm(t, r.Events(0)), nil)
	if err != nil {
		t.Fatalf("Rebuild returned error: %v", err)
	}
	rc, err := rebuilt.Get(c.ID)
	if err != nil {
		t.Fatalf("rebuilt registry missing campaign: %v", err)
	}
	if got := rc.State(); got != StateSuccessful {
		t.Fatalf("state after replay = %v, want successful", got)
	}
	if rc.CompleteAt().IsZero() {
		t.Fatal("completeAt lost in replay")
	}
}

func TestRebuildFromGappedJournal(t *testing.T) {
	r := NewRegistry(nil)
	c, _, err := r.CreateCampaign(creatorAddr, testParams(time.Now().Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if _, err := c.Contribute(creatorAddr, 3); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := c.Contribute(contributorAddr, 4); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	// A write-through failure can leave a hole in the persisted journal:
	// seqs 1 and 3 are on disk, seq 2 never made it.
	stored := storedForm(t, r.Events(0))
	gapped := []Event{stored[0], stored[2]}

	rebuilt, err := Rebuild(gapped, nil)
	if err != nil {
		t.Fatalf("Rebuild returned error: %v", err)
	}

	// Cursor reads select by seq value, so the record after the gap is
	// still reachable from a cursor inside the gap.
	tail := rebuilt.Events(2)
	if len(tail) != 1 || tail[0].Seq != 3 {
		t.Fatalf("Events(2) = %+v, want the seq 3 record", tail)
	}

	// New records must mint seqs strictly after the highest persisted seq,
	// never reusing one an idempotent insert would silently drop.
	rc, err := rebuilt.Get(c.ID)
	if err != nil {
		t.Fatalf("rebuilt registry missing campaign: %v", err)
	}
	ev, err := rc.Contribute(creatorAddr, 2)
	if err != nil {
		t.Fatalf("contribute after rebuild: %v", err)
	}
	if ev.Seq != 4 {
		t.Fatalf("minted seq = %d, want 4", ev.Seq)
	}
}

func TestRebuildRejectsUnknownEvent(t *testing.T) {
	events := []Event{{Seq: 1, CampaignID: "x", Type: "telemetry", Payload: json.RawMessage(`{}`)}}
	if _, err := Rebuild(events, nil); err == nil {
		t.Fatal("Rebuild accepted an unknown event type")
	}
}

func TestRebuildEmptyJournal(t *testing.T) {
	r, err := Rebuild(nil, nil)
	if err != nil {
		t.Fatalf("Rebuild returned error: %v", err)
	}
	if len(r.All()) != 0 {
		t.Fatalf("empty journal produced %d campaigns", len(r.All()))
	}
}
