package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCreateCampaign(t *testing.T) {
	r := NewRegistry(nil)
	deadline := time.Now().Add(24 * time.Hour)

	c, ev, err := r.CreateCampaign(creatorAddr, testParams(deadline))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if c.ID == "" {
		t.Fatal("campaign handle is empty")
	}

	payload, ok := ev.Payload.(ProjectStarted)
	if !ok {
		t.Fatalf("unexpected payload type %T", ev.Payload)
	}
	if payload.CampaignID != c.ID || payload.Creator != creatorAddr {
		t.Fatalf("unexpected creation record: %+v", payload)
	}
	if payload.MinimumContribution != 1 || payload.TargetContribution != 10 {
		t.Fatalf("unexpected funding parameters in record: %+v", payload)
	}
	if payload.RaisedAmount != 0 || payload.ContributorCount != 0 {
		t.Fatalf("new campaign record not empty: %+v", payload)
	}
	if payload.Title != "Testing project" || payload.Description != "Testing project description" {
		t.Fatalf("title/description missing from record: %+v", payload)
	}
	if ev.Type != EventProjectStarted || ev.Seq != 1 {
		t.Fatalf("event envelope wrong: type=%q seq=%d", ev.Type, ev.Seq)
	}
}

func TestAllPreservesCreationOrder(t *testing.T) {
	r := NewRegistry(nil)
	deadline := time.Now().Add(24 * time.Hour)

	var ids []string
	for i := 0; i < 3; i++ {
		c, _, err := r.CreateCampaign(creatorAddr, testParams(deadline))
		if err != nil {
			t.Fatalf("CreateCampaign returned error: %v", err)
		}
		ids = append(ids, c.ID)
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("directory size = %d, want 3", len(all))
	}
	for i, c := range all {
		if c.ID != ids[i] {
			t.Fatalf("directory[%d] = %q, want %q", i, c.ID, ids[i])
		}
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry(nil)
	c, _, err := r.CreateCampaign(creatorAddr, testParams(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}

	got, err := r.Get(c.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != c {
		t.Fatal("Get returned a different campaign")
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateCampaignRejectsUnrepresentableParams(t *testing.T) {
	r := NewRegistry(nil)
	deadline := time.Now().Add(time.Hour)

	params := testParams(deadline)
	params.MinimumContribution = -1
	if _, _, err := r.CreateCampaign(creatorAddr, params); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative minimum: err = %v, want ErrInvalidArgument", err)
	}

	params = testParams(deadline)
	params.TargetContribution = -5
	if _, _, err := r.CreateCampaign(creatorAddr, params); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative target: err = %v, want ErrInvalidArgument", err)
	}

	if _, _, err := r.CreateCampaign("", testParams(deadline)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty creator: err = %v, want ErrInvalidArgument", err)
	}

	// A deadline in the past is not the registry's business: the campaign is
	// created and simply reads as expired.
	c, _, err := r.CreateCampaign(creatorAddr, testParams(time.Now().Add(-time.Hour)))
	if err != nil {
		t.Fatalf("past deadline rejected by registry: %v", err)
	}
	if got := c.State(); got != StateExpired {
		t.Fatalf("state = %v, want expired", got)
	}
}

func TestRegistryEventsSpanCampaigns(t *testing.T) {
	r := NewRegistry(nil)
	deadline := time.Now().Add(time.Hour)

	c1, _, err := r.CreateCampaign(creatorAddr, testParams(deadline))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	c2, _, err := r.CreateCampaign(contributorAddr, testParams(deadline))
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if _, err := c2.Contribute(creatorAddr, 3); err != nil {
		t.Fatalf("Contribute returned error: %v", err)
	}

	events := r.Events(0)
	if len(events) != 3 {
		t.Fatalf("journal length = %d, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Seq != int64(i)+1 {
			t.Fatalf("event[%d] seq = %d, want %d", i, ev.Seq, i+1)
		}
	}
	if events[0].CampaignID != c1.ID || events[2].CampaignID != c2.ID {
		t.Fatalf("journal attribution wrong: %+v", events)
	}

	if got := r.Events(2); len(got) != 1 || got[0].Seq != 3 {
		t.Fatalf("cursor read wrong: %+v", got)
	}
}
