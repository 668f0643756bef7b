package domain

import "fmt"

// Rebuild reconstructs a registry from its persisted journal. Records must be
// supplied in sequence order. Replay applies each record's effect directly and
// performs no precondition checks: every record was already validated when it
// was first committed, and re-running deadline checks against the current
// clock would corrupt campaigns that expired after the fact.
func Rebuild(events []Event, payout PayoutFunc) (*Registry, error) {
	r := NewRegistry(payout)
	for _, ev := range events {
		if err := r.apply(ev); err != nil {
			return nil, fmt.Errorf("replay seq %d (%s): %w", ev.Seq, ev.Type, err)
		}
		r.journal.restore(ev)
	}
	return r, nil
}

func (r *Registry) apply(ev Event) error {
	switch ev.Type {
	case EventProjectStarted:
		var p ProjectStarted
		if err := decodePayload(ev.Payload, &p); err != nil {
			return err
		}
		r.mu.Lock()
		r.newCampaign(p.CampaignID, p.Creator, CampaignParams{
			MinimumContribution: p.MinimumContribution,
			Deadline:            p.Deadline,
			TargetContribution:  p.TargetContribution,
			Title:               p.Title,
			Description:         p.Description,
		})
		r.mu.Unlock()
		return nil

	case EventFundingReceived:
		var p FundingReceived
		if err := decodePayload(ev.Payload, &p); err != nil {
			return err
		}
		c, err := r.Get(ev.CampaignID)
		if err != nil {
			return err
		}
		c.applyContribution(p.Contributor, p.Amount, ev)
		return nil

	case EventWithdrawRequestCreated:
		var p WithdrawRequestCreated
		if err := decodePayload(ev.Payload, &p); err != nil {
			return err
		}
		c, err := r.Get(ev.CampaignID)
		if err != nil {
			return err
		}
		return c.applyRequest(p)

	case EventWithdrawVote:
		var p WithdrawVote
		if err := decodePayload(ev.Payload, &p); err != nil {
			return err
		}
		c, err := r.Get(ev.CampaignID)
		if err != nil {
			return err
		}
		return c.applyVote(p.RequestID, p.Voter)

	case EventWithdrawCompleted:
		var p WithdrawCompleted
		if err := decodePayload(ev.Payload, &p); err != nil {
			return err
		}
		c, err := r.Get(ev.CampaignID)
		if err != nil {
			return err
		}
		return c.applyWithdrawal(p.RequestID)

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func (c *Campaign) applyContribution(contributor string, amount int64, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contributors[contributor] == 0 {
		c.contributorCount++
	}
	c.contributors[contributor] += amount
	c.raisedAmount += amount
	if c.raisedAmount >= c.TargetContribution && c.state == StateFundraising {
		c.state = StateSuccessful
		// The record's timestamp is when the threshold was crossed.
		c.completeAt = ev.At
	}
}

func (c *Campaign) applyRequest(p WithdrawRequestCreated) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.RequestID != len(c.requests) {
		return fmt.Errorf("request id %d out of order, have %d requests", p.RequestID, len(c.requests))
	}
	c.requests = append(c.requests, &WithdrawRequest{
		Description: p.Description,
		Amount:      p.Amount,
		Recipient:   p.Recipient,
		voters:      make(map[string]bool),
	})
	return nil
}

func (c *Campaign) applyVote(id int, voter string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, err := c.request(id)
	if err != nil {
		return err
	}
	if !req.voters[voter] {
		req.voters[voter] = true
		req.VoteCount++
	}
	return nil
}

func (c *Campaign) applyWithdrawal(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, err := c.request(id)
	if err != nil {
		return err
	}
	if !req.IsCompleted {
		req.IsCompleted = true
		c.withdrawnAmount += req.Amount
	}
	return nil
}
