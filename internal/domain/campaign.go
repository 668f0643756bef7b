package domain

import (
	"math"
	"sync"
	"time"
)

// timeNow is swapped by tests that need to control deadline evaluation.
var timeNow = time.Now

// State enumerates campaign lifecycle states. The numeric values are part of
// the API contract: 0 fundraising, 1 expired, 2 successful.
type State int

const (
	StateFundraising State = iota
	StateExpired
	StateSuccessful
)

func (s State) String() string {
	switch s {
	case StateFundraising:
		return "fundraising"
	case StateExpired:
		return "expired"
	case StateSuccessful:
		return "successful"
	}
	return "unknown"
}

// PayoutFunc delivers custodied value to a recipient. It runs strictly after
// the withdrawal is committed as completed, so a reentrant call back into the
// campaign observes the request as already executed.
type PayoutFunc func(recipient string, amount int64)

// WithdrawRequest is a creator-proposed release of custodied funds, gated by
// contributor vote. Description, amount and recipient are immutable after
// creation.
type WithdrawRequest struct {
	Description string
	Amount      int64
	Recipient   string
	VoteCount   int
	IsCompleted bool

	voters map[string]bool
}

// WithdrawRequestInfo is a point-in-time copy of a request for readers.
type WithdrawRequestInfo struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Recipient   string `json:"recipient"`
	VoteCount   int    `json:"vote_count"`
	IsCompleted bool   `json:"is_completed"`
}

// CampaignInfo is a consistent snapshot of a campaign's observable state.
type CampaignInfo struct {
	ID                  string     `json:"id"`
	Creator             string     `json:"creator"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	MinimumContribution int64      `json:"minimum_contribution"`
	Deadline            time.Time  `json:"deadline"`
	TargetContribution  int64      `json:"target_contribution"`
	RaisedAmount        int64      `json:"raised_amount"`
	Balance             int64      `json:"balance"`
	State               State      `json:"state"`
	StateLabel          string     `json:"state_label"`
	ContributorCount    int        `json:"contributor_count"`
	CompleteAt          *time.Time `json:"complete_at,omitempty"`
	WithdrawRequests    int        `json:"no_of_withdraw_requests"`
}

// Campaign is the escrow ledger and voting state machine for a single
// fundraising effort. Every mutating operation validates all preconditions
// before touching state, so a failed call never leaves a partial update.
// Operations on one campaign are serialized by its mutex.
type Campaign struct {
	ID                  string
	Creator             string
	Title               string
	Description         string
	MinimumContribution int64
	Deadline            time.Time
	TargetContribution  int64

	mu               sync.Mutex
	state            State
	raisedAmount     int64
	withdrawnAmount  int64
	completeAt       time.Time
	contributors     map[string]int64
	contributorCount int
	requests         []*WithdrawRequest

	journal *Journal
	payout  PayoutFunc
}

// currentState derives the effective state. Expiry is a lazy read: a campaign
// still marked fundraising reads as expired once the deadline passes. The
// stored state never moves out of a terminal value.
func (c *Campaign) currentState() State {
	if c.state == StateFundraising && timeNow().After(c.Deadline) {
		return StateExpired
	}
	return c.state
}

// State returns the effective state, accounting for deadline expiry.
func (c *Campaign) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentState()
}

// RaisedAmount is the total ever contributed; it does not decrease when a
// withdrawal executes.
func (c *Campaign) RaisedAmount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raisedAmount
}

// Balance is the currently custodied amount: total raised minus executed
// withdrawals.
func (c *Campaign) Balance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance()
}

func (c *Campaign) balance() int64 {
	return c.raisedAmount - c.withdrawnAmount
}

// ContributorCount is the number of distinct identities with a positive
// contribution.
func (c *Campaign) ContributorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contributorCount
}

// ContributionOf returns the cumulative amount the identity has contributed.
func (c *Campaign) ContributionOf(contributor string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contributors[contributor]
}

// CompleteAt reports when the campaign became successful; zero if it has not.
func (c *Campaign) CompleteAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeAt
}

// RequestCount returns the number of withdraw requests ever created.
func (c *Campaign) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Request returns a copy of the withdraw request at the given index.
func (c *Campaign) Request(id int) (WithdrawRequestInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, err := c.request(id)
	if err != nil {
		return WithdrawRequestInfo{}, err
	}
	return requestInfo(id, req), nil
}

// Requests returns copies of all withdraw requests in creation order.
func (c *Campaign) Requests() []WithdrawRequestInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]WithdrawRequestInfo, len(c.requests))
	for i, req := range c.requests {
		out[i] = requestInfo(i, req)
	}
	return out
}

// HasVoted reports whether the identity already voted on the request.
func (c *Campaign) HasVoted(id int, voter string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, err := c.request(id)
	if err != nil {
		return false, err
	}
	return req.voters[voter], nil
}

// Snapshot returns a consistent copy of the campaign's observable state.
func (c *Campaign) Snapshot() CampaignInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.currentState()
	info := CampaignInfo{
		ID:                  c.ID,
		Creator:             c.Creator,
		Title:               c.Title,
		Description:         c.Description,
		MinimumContribution: c.MinimumContribution,
		Deadline:            c.Deadline,
		TargetContribution:  c.TargetContribution,
		RaisedAmount:        c.raisedAmount,
		Balance:             c.balance(),
		State:               state,
		StateLabel:          state.String(),
		ContributorCount:    c.contributorCount,
		WithdrawRequests:    len(c.requests),
	}
	if !c.completeAt.IsZero() {
		at := c.completeAt
		info.CompleteAt = &at
	}
	return info
}

// Events returns the campaign's audit records with Seq greater than cursor.
func (c *Campaign) Events(cursor int64) []Event {
	return c.journal.CampaignSince(c.ID, cursor)
}

// Contribute records a contribution from the given identity. The campaign
// must still be fundraising and the amount must meet the configured minimum.
// Reaching the target flips the campaign to successful within the same
// operation.
func (c *Campaign) Contribute(contributor string, amount int64) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentState() != StateFundraising {
		return Event{}, ErrInvalidState
	}
	// A zero minimum still requires a positive deposit: contributorCount
	// counts identities with a positive balance, and that count is the
	// quorum denominator.
	if amount <= 0 || amount < c.MinimumContribution {
		return Event{}, ErrInsufficientContribution
	}
	if amount > math.MaxInt64-c.raisedAmount {
		return Event{}, ErrInvalidArgument
	}

	if c.contributors[contributor] == 0 {
		c.contributorCount++
	}
	c.contributors[contributor] += amount
	c.raisedAmount += amount
	if c.raisedAmount >= c.TargetContribution {
		c.state = StateSuccessful
		c.completeAt = timeNow()
	}

	return c.journal.Append(c.ID, EventFundingReceived, FundingReceived{
		Contributor:  contributor,
		Amount:       amount,
		CurrentTotal: c.raisedAmount,
	}), nil
}

// CreateWithdrawRequest appends a new withdraw request. Only the creator may
// propose one, and only once the campaign is successful. The amount is
// deliberately not checked against the custodied balance here: requests may
// be proposed speculatively and are validated when executed.
func (c *Campaign) CreateWithdrawRequest(caller, description string, amount int64, recipient string) (int, Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.Creator {
		return 0, Event{}, ErrUnauthorized
	}
	if c.currentState() != StateSuccessful {
		return 0, Event{}, ErrInvalidState
	}
	if amount < 0 {
		return 0, Event{}, ErrInvalidArgument
	}

	req := &WithdrawRequest{
		Description: description,
		Amount:      amount,
		Recipient:   recipient,
		voters:      make(map[string]bool),
	}
	c.requests = append(c.requests, req)
	id := len(c.requests) - 1

	ev := c.journal.Append(c.ID, EventWithdrawRequestCreated, WithdrawRequestCreated{
		RequestID:   id,
		Description: req.Description,
		Amount:      req.Amount,
		VoteCount:   0,
		IsCompleted: false,
		Recipient:   req.Recipient,
	})
	return id, ev, nil
}

// VoteWithdrawRequest casts the caller's vote on a request. Only identities
// with a positive contribution may vote, and each may vote at most once per
// request.
func (c *Campaign) VoteWithdrawRequest(caller string, id int) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.contributors[caller] <= 0 {
		return Event{}, ErrNotAContributor
	}
	req, err := c.request(id)
	if err != nil {
		return Event{}, err
	}
	if req.voters[caller] {
		return Event{}, ErrAlreadyVoted
	}

	req.voters[caller] = true
	req.VoteCount++

	return c.journal.Append(c.ID, EventWithdrawVote, WithdrawVote{
		RequestID:  id,
		Voter:      caller,
		TotalVotes: req.VoteCount,
	}), nil
}

// WithdrawRequestedAmount executes a quorum-approved request. The request is
// marked completed and the balance committed before the payout callback runs
// (checks, effects, interactions), so repeat or reentrant calls fail with
// ErrAlreadyCompleted.
func (c *Campaign) WithdrawRequestedAmount(caller string, id int) (Event, error) {
	c.mu.Lock()

	req, err := c.validateWithdrawal(caller, id)
	if err != nil {
		c.mu.Unlock()
		return Event{}, err
	}

	req.IsCompleted = true
	c.withdrawnAmount += req.Amount
	ev := c.journal.Append(c.ID, EventWithdrawCompleted, WithdrawCompleted{
		RequestID:   id,
		Amount:      req.Amount,
		VoteCount:   req.VoteCount,
		IsCompleted: true,
		Recipient:   req.Recipient,
	})
	payout := c.payout
	recipient, amount := req.Recipient, req.Amount
	c.mu.Unlock()

	// The external transfer happens outside the lock and after the commit.
	if payout != nil {
		payout(recipient, amount)
	}
	return ev, nil
}

func (c *Campaign) validateWithdrawal(caller string, id int) (*WithdrawRequest, error) {
	if caller != c.Creator {
		return nil, ErrUnauthorized
	}
	req, err := c.request(id)
	if err != nil {
		return nil, err
	}
	if req.IsCompleted {
		return nil, ErrAlreadyCompleted
	}
	if req.VoteCount < c.quorum() {
		return nil, ErrInsufficientVotes
	}
	if req.Amount > c.balance() {
		return nil, ErrInsufficientBalance
	}
	return req, nil
}

// quorum is the ceiling of half the contributor count: 2 contributors need 1
// vote, 3 need 2.
func (c *Campaign) quorum() int {
	return (c.contributorCount + 1) / 2
}

func (c *Campaign) request(id int) (*WithdrawRequest, error) {
	if id < 0 || id >= len(c.requests) {
		return nil, ErrNotFound
	}
	return c.requests[id], nil
}

func requestInfo(id int, req *WithdrawRequest) WithdrawRequestInfo {
	return WithdrawRequestInfo{
		ID:          id,
		Description: req.Description,
		Amount:      req.Amount,
		Recipient:   req.Recipient,
		VoteCount:   req.VoteCount,
		IsCompleted: req.IsCompleted,
	}
}
