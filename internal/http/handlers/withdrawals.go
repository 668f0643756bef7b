package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"crowdfund/internal/domain"
)

type createWithdrawRequestBody struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Recipient   string `json:"recipient"`
}

func requestIndexFromPath(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}

// RequestsList returns all withdraw requests for a campaign in creation order.
func (a *App) RequestsList(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": c.Requests()})
}

// RequestsGet returns a single withdraw request by its index.
func (a *App) RequestsGet(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	idx, err := requestIndexFromPath(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid request index")
		return
	}
	req, err := c.Request(idx)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, req)
}

// RequestsCreate proposes a withdrawal. The ledger enforces that only the
// campaign creator may propose and only once the campaign is successful.
func (a *App) RequestsCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	var body createWithdrawRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if body.Amount <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
		return
	}
	recipient := strings.ToLower(strings.TrimSpace(body.Recipient))
	if recipient == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "recipient is required")
		return
	}

	id, ev, err := c.CreateWithdrawRequest(a.caller(r), body.Description, body.Amount, recipient)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.persist(r.Context(), ev, "")

	req, err := c.Request(id)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, req)
}

// RequestsVote casts the caller's vote on a withdraw request.
func (a *App) RequestsVote(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	idx, err := requestIndexFromPath(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid request index")
		return
	}

	ev, err := c.VoteWithdrawRequest(a.caller(r), idx)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.persist(r.Context(), ev, "")

	a.json(w, http.StatusOK, map[string]any{"event": ev})
}

// RequestsWithdraw executes a quorum-approved withdraw request.
func (a *App) RequestsWithdraw(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	idx, err := requestIndexFromPath(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid request index")
		return
	}

	ev, err := c.WithdrawRequestedAmount(a.caller(r), idx)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.persist(r.Context(), ev, "")

	var payload domain.WithdrawCompleted
	if p, ok := ev.Payload.(domain.WithdrawCompleted); ok {
		payload = p
	}
	a.json(w, http.StatusOK, map[string]any{
		"event":   ev,
		"balance": c.Balance(),
		"paid":    payload.Amount,
	})
}
