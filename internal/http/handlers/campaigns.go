package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crowdfund/internal/domain"
	"crowdfund/internal/middleware"
)

type createCampaignRequest struct {
	MinimumContribution int64  `json:"minimum_contribution"`
	Deadline            int64  `json:"deadline"` // unix seconds
	TargetContribution  int64  `json:"target_contribution"`
	Title               string `json:"title"`
	Description         string `json:"description"`
}

type contributeRequest struct {
	Amount int64 `json:"amount"`
}

type campaignDTO struct {
	domain.CampaignInfo
	DeadlineUnix int64 `json:"deadline_unix"`
}

func campaignResponse(c *domain.Campaign) campaignDTO {
	info := c.Snapshot()
	return campaignDTO{CampaignInfo: info, DeadlineUnix: info.Deadline.Unix()}
}

// CampaignsCreate starts a new campaign owned by the authenticated caller.
func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.MinimumContribution < 0 || req.TargetContribution < 0 || req.Deadline < 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "amounts and deadline must be non-negative")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title is required")
		return
	}

	c, ev, err := a.Registry.CreateCampaign(a.caller(r), domain.CampaignParams{
		MinimumContribution: req.MinimumContribution,
		Deadline:            time.Unix(req.Deadline, 0).UTC(),
		TargetContribution:  req.TargetContribution,
		Title:               req.Title,
		Description:         req.Description,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.persist(r.Context(), ev, "")

	a.json(w, http.StatusCreated, campaignResponse(c))
}

// CampaignsList returns every campaign ever created, in creation order.
func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	all := a.Registry.All()
	items := make([]campaignDTO, len(all))
	for i, c := range all {
		items[i] = campaignResponse(c)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) campaignFromPath(w http.ResponseWriter, r *http.Request) (*domain.Campaign, bool) {
	c, err := a.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return nil, false
	}
	return c, true
}

// CampaignsGet returns one campaign's observable state.
func (a *App) CampaignsGet(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, campaignResponse(c))
}

// CampaignContribute deposits value from the authenticated caller.
func (a *App) CampaignContribute(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Amount <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
		return
	}

	ev, err := c.Contribute(a.caller(r), req.Amount)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.persist(r.Context(), ev, middleware.CountryFromContext(r.Context()))

	a.json(w, http.StatusCreated, map[string]any{
		"event":    ev,
		"campaign": campaignResponse(c),
	})
}

// CampaignContribution returns the cumulative amount one identity has
// deposited; clients use it to decide vote eligibility.
func (a *App) CampaignContribution(w http.ResponseWriter, r *http.Request) {
	c, ok := a.campaignFromPath(w, r)
	if !ok {
		return
	}
	address := strings.ToLower(chi.URLParam(r, "address"))
	a.json(w, http.StatusOK, map[string]any{
		"address": address,
		"amount":  c.ContributionOf(address),
	})
}
