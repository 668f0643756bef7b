package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"crowdfund/internal/http/handlers"
	"crowdfund/internal/infra"
	"crowdfund/internal/middleware"
)

// NewRouter builds the full HTTP surface. Reads are public; every mutating
// route sits behind bearer auth so the ledger can attribute it to a caller.
func NewRouter(app *handlers.App, cfg *infra.Config, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Post("/v1/auth/token", app.AuthToken)
	})

	// Public reads over the ledger and the audit journal.
	r.Get("/v1/campaigns", app.CampaignsList)
	r.Get("/v1/campaigns/{id}", app.CampaignsGet)
	r.Get("/v1/campaigns/{id}/contributions/{address}", app.CampaignContribution)
	r.Get("/v1/campaigns/{id}/requests", app.RequestsList)
	r.Get("/v1/campaigns/{id}/requests/{index}", app.RequestsGet)
	r.Get("/v1/events", app.EventsFeed)
	r.Get("/v1/campaigns/{id}/events", app.CampaignEvents)

	// Mutations require an authenticated caller identity.
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(app.JWTSecret),
			middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
			middleware.ClientCountry(lookup),
		)
		r.Post("/v1/campaigns", app.CampaignsCreate)
		r.Post("/v1/campaigns/{id}/contributions", app.CampaignContribute)
		r.Post("/v1/campaigns/{id}/requests", app.RequestsCreate)
		r.Post("/v1/campaigns/{id}/requests/{index}/votes", app.RequestsVote)
		r.Post("/v1/campaigns/{id}/requests/{index}/withdraw", app.RequestsWithdraw)
	})

	return r
}
