package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"crowdfund/internal/domain"
	"crowdfund/internal/middleware"
)

// App bundles handler dependencies: the in-memory ledger, the journal
// write-through store and shared config.
type App struct {
	Registry  *domain.Registry
	Events    domain.EventRepository
	Logger    zerolog.Logger
	JWTSecret string
	TokenTTL  int64 // seconds
}

func NewApp(registry *domain.Registry, events domain.EventRepository, logger zerolog.Logger, jwtSecret string, tokenTTLSeconds int64) *App {
	return &App{
		Registry:  registry,
		Events:    events,
		Logger:    logger,
		JWTSecret: jwtSecret,
		TokenTTL:  tokenTTLSeconds,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// domainError maps ledger errors onto HTTP statuses. Every rejected
// precondition is a caller problem, never a server fault.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrNotAContributor):
		a.error(w, http.StatusForbidden, "not_a_contributor", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		a.error(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrAlreadyVoted):
		a.error(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domain.ErrAlreadyCompleted):
		a.error(w, http.StatusConflict, "already_completed", err.Error())
	case errors.Is(err, domain.ErrInsufficientContribution):
		a.error(w, http.StatusUnprocessableEntity, "insufficient_contribution", err.Error())
	case errors.Is(err, domain.ErrInsufficientVotes):
		a.error(w, http.StatusUnprocessableEntity, "insufficient_votes", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		a.error(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) caller(r *http.Request) string {
	return middleware.CallerFromContext(r.Context())
}

// persist writes a committed audit record through to storage. The ledger op
// already succeeded; a storage failure is logged and never surfaced to the
// caller.
func (a *App) persist(ctx context.Context, ev domain.Event, originCountry string) {
	if a.Events == nil {
		return
	}
	if err := a.Events.Append(ctx, ev, originCountry); err != nil {
		a.Logger.Error().Err(err).
			Int64("seq", ev.Seq).
			Str("type", string(ev.Type)).
			Msg("journal write-through failed")
	}
}
