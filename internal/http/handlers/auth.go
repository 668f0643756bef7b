package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"crowdfund/internal/middleware"
)

type tokenRequest struct {
	Address string `json:"address"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	Address   string `json:"address"`
	ExpiresAt int64  `json:"expires_at"`
}

// AuthToken issues a bearer token for a caller-supplied address. Identities
// are self-sovereign in this protocol, the way wallet addresses are: holding
// a token for an address only lets you act as that address, and every
// campaign operation authorizes against the ledger, not the token.
func (a *App) AuthToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	address := strings.ToLower(strings.TrimSpace(req.Address))
	if address == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "address is required")
		return
	}

	exp := time.Now().Unix() + a.TokenTTL
	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:    address,
		Exp:    exp,
		Issuer: "crowdfund",
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}

	a.json(w, http.StatusOK, tokenResponse{Token: token, Address: address, ExpiresAt: exp})
}
