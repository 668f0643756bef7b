package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveCountryPrefersHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "de")

	lookup := func(ip string) (string, error) {
		t.Fatal("lookup called despite header hint")
		return "", nil
	}
	if got := ResolveCountry(req, lookup); got != "DE" {
		t.Fatalf("ResolveCountry() = %q, want DE", got)
	}
}

func TestResolveCountryFallsBackToLookup(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4321"

	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			t.Fatalf("lookup got ip %q", ip)
		}
		return "BR", nil
	}
	if got := ResolveCountry(req, lookup); got != "BR" {
		t.Fatalf("ResolveCountry() = %q, want BR", got)
	}
}

func TestResolveCountryLookupFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	lookup := func(ip string) (string, error) {
		return "", errors.New("db missing")
	}
	if got := ResolveCountry(req, lookup); got != "" {
		t.Fatalf("ResolveCountry() = %q, want empty", got)
	}
}

func TestClientCountryMiddleware(t *testing.T) {
	var seen string
	handler := ClientCountry(func(ip string) (string, error) { return "id", nil })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = CountryFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.3:1000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "ID" {
		t.Fatalf("country in context = %q, want ID", seen)
	}
}
