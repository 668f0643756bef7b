package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crowdfund/internal/domain"
	"crowdfund/internal/http/handlers"
	"crowdfund/internal/infra"
)

type memoryEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *memoryEvents) Append(ctx context.Context, ev domain.Event, originCountry string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memoryEvents) ListSince(ctx context.Context, cursor int64) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, ev := range m.events {
		if ev.Seq > cursor {
			out = append(out, ev)
		}
	}
	return out, nil
}

func testConfig() *infra.Config {
	return &infra.Config{
		AppEnv:          "test",
		Port:            "0",
		JWTSecret:       "router-secret",
		TokenTTL:        time.Hour,
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitPerMin: 1000,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := testConfig()
	registry := domain.NewRegistry(nil)
	app := handlers.NewApp(registry, &memoryEvents{}, zerolog.Nop(), cfg.JWTSecret, int64(cfg.TokenTTL.Seconds()))
	srv := httptest.NewServer(NewRouter(app, cfg, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func mintToken(t *testing.T, client *http.Client, base, address string) string {
	t.Helper()
	resp, body := postJSON(t, client, base+"/v1/auth/token", "", map[string]any{"address": address})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mint token: status %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("token missing")
	}
	return token
}

func TestRouterHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := getJSON(t, srv.Client(), srv.URL+"/v1/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestRouterRejectsUnauthenticatedMutation(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := postJSON(t, srv.Client(), srv.URL+"/v1/campaigns", "", map[string]any{
		"minimum_contribution": 1,
		"deadline":             time.Now().Add(time.Hour).Unix(),
		"target_contribution":  10,
		"title":                "No token",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRouterEndToEndFlow(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	creatorToken := mintToken(t, client, srv.URL, "0xcafebabe")
	contributorToken := mintToken(t, client, srv.URL, "0xdeadbeef")

	resp, created := postJSON(t, client, srv.URL+"/v1/campaigns", creatorToken, map[string]any{
		"minimum_contribution": 1,
		"deadline":             time.Now().Add(time.Hour).Unix(),
		"target_contribution":  10,
		"title":                "Community well",
		"description":          "Dig a well",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("campaign id missing")
	}

	resp, _ = postJSON(t, client, srv.URL+"/v1/campaigns/"+id+"/contributions", contributorToken,
		map[string]any{"amount": 10})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("contribute: status %d", resp.StatusCode)
	}

	resp, campaign := getJSON(t, client, srv.URL+"/v1/campaigns/"+id)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	if campaign["state"] != float64(2) {
		t.Fatalf("state = %v, want successful", campaign["state"])
	}

	resp, _ = postJSON(t, client, srv.URL+"/v1/campaigns/"+id+"/requests", creatorToken, map[string]any{
		"description": "supplies",
		"amount":      4,
		"recipient":   "0xcafebabe",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: status %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, client, srv.URL+"/v1/campaigns/"+id+"/requests/0/votes", contributorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: status %d", resp.StatusCode)
	}

	resp, withdrawn := postJSON(t, client, srv.URL+"/v1/campaigns/"+id+"/requests/0/withdraw", creatorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw: status %d", resp.StatusCode)
	}
	if withdrawn["balance"] != float64(6) {
		t.Fatalf("balance = %v, want 6", withdrawn["balance"])
	}

	resp, feed := getJSON(t, client, srv.URL+"/v1/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events: status %d", resp.StatusCode)
	}
	items, _ := feed["items"].([]any)
	if len(items) != 5 {
		t.Fatalf("journal records = %d, want 5", len(items))
	}
}
