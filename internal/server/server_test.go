package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"gemini-gateway/config"
	"gemini-gateway/internal/handler"
	"gemini-gateway/internal/metrics"
	"gemini-gateway/internal/middleware"
	"gemini-gateway/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

type echoGenerator struct {
	calls atomic.Int32
}

func (g *echoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	return "echo: " + prompt, nil
}

func newTestServer(t *testing.T, checks ...HealthCheck) (http.Handler, *echoGenerator) {
	t.Helper()
	cfg := &config.Config{
		Port:           "0",
		Environment:    TestMode,
		AllowedOrigins: config.NormalizeOrigins([]string{"http://localhost:5173/", "https://app.example.com"}),
		MaxBodyBytes:   256,
	}
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	gen := &echoGenerator{}

	s := New(cfg, logger.Nop(), m, registry)
	s.SetupRoutes(&Handlers{
		Generate: handler.NewGenerateHandler(gen, 0, logger.Nop(), m),
	}, nil, checks...)
	return s.Handler(), gen
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func generateRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRootAndPing(t *testing.T) {
	h, _ := newTestServer(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != WelcomeMessage {
		t.Fatalf("GET / = %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pong") {
		t.Fatalf("GET /ping = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGenerateThroughRouter(t *testing.T) {
	h, gen := newTestServer(t)

	rec := serve(h, generateRequest(`{"prompt":"hello"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"response":"echo: hello"}` {
		t.Fatalf("body = %s", got)
	}
	if gen.calls.Load() != 1 {
		t.Fatalf("calls = %d", gen.calls.Load())
	}
}

func TestGenerateOversizedBody(t *testing.T) {
	h, gen := newTestServer(t)

	rec := serve(h, generateRequest(`{"prompt":"`+strings.Repeat("a", 1024)+`"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Prompt is required"}` {
		t.Fatalf("body = %s", got)
	}
	if gen.calls.Load() != 0 {
		t.Fatal("generator must not be called for an oversized body")
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	h, _ := newTestServer(t)

	req := generateRequest(`{"prompt":"hi"}`)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := serve(h, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	h, gen := newTestServer(t)

	req := generateRequest(`{"prompt":"hi"}`)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := serve(h, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q; want none", got)
	}
	// The browser enforces the policy; the server still answers.
	if rec.Code != http.StatusOK || gen.calls.Load() != 1 {
		t.Fatalf("status = %d calls = %d", rec.Code, gen.calls.Load())
	}
}

func TestCORSPreflightNeverReachesRoute(t *testing.T) {
	h, gen := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := serve(h, req)

	if rec.Code < 200 || rec.Code > 299 {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost) {
		t.Fatalf("Access-Control-Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
	if gen.calls.Load() != 0 {
		t.Fatal("preflight reached the generate handler")
	}
}

func TestRequestIDEcho(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	if got := serve(h, req).Header().Get(middleware.RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}

	minted := serve(h, httptest.NewRequest(http.MethodGet, "/ping", nil)).Header().Get(middleware.RequestIDHeader)
	if len(minted) != 32 {
		t.Fatalf("minted request id = %q", minted)
	}
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: connection refused") }}

	h, _ := newTestServer(t, ok)
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d", rec.Code)
	}

	h, _ = newTestServer(t, ok, down)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "refused") || !strings.Contains(rec.Body.String(), "redis unavailable") {
		t.Fatalf("unhealthy body = %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	serve(h, generateRequest(`{"prompt":"hi"}`))
	serve(h, generateRequest(`{}`))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`gateway_generate_requests_total{outcome="success"} 1`,
		`gateway_generate_requests_total{outcome="invalid"} 1`,
		`gateway_http_requests_total{method="POST",route="/generate",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
