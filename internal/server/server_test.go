package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// pingRoutes stands in for an API package.
type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
}

func newTestServer(ready ReadinessChecker, opts Options) *Server {
	return New("127.0.0.1:0", zap.NewNop(), ready, opts, pingRoutes{})
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := serve(srv.mux, httptest.NewRequest("GET", "/healthz", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("status = %q, want %q", body["status"], "alive")
	}
}

func TestHandleReadyz(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{"nil checker", nil, http.StatusOK, "ready"},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK, "ready"},
		{"unhealthy", func(context.Context) error { return errors.New("database unreachable") }, http.StatusServiceUnavailable, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.ready, Options{})
			w := serve(srv.mux, httptest.NewRequest("GET", "/readyz", http.NoBody))
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", body["status"], tt.wantStatus)
			}
			if tt.wantCode != http.StatusOK && !strings.Contains(body["error"], "database unreachable") {
				t.Errorf("error = %q, want it to mention the cause", body["error"])
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := serve(srv.mux, httptest.NewRequest("GET", "/api/v1/health", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Service != "netwatch" {
		t.Errorf("body = %+v", body)
	}
	if body.Version["version"] == "" {
		t.Error("expected version metadata")
	}
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := serve(srv.mux, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected prometheus Go runtime metrics in /metrics output")
	}
}

func TestRegistrarRoutesMounted(t *testing.T) {
	srv := newTestServer(nil, Options{})

	if w := serve(srv.Handler(), httptest.NewRequest("GET", "/api/v1/ping", http.NoBody)); w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
}

func TestMiddlewareChain_Integration(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := serve(srv.Handler(), httptest.NewRequest("GET", "/healthz", http.NoBody))

	if v := w.Header().Get("X-Netwatch-Version"); v == "" {
		t.Error("expected X-Netwatch-Version header from middleware")
	}
	if v := w.Header().Get("X-Request-ID"); v == "" {
		t.Error("expected X-Request-ID header from middleware")
	}
	if v := w.Header().Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", v, "DENY")
	}
}

func TestAuthEnabled(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("agent-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	srv := newTestServer(nil, Options{APIKeyHash: string(hash)})
	h := srv.Handler()

	if w := serve(h, httptest.NewRequest("GET", "/api/v1/ping", http.NoBody)); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/api/v1/ping", http.NoBody)
	req.Header.Set("Authorization", "Bearer agent-key")
	if w := serve(h, req); w.Code != http.StatusAccepted {
		t.Errorf("authenticated status = %d, want %d", w.Code, http.StatusAccepted)
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/api/v1/health"} {
		if w := serve(h, httptest.NewRequest("GET", path, http.NoBody)); w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, w.Code, http.StatusOK)
		}
	}
}

func TestSwaggerOnlyInDevMode(t *testing.T) {
	prod := newTestServer(nil, Options{})
	if w := serve(prod.Handler(), httptest.NewRequest("GET", "/swagger/index.html", http.NoBody)); w.Code != http.StatusNotFound {
		t.Errorf("prod swagger status = %d, want %d", w.Code, http.StatusNotFound)
	}

	dev := newTestServer(nil, Options{DevMode: true})
	if w := serve(dev.Handler(), httptest.NewRequest("GET", "/swagger/index.html", http.NoBody)); w.Code != http.StatusOK {
		t.Errorf("dev swagger status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestConfigAddr(t *testing.T) {
	c := Config{Host: "127.0.0.1", Port: 9090}
	if got := c.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9090")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NW_DISPLAY_TIMEZONE", "UTC")

	v, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := v.GetInt("server.port"); got != 8080 {
		t.Errorf("server.port = %d, want 8080", got)
	}
	if got := v.GetString("display.timezone"); got != "UTC" {
		t.Errorf("display.timezone = %q, want env override %q", got, "UTC")
	}
	opts := OptionsFromViper(v)
	if opts.RateLimitRPS != 100 || opts.RateLimitBurst != 200 || opts.APIKeyHash != "" {
		t.Errorf("options = %+v", opts)
	}
}
