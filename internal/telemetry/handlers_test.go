package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/pkg/models"
	"go.uber.org/zap"
)

func newTestMux(t *testing.T) (*http.ServeMux, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	manila, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	mux := http.NewServeMux()
	NewHandler(env.svc, manila, zap.NewNop()).RegisterRoutes(mux)
	return mux, env
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandlers_RegisterSubmitQuery(t *testing.T) {
	mux, _ := newTestMux(t)

	w := do(t, mux, http.MethodPost, "/api/v1/devices", "{}")
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, want %d; body %s", w.Code, http.StatusOK, w.Body)
	}
	reg := decode[models.RegisterResponse](t, w)
	if reg.ID != 1 {
		t.Errorf("id = %d, want 1", reg.ID)
	}
	if reg.Message != "Device registered successfully" {
		t.Errorf("message = %q", reg.Message)
	}

	w = do(t, mux, http.MethodPost, "/api/v1/devices/1/metrics",
		`{"dns_resolution_time": 12.5, "ping_results": {"8.8.8.8": 20.1}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, want %d; body %s", w.Code, http.StatusOK, w.Body)
	}
	if msg := decode[models.MessageResponse](t, w); msg.Message != "Metrics updated successfully" {
		t.Errorf("message = %q", msg.Message)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/devices/1/metrics?timeframe=day", "")
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d, want %d", w.Code, http.StatusOK)
	}

	var points []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&points); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	p := points[0]
	if p["dns_resolution_time"] != 12.5 {
		t.Errorf("dns_resolution_time = %v, want 12.5", p["dns_resolution_time"])
	}
	if p["latency"] != 20.1 {
		t.Errorf("latency = %v, want 20.1", p["latency"])
	}
	for _, key := range []string{"download_speed", "upload_speed"} {
		v, ok := p[key]
		if !ok || v != nil {
			t.Errorf("%s = %v (present=%v), want null", key, v, ok)
		}
	}
	ts, _ := p["timestamp"].(string)
	if !strings.HasSuffix(ts, "+08:00") {
		t.Errorf("timestamp = %q, want display zone offset +08:00", ts)
	}
}

func TestHandlers_ReRegisterMessage(t *testing.T) {
	mux, _ := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/devices", `{"hostname":"pc-1"}`)

	w := do(t, mux, http.MethodPost, "/api/v1/devices", `{"hostname":"pc-1","location":"Lab"}`)
	reg := decode[models.RegisterResponse](t, w)
	if reg.ID != 1 || reg.Message != "Device updated successfully" {
		t.Errorf("response = %+v, want id 1 updated", reg)
	}
}

func TestHandlers_ListDevices(t *testing.T) {
	mux, _ := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/devices", `{"hostname":"pc-1"}`)

	w := do(t, mux, http.MethodGet, "/api/v1/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	devices := decode[[]models.DeviceSummary](t, w)
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}
	if devices[0].Status != models.DeviceStatusOnline {
		t.Errorf("status = %q, want online", devices[0].Status)
	}
	if devices[0].Location != "Unknown" {
		t.Errorf("location = %q, want Unknown", devices[0].Location)
	}
}

func TestHandlers_ListDevices_Empty(t *testing.T) {
	mux, _ := newTestMux(t)
	w := do(t, mux, http.MethodGet, "/api/v1/devices", "")
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestHandlers_Errors(t *testing.T) {
	mux, _ := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/devices", `{"hostname":"pc-1"}`)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"metrics unknown device", http.MethodGet, "/api/v1/devices/99/metrics", "", http.StatusNotFound, "Device not found"},
		{"submit unknown device", http.MethodPost, "/api/v1/devices/99/metrics", "{}", http.StatusNotFound, "Device not found"},
		{"delete unknown device", http.MethodDelete, "/api/v1/devices/99", "", http.StatusNotFound, "Device not found"},
		{"speedtest unknown device", http.MethodPost, "/api/v1/devices/99/speedtest", "", http.StatusNotFound, "Device not found"},
		{"non-numeric id", http.MethodGet, "/api/v1/devices/abc/metrics", "", http.StatusNotFound, "Device not found"},
		{"bad timeframe", http.MethodGet, "/api/v1/devices/1/metrics?timeframe=week", "", http.StatusBadRequest, ""},
		{"malformed body", http.MethodPost, "/api/v1/devices/1/metrics", "{", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decode[models.ErrorResponse](t, w)
			if resp.Error == "" {
				t.Error("error message is empty")
			}
			if tt.wantError != "" && resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestHandlers_SpeedTest(t *testing.T) {
	mux, env := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/devices", `{"hostname":"pc-1"}`)

	env.probes.throughput = probe.Throughput{Download: 50, Upload: 10}
	w := do(t, mux, http.MethodPost, "/api/v1/devices/1/speedtest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	tp := decode[probe.Throughput](t, w)
	if tp.Download != 50 || tp.Upload != 10 {
		t.Errorf("throughput = %+v, want 50/10", tp)
	}

	env.probes.throughputErr = probe.ErrUnavailable
	w = do(t, mux, http.MethodPost, "/api/v1/devices/1/speedtest", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("failed probe status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHandlers_Delete(t *testing.T) {
	mux, _ := newTestMux(t)
	do(t, mux, http.MethodPost, "/api/v1/devices", `{"hostname":"pc-1"}`)

	w := do(t, mux, http.MethodDelete, "/api/v1/devices/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if msg := decode[models.MessageResponse](t, w); msg.Message != "Device deleted successfully" {
		t.Errorf("message = %q", msg.Message)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/devices/1/metrics", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("metrics after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
