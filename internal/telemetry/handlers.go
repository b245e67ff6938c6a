package telemetry

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/pkg/models"
	"go.uber.org/zap"
)

const (
	msgDeviceRegistered = "Device registered successfully"
	msgDeviceUpdated    = "Device updated successfully"
	msgMetricsUpdated   = "Metrics updated successfully"
	msgDeviceDeleted    = "Device deleted successfully"
	msgDeviceNotFound   = "Device not found"

	maxBodyBytes = 1 << 20
)

// Handler exposes the Service over HTTP. Timestamps are rendered in loc.
type Handler struct {
	svc    *Service
	loc    *time.Location
	logger *zap.Logger
}

// NewHandler creates the device API handler. A nil loc renders UTC.
func NewHandler(svc *Service, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, loc: loc, logger: logger}
}

// RegisterRoutes mounts the device API under /api/v1.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/devices", h.handleListDevices)
	mux.HandleFunc("POST /api/v1/devices", h.handleRegisterDevice)
	mux.HandleFunc("GET /api/v1/devices/{id}/metrics", h.handleListMetrics)
	mux.HandleFunc("POST /api/v1/devices/{id}/metrics", h.handleSubmitMetrics)
	mux.HandleFunc("POST /api/v1/devices/{id}/speedtest", h.handleSpeedTest)
	mux.HandleFunc("DELETE /api/v1/devices/{id}", h.handleDeleteDevice)
}

// handleListDevices returns every registered device.
//
//	@Summary		List devices
//	@Description	Returns all devices with liveness derived from last contact.
//	@Tags			devices
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {array} models.DeviceSummary
//	@Failure		500 {object} models.ErrorResponse
//	@Router			/devices [get]
func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.svc.ListDevices(r.Context())
	if err != nil {
		h.logger.Error("failed to list devices", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]models.DeviceSummary, 0, len(devices))
	for i := range devices {
		d := &devices[i]
		out = append(out, models.DeviceSummary{
			ID:             d.ID,
			Hostname:       d.Hostname,
			Username:       d.Username,
			Location:       d.Location,
			LastSeen:       h.render(d.LastSeen),
			ConnectionType: d.ConnectionType,
			WifiSSID:       d.WifiSSID,
			SignalStrength: d.SignalStrength,
			Status:         d.Status,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRegisterDevice creates or refreshes a device keyed by hostname.
//
//	@Summary		Register device
//	@Description	Upserts a device by hostname. An empty body registers the server host itself.
//	@Tags			devices
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body models.RegisterRequest false "Device identity"
//	@Success		200 {object} models.RegisterResponse
//	@Failure		400 {object} models.ErrorResponse
//	@Failure		500 {object} models.ErrorResponse
//	@Router			/devices [post]
func (h *Handler) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, created, err := h.svc.RegisterDevice(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidDevice) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to register device", zap.String("hostname", req.Hostname), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	msg := msgDeviceUpdated
	if created {
		msg = msgDeviceRegistered
	}
	writeJSON(w, http.StatusOK, models.RegisterResponse{ID: id, Message: msg})
}

// handleListMetrics returns a device's samples for the current hour, day, or month.
//
//	@Summary		Device metrics
//	@Description	Returns samples since the start of the current UTC hour, day, or month, oldest first.
//	@Tags			devices
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path int true "Device ID"
//	@Param			timeframe query string false "hour, day, or month" default(hour)
//	@Success		200 {array} models.MetricPoint
//	@Failure		400 {object} models.ErrorResponse
//	@Failure		404 {object} models.ErrorResponse
//	@Failure		500 {object} models.ErrorResponse
//	@Router			/devices/{id}/metrics [get]
func (h *Handler) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	tf, err := ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := h.svc.ListMetrics(r.Context(), id, tf)
	if err != nil {
		h.writeServiceError(w, "list metrics", id, err)
		return
	}

	out := make([]models.MetricPoint, 0, len(samples))
	for i := range samples {
		s := &samples[i]
		out = append(out, models.MetricPoint{
			Timestamp:         h.render(s.Timestamp),
			DNSResolutionTime: s.DNSResolutionTime,
			DownloadSpeed:     s.DownloadSpeed,
			UploadSpeed:       s.UploadSpeed,
			Latency:           s.Latency,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSubmitMetrics ingests one agent snapshot.
//
//	@Summary		Submit metrics
//	@Description	Stores a snapshot. Missing measurements are stored as null.
//	@Tags			devices
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path int true "Device ID"
//	@Param			request body models.Submission true "Snapshot"
//	@Success		200 {object} models.MessageResponse
//	@Failure		400 {object} models.ErrorResponse
//	@Failure		404 {object} models.ErrorResponse
//	@Failure		500 {object} models.ErrorResponse
//	@Router			/devices/{id}/metrics [post]
func (h *Handler) handleSubmitMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var sub models.Submission
	if !decodeBody(w, r, &sub) {
		return
	}

	if err := h.svc.SubmitMetrics(r.Context(), id, &sub); err != nil {
		h.writeServiceError(w, "submit metrics", id, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: msgMetricsUpdated})
}

// handleSpeedTest runs a throughput test from the server for a device.
//
//	@Summary		Ad-hoc speed test
//	@Description	Runs the server's throughput probe and stores the result for the device.
//	@Tags			devices
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path int true "Device ID"
//	@Success		200 {object} probe.Throughput
//	@Failure		404 {object} models.ErrorResponse
//	@Failure		500 {object} models.ErrorResponse
//	@Router			/devices/{id}/speedtest [post]
func (h *Handler) handleSpeedTest(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	tp, err := h.svc.RunAdHocSpeedTest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "speed test", id, err)
		return
	}
	writeJSON(w, http.StatusOK, probe.Throughput{Download: tp.Download, Upload: tp.Upload})
}

// handleDeleteDevice removes a device and all its samples.
//
//	@Summary		Delete device
//	@Description	Deletes the device and its metric history and stops its collection task.
//	@Tags			devices
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path int true "Device ID"
//	@Success		200 {object} models.MessageResponse
//	@Failure		404 {object} models.ErrorResponse
//	@Failure		500 {object} models.ErrorResponse
//	@Router			/devices/{id} [delete]
func (h *Handler) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDevice(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete device", id, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: msgDeviceDeleted})
}

func (h *Handler) render(t time.Time) string {
	return t.In(h.loc).Format(time.RFC3339)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, id int64, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, msgDeviceNotFound)
		return
	}
	h.logger.Error("request failed", zap.String("op", op), zap.Int64("device_id", id), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// deviceID parses the {id} path value. Anything that is not a positive
// integer cannot name a device and is answered with 404.
func deviceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, msgDeviceNotFound)
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON body into dst. An empty body leaves dst zero.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
