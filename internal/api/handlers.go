package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/coap2mqtt-bridge/internal/bridge"
	"github.com/nerrad567/coap2mqtt-bridge/internal/device"
)

// deviceSummary is the list-view shape returned for every managed device.
type deviceSummary struct {
	Host      string `json:"host"`
	Model     string `json:"model"`
	Connected bool   `json:"connected"`
}

// deviceDetail adds the device's current decoded state to deviceSummary.
type deviceDetail struct {
	deviceSummary
	State map[string]any   `json:"state"`
	Raw   device.RawStatus `json:"raw"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"device_count":   len(s.group.Bridges()),
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	bridges := s.group.Bridges()
	out := make([]deviceSummary, 0, len(bridges))
	for _, b := range bridges {
		out = append(out, summarize(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	b := s.group.Bridge(host)
	if b == nil {
		writeError(w, http.StatusNotFound, ErrDeviceNotFound)
		return
	}

	writeJSON(w, http.StatusOK, deviceDetail{
		deviceSummary: summarize(b),
		State:         b.State().AsDict(),
		Raw:           b.State().Raw(),
	})
}

// handleRefreshDevice wakes a sleeping bridge so its next poll happens
// immediately, the operator-facing counterpart of SendUpdate's implicit
// wake on a dispatched command (spec.md §4.2's "observe_wait" signal).
func (s *Server) handleRefreshDevice(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	b := s.group.Bridge(host)
	if b == nil {
		writeError(w, http.StatusNotFound, ErrDeviceNotFound)
		return
	}
	b.Wake()
	writeJSON(w, http.StatusAccepted, map[string]any{"host": host, "status": "refresh triggered"})
}

func summarize(b *bridge.DeviceBridge) deviceSummary {
	return deviceSummary{
		Host:      b.Host(),
		Model:     b.Model(),
		Connected: b.IsConnected(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
