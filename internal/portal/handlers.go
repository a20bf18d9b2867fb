package portal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/indicator"
	"github.com/lovihome/lovid/internal/logging"
	"github.com/lovihome/lovid/internal/radio"
)

// restartDelay is how long a lifecycle endpoint waits after acknowledging
// before the disruptive action runs, so the client sees the response.
const restartDelay = time.Second

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Debug("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, map[string]any{
		"error":   errMsg,
		"message": message,
	})
}

// logRequests is the router middleware recording every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, ww.Status())
	})
}

// handleConnected reports the station link state.
func (s *Server) handleConnected(w http.ResponseWriter, r *http.Request) {
	st := s.status()

	ip := "0.0.0.0"
	if st.Connected && st.IP.IsValid() {
		ip = st.IP.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": st.Connected,
		"ip":        ip,
		"ssid":      st.SSID,
		"rssi":      st.RSSI,
	})
}

// handlePresence reports the detection state.
func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	snap := s.adapter.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"presence": snap.Presence,
		"motion":   snap.Motion,
		"distance": snap.Distance,
	})
}

// handleStatus reports daemon health. The optional health query adds
// provisioning detail.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	payload := map[string]any{
		"uptime": int64(time.Since(s.started).Seconds()),
		"heap":   mem.HeapAlloc,
		"status": "healthy",
	}
	if r.URL.Query().Has("health") {
		st := s.status()
		payload["mode"] = st.RadioMode
		payload["connection"] = st.ConnState
		payload["config_mode"] = st.ConfigMode
		payload["goroutines"] = runtime.NumGoroutine()
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleData returns the full sensor snapshot verbatim.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.Snapshot())
}

// handleDevice returns identity and capabilities.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	identity := s.adapter.Identity()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         identity.Name,
		"version":      identity.FirmwareVersion,
		"id":           identity.ID,
		"model":        identity.Model,
		"device_type":  identity.DeviceType,
		"manufacturer": identity.Manufacturer,
		"mac_address":  s.radio.MAC(),
		"capabilities": s.adapter.Capabilities(),
	})
}

// handleScan returns the networks currently visible to the radio.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	networks, err := s.radio.Scan(ctx)
	if err != nil {
		logging.Warn("network scan failed", zap.Error(err))
		networks = nil
	}
	if networks == nil {
		networks = []radio.ScanResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": networks})
}

// handleNetwork reports the radio's full network state across both roles.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	st := s.status()

	apIP, staIP := "0.0.0.0", "0.0.0.0"
	if st.APActive && st.APAddr.IsValid() {
		apIP = st.APAddr.String()
	}
	if st.IP.IsValid() {
		staIP = st.IP.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ap_ip":     apIP,
		"sta_ip":    staIP,
		"mode":      st.RadioMode,
		"ap_ssid":   st.APSSID,
		"connected": st.Connected,
		"ssid":      st.SSID,
		"rssi":      st.RSSI,
		"channel":   st.Channel,
	})
}

// handleSettings serves the device settings (GET) or applies a JSON
// settings body (POST).
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, s.adapter.Settings())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var settings map[string]any
	if err := json.Unmarshal(body, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	if s.adapter.ApplySettings(settings) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Settings updated",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": false,
		"message": "No settings updated",
	})
}

// handleLED toggles the status indicator out of its automatic pattern.
func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<10))
	if err != nil || len(body) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid JSON",
			"Send JSON with 'state': true/false")
		return
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	state, ok := req["state"].(bool)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing 'state' parameter",
			"Send JSON with 'state': true/false")
		return
	}

	// Pattern first: SetPattern resumes automatic control, so the
	// override SetState establishes must come last.
	if state {
		s.ind.SetPattern(indicator.PatternOn)
	} else {
		s.ind.SetPattern(indicator.PatternOff)
	}
	s.ind.SetState(state)

	message := "LED turned off"
	if state {
		message = "LED turned on"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"led":     state,
		"message": message,
	})
}

// handleSave persists portal-form credentials and queues a reconnect.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if creds.SSID == "" {
		writeError(w, http.StatusBadRequest, "Missing 'ssid' parameter",
			"Send JSON with 'ssid' and 'passphrase'")
		return
	}

	if err := s.store.Save(creds); err != nil {
		writeError(w, http.StatusInternalServerError, "Save failed", err.Error())
		return
	}

	// Queue the reconnect; if the provisioner is mid-tick a later drain
	// picks it up. A full queue already holds a reconnect, but the drop
	// is logged so the acknowledgment below is traceable.
	select {
	case s.reqs <- RequestReconnect:
	default:
		logging.Warn("request queue full, reconnect not queued",
			zap.String("ssid", creds.SSID))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Credentials saved, connecting",
	})
}

// handleRestart acknowledges and then restarts the daemon. The response
// must reach the client before the process goes away.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Restarting device...",
	})

	go func() {
		time.Sleep(restartDelay)
		s.restart()
	}()
}

// handleReset acknowledges, clears stored credentials, and restarts.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Resetting to factory defaults...",
	})

	go func() {
		time.Sleep(restartDelay)
		if err := s.store.Clear(); err != nil {
			logging.Error("factory reset failed to clear credentials", zap.Error(err))
		}
		s.restart()
	}()
}

// handleProbe services the captive-portal detection URLs: redirect to the
// portal while in config mode, plain 404 otherwise.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	st := s.status()
	if !st.ConfigMode {
		writeError(w, http.StatusNotFound, "Not found", "")
		return
	}
	http.Redirect(w, r, "http://"+st.APAddr.String()+"/", http.StatusFound)
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/x-icon")
	w.WriteHeader(http.StatusNoContent)
}

// handleRoot serves the provisioning page. It is reachable in every mode
// so a bookmarked device address keeps working after provisioning.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(portalHTML)
}

// handleNotFound serves the provisioning page for arbitrary URLs while in
// config mode ("any URL just works" for portal clients); API-shaped paths
// always get a structured 404.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeError(w, http.StatusNotFound, "Not found", "")
		return
	}
	if s.status().ConfigMode {
		s.handleRoot(w, r)
		return
	}
	writeError(w, http.StatusNotFound, "Not found", "")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed",
		"See the API documentation for the supported method")
}
