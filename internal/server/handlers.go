package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"

	"transfer-status-backend/internal/format"
	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/resolver"
	"transfer-status-backend/internal/utils"
)

// writeJSON encodes before writing the header so an encoding failure becomes a
// 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		utils.LogAppError(utils.WrapError(err, utils.ErrorTypeInternal, "ENCODE_FAILED", "error encoding response", "SERVER"),
			utils.ServerLogger)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":"internal error","code":"ENCODE_FAILED","timestamp":%d}`+"\n", time.Now().UnixMilli())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":     message,
		"code":      code,
		"timestamp": time.Now().UnixMilli(),
	})
}

// handleStatus resolves ?ref= with the query-string fallback.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view := s.deps.Resolver.Load(r.Context(), resolver.RequestFromHTTP(r, ""))
	writeJSON(w, http.StatusOK, view)
}

// handleTransfer resolves the reference in the path.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	view := s.deps.Resolver.Load(r.Context(), resolver.RequestFromHTTP(r, ref))
	writeJSON(w, http.StatusOK, view)
}

// handleSaveLast stores the session's last_transfer hand-off without waiting for the write.
func (s *Server) handleSaveLast(w http.ResponseWriter, r *http.Request) {
	if s.deps.LastTransfer == nil {
		writeError(w, http.StatusServiceUnavailable, "CACHE_DISABLED", "last transfer storage is disabled")
		return
	}
	session := resolver.SessionFromRequest(r)
	if session == "" {
		writeError(w, http.StatusBadRequest, "SESSION_REQUIRED", "a session cookie or X-Session-ID header is required")
		return
	}
	body, ok := s.readObject(w, r)
	if !ok {
		return
	}

	s.deps.LastTransfer.Save(r.Context(), session, body)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"accepted": true})
}

// handleNormalize returns the summary and display strings for a posted payload.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readObject(w, r)
	if !ok {
		return
	}
	summary := s.deps.Normalizer.Normalize(body)
	writeJSON(w, http.StatusOK, struct {
		Summary models.TransferSummary `json:"summary"`
		Display format.Display         `json:"display"`
	}{summary, format.DisplayOf(summary)})
}

func (s *Server) readObject(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
		return nil, false
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be a JSON object")
		return nil, false
	}
	return body, true
}

// handleHealth returns health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).Truncate(time.Second).String(),
	}
	if s.deps.Hub != nil {
		response["clients"] = s.deps.Hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, response)
}

// handleStats returns counters and client settings.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{}
	if s.deps.Stats != nil {
		response["stats"] = s.deps.Stats.Snapshot()
	}
	if s.deps.API != nil {
		response["api"] = s.deps.API.GetConnectionStats()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
