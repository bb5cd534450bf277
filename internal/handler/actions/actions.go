// Package actions exposes the inbound action API.
package actions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reachloop/reachbot/internal/agent/orchestrator"
	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/logging"
)

// Handler serves action invocations.
type Handler struct {
	orch *orchestrator.Orchestrator
	log  logging.Logger
}

// NewHandler creates the action handler.
func NewHandler(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch, log: logging.Component("http")}
}

// ServeHTTP handles POST /api/v1/actions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fault.InvalidArguments, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.orch.Do(r.Context(), req)
	if err != nil {
		code, msg := fault.Classify(err)
		status := http.StatusInternalServerError
		var f *fault.Fault
		if errors.As(err, &f) && f.Code == fault.InvalidArguments {
			status = http.StatusBadRequest
		}
		h.log.Warnf("%s failed: %s: %s", req.Action, code, msg)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code fault.Code, msg string) {
	writeJSON(w, status, map[string]any{
		"ok":    false,
		"code":  code,
		"error": msg,
	})
}
