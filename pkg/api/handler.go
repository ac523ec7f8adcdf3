// Package api provides HTTP endpoints for quota inspection: the usage
// counter shown in the UI and a dry-run quota check.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxUserIDLen = 255

// Handler provides HTTP endpoints for quota inspection.
type Handler struct {
	config Config
}

// GetUsage returns the user's current usage counters. Store outages show up
// as zero counts with full remaining allowance, matching the ledger's
// fail-open snapshot.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	usage := h.config.Ledger.Snapshot(r.Context(), userID)
	cfg := h.config.Ledger.Config()

	h.writeJSON(w, UsageResponse{
		UserID:              userID,
		CountLastMinute:     usage.CountLastMinute,
		CountToday:          usage.CountToday,
		RemainingThisMinute: usage.RemainingThisMinute,
		RemainingToday:      usage.RemainingToday,
		MaxPerMinute:        cfg.MaxPerMinute,
		MaxPerDay:           cfg.MaxPerDay,
	})
}

// CheckQuota runs a dry-run quota decision without recording anything.
func (h *Handler) CheckQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	decision := h.config.Ledger.Check(r.Context(), userID)

	h.writeJSON(w, CheckResponse{
		UserID:              userID,
		Allowed:             decision.Allowed,
		Limit:               string(decision.LimitKind),
		RetryAfterSeconds:   decision.RetryAfterSeconds,
		Message:             decision.Message,
		RemainingThisMinute: decision.RemainingThisMinute,
		RemainingToday:      decision.RemainingToday,
	})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := h.config.GetUserID(r)
	if userID == "" {
		h.handleError(w, r, fmt.Errorf("user ID not found"), http.StatusUnauthorized)
		return "", false
	}
	if len(userID) > maxUserIDLen {
		h.handleError(w, r, fmt.Errorf("invalid user ID format"), http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Response already sent, nothing left to do.
		return
	}
}

// handleError handles errors with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if h.config.OnError != nil {
		h.config.OnError(w, r, err)
		return
	}

	// Default error handling
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errorResponse := map[string]string{
		"error": err.Error(),
	}
	if encodeErr := json.NewEncoder(w).Encode(errorResponse); encodeErr != nil {
		// Log encoding error but response already sent
		_ = encodeErr
	}
}
