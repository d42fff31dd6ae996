package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pocket/internal/core"
	"pocket/internal/metrics"
)

func respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	metrics.HTTPRequests.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}

// respondDomainError maps the error taxonomy onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error, method, endpoint string) {
	switch {
	case errors.Is(err, core.ErrWalletNotFound), errors.Is(err, core.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error(), method, endpoint)
	case errors.Is(err, core.ErrInsufficientBalance):
		respondError(w, http.StatusUnprocessableEntity, err.Error(), method, endpoint)
	case errors.Is(err, core.ErrConflict):
		respondError(w, http.StatusConflict, err.Error(), method, endpoint)
	case core.IsValidation(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error(), method, endpoint)
	default:
		respondError(w, http.StatusInternalServerError, "internal error", method, endpoint)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func ownerParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("owner"))
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
