package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pocket/internal/core"
)

// handleAggregate serves the zero-filled bucket series for a
// granularity. Results are cached per owner; mutations invalidate.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "owner query parameter is required", "GET", "/stats/{granularity}")
		return
	}

	g := core.Granularity(strings.TrimSpace(r.PathValue("granularity")))
	if err := g.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), "GET", "/stats/{granularity}")
		return
	}

	key := s.statsCacheKey(owner, g)
	if cached, ok := s.statsCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached, "GET", "/stats/{granularity}")
		return
	}

	series, err := s.stats.Aggregate(r.Context(), owner, g)
	if err != nil {
		slog.ErrorContext(r.Context(), "Aggregation failed",
			"error", err, "owner_id", owner, "granularity", string(g))
		respondDomainError(w, err, "GET", "/stats/{granularity}")
		return
	}

	s.statsCache.Set(key, series)
	respondJSON(w, http.StatusOK, series, "GET", "/stats/{granularity}")
}

// handleCategoryBreakdown groups an owner's expenses by category within
// an optional from/to date range.
func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "owner query parameter is required", "GET", "/stats/breakdown")
		return
	}

	var from, to time.Time
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD", "GET", "/stats/breakdown")
			return
		}
		from = parsed
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD", "GET", "/stats/breakdown")
			return
		}
		to = parsed
	}

	slices, err := s.stats.CategoryBreakdown(r.Context(), owner, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category breakdown failed", "error", err, "owner_id", owner)
		respondDomainError(w, err, "GET", "/stats/breakdown")
		return
	}
	respondJSON(w, http.StatusOK, slices, "GET", "/stats/breakdown")
}
