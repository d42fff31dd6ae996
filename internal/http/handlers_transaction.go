package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pocket/internal/core"
)

type transactionRequest struct {
	WalletID    int64  `json:"walletId"`
	OwnerID     string `json:"ownerId"`
	Type        string `json:"type"`
	Amount      string `json:"amount"` // decimal, e.g. "12.34"
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"` // YYYY-MM-DD
}

// transactionUpdateRequest uses pointers for the optional fields so an
// absent field keeps the stored value (merge semantics).
type transactionUpdateRequest struct {
	WalletID    int64   `json:"walletId"`
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
}

type transactionResponse struct {
	ID          int64     `json:"id"`
	WalletID    int64     `json:"walletId"`
	OwnerID     string    `json:"ownerId"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		OwnerID:     t.OwnerID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    string(t.Category),
		Description: t.Description,
		Date:        t.Date,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "POST", "/transactions")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount", "POST", "/transactions")
		return
	}
	category, err := core.ParseCategory(sanitizeInput(req.Category))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error(), "POST", "/transactions")
		return
	}
	date, err := parseDate(strings.TrimSpace(req.Date))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD", "POST", "/transactions")
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), core.Transaction{
		WalletID:    req.WalletID,
		OwnerID:     sanitizeInput(req.OwnerID),
		Type:        core.TxType(req.Type),
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: sanitizeInput(req.Description),
		Date:        date,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction create failed",
			"error", err, "wallet_id", req.WalletID, "amount_cents", cents)
		respondDomainError(w, err, "POST", "/transactions")
		return
	}

	s.invalidateStats(created.OwnerID)
	respondJSON(w, http.StatusCreated, toTransactionResponse(created), "POST", "/transactions")
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id", "PUT", "/transactions/{id}")
		return
	}

	var req transactionUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "PUT", "/transactions/{id}")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount", "PUT", "/transactions/{id}")
		return
	}

	upd := core.TransactionUpdate{
		WalletID: req.WalletID,
		Type:     core.TxType(req.Type),
		Amount:   core.Money{Cents: cents},
	}
	if req.Category != nil {
		category, err := core.ParseCategory(sanitizeInput(*req.Category))
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error(), "PUT", "/transactions/{id}")
			return
		}
		upd.Category = &category
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		upd.Description = &desc
	}
	if req.Date != nil {
		date, err := parseDate(strings.TrimSpace(*req.Date))
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD", "PUT", "/transactions/{id}")
			return
		}
		upd.Date = &date
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), id, upd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction update failed",
			"error", err, "transaction_id", id, "wallet_id", req.WalletID)
		respondDomainError(w, err, "PUT", "/transactions/{id}")
		return
	}

	s.invalidateStats(updated.OwnerID)
	respondJSON(w, http.StatusOK, toTransactionResponse(updated), "PUT", "/transactions/{id}")
}

// handleDeleteTransaction requires the owning wallet id as a query
// parameter and refuses mismatched references.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id", "DELETE", "/transactions/{id}")
		return
	}
	walletID, err := strconv.ParseInt(r.URL.Query().Get("wallet"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "wallet query parameter is required", "DELETE", "/transactions/{id}")
		return
	}

	tx, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "DELETE", "/transactions/{id}")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), walletID, id); err != nil {
		slog.ErrorContext(r.Context(), "Transaction delete failed",
			"error", err, "transaction_id", id, "wallet_id", walletID)
		respondDomainError(w, err, "DELETE", "/transactions/{id}")
		return
	}

	s.invalidateStats(tx.OwnerID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, "DELETE", "/transactions/{id}")
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "owner query parameter is required", "GET", "/transactions")
		return
	}

	limit := 30
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	txs, err := s.store.RecentTransactions(r.Context(), owner, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Recent transactions failed", "error", err, "owner_id", owner)
		respondDomainError(w, err, "GET", "/transactions")
		return
	}

	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransactionResponse(t)
	}
	respondJSON(w, http.StatusOK, out, "GET", "/transactions")
}
