package http

import (
	"log/slog"
	"net/http"
	"time"

	"pocket/internal/core"
)

type walletRequest struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

type walletResponse struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	OwnerID            string    `json:"ownerId"`
	AmountCents        int64     `json:"amountCents"`
	TotalIncomeCents   int64     `json:"totalIncomeCents"`
	TotalExpensesCents int64     `json:"totalExpensesCents"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toWalletResponse(w core.Wallet) walletResponse {
	return walletResponse{
		ID:                 w.ID,
		Name:               w.Name,
		OwnerID:            w.OwnerID,
		AmountCents:        w.Amount.Cents,
		TotalIncomeCents:   w.TotalIncome.Cents,
		TotalExpensesCents: w.TotalExpenses.Cents,
		CreatedAt:          w.CreatedAt,
	}
}

// handleUpsertWallet creates a wallet (zeroed aggregates) or renames an
// existing one when the body carries an id.
func (s *Server) handleUpsertWallet(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "POST", "/wallets")
		return
	}

	wallet, err := s.ledger.CreateOrUpdateWallet(r.Context(), core.Wallet{
		ID:      req.ID,
		Name:    sanitizeInput(req.Name),
		OwnerID: sanitizeInput(req.OwnerID),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Wallet upsert failed", "error", err, "wallet_id", req.ID)
		respondDomainError(w, err, "POST", "/wallets")
		return
	}

	code := http.StatusCreated
	if req.ID != 0 {
		code = http.StatusOK
	}
	respondJSON(w, code, toWalletResponse(wallet), "POST", "/wallets")
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "owner query parameter is required", "GET", "/wallets")
		return
	}

	wallets, err := s.store.ListWallets(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Wallet list failed", "error", err, "owner_id", owner)
		respondDomainError(w, err, "GET", "/wallets")
		return
	}

	out := make([]walletResponse, len(wallets))
	for i, wl := range wallets {
		out[i] = toWalletResponse(wl)
	}
	respondJSON(w, http.StatusOK, out, "GET", "/wallets")
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id", "GET", "/wallets/{id}")
		return
	}

	wallet, err := s.store.GetWallet(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "GET", "/wallets/{id}")
		return
	}
	respondJSON(w, http.StatusOK, toWalletResponse(wallet), "GET", "/wallets/{id}")
}

// handleDeleteWallet removes the wallet together with its transactions.
func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id", "DELETE", "/wallets/{id}")
		return
	}

	wallet, err := s.store.GetWallet(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "DELETE", "/wallets/{id}")
		return
	}

	if err := s.ledger.DeleteWallet(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Wallet delete failed", "error", err, "wallet_id", id)
		respondDomainError(w, err, "DELETE", "/wallets/{id}")
		return
	}

	s.invalidateStats(wallet.OwnerID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, "DELETE", "/wallets/{id}")
}
