package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"obligo/internal/domain/wallet"
)

// WalletHandler exposes the host side of the balance ledger: wallet
// provisioning and balance reads. Mutations go through schedule execution.
type WalletHandler struct {
	wallets wallet.Repository
}

func NewWalletHandler(wallets wallet.Repository) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type CreateWalletRequest struct {
	UserID              int64  `json:"userId" validate:"required,gt=0"`
	Name                string `json:"name" validate:"required"`
	Currency            string `json:"currency" validate:"required,len=3"`
	OpeningBalanceMinor int64  `json:"openingBalanceMinor" validate:"gte=0"`
}

// HandleWallets handles POST /api/wallets and GET /api/wallets?userId=.
func (h *WalletHandler) HandleWallets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WalletHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.wallets.CreateWallet(r.Context(), req.UserID, req.Name, req.Currency, req.OpeningBalanceMinor)
	if err != nil {
		log.Printf("Error creating wallet for user %d: %v", req.UserID, err)
		http.Error(w, "Failed to create wallet", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *WalletHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	wallets, err := h.wallets.ListByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing wallets for user %d: %v", userID, err)
		http.Error(w, "Failed to list wallets", http.StatusInternalServerError)
		return
	}

	if wallets == nil {
		wallets = []*wallet.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

// HandleWalletByID handles GET /api/wallets/{id}?userId=.
func (h *WalletHandler) HandleWalletByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	walletID := r.PathValue("id")
	if walletID == "" {
		http.Error(w, "Wallet ID is required", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	found, err := h.wallets.GetByID(r.Context(), walletID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			http.Error(w, "Wallet not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting wallet %s: %v", walletID, err)
		http.Error(w, "Failed to get wallet", http.StatusInternalServerError)
		return
	}
	if found.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, found)
}
