package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/splitledger/internal/models"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

type BalanceHandler struct {
	balanceService services.BalanceServiceInterface
}

func NewBalanceHandler(balanceService services.BalanceServiceInterface) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

type BalanceListResponse struct {
	Balances []models.FriendBalance `json:"balances"`
}

// List returns the balance against every friend, in friend order.
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	balances, err := h.balanceService.ComputeAllBalances(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "computing balances", err)
		return
	}
	if balances == nil {
		balances = []models.FriendBalance{}
	}

	writeJSON(w, http.StatusOK, BalanceListResponse{Balances: balances})
}

func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	friendID, ok := pathParam(w, r, "id", "friend ID")
	if !ok {
		return
	}

	balance, err := h.balanceService.ComputeBalance(r.Context(), userID, friendID)
	if err != nil {
		writeServiceError(w, r, "computing balance", err)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}
