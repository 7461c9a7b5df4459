package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/splitledger/internal/services"
)

type StatsHandler struct {
	statsService services.StatsServiceInterface
}

func NewStatsHandler(statsService services.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.statsService.GetStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "computing stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
