package handlers

import (
	"context"
	"net/http"
	"time"

	"streetLearnAPI/internal/types/leaderboard"
	"streetLearnAPI/middleware"
	"streetLearnAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard computes the board for ?window=weekly|monthly,
// defaulting to weekly.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	window := leaderboard.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = leaderboard.WindowWeekly
	}
	if window != leaderboard.WindowWeekly && window != leaderboard.WindowMonthly {
		respondWithError(w, http.StatusBadRequest, "Window must be 'weekly' or 'monthly'")
		return
	}

	board, err := h.leaderboardService.ComputeLeaderboard(ctx, window)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
