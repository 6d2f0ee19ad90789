package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/roster"
)

func (a *API) StatsExist(w http.ResponseWriter, r *http.Request) {
	season, week, ok := seasonWeekParams(w, r)
	if !ok {
		return
	}

	count, err := a.stats.WeekCount(r.Context(), season, week)
	if err != nil {
		a.log.Error("check stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to check stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exists": count > 0,
		"count":  count,
	})
}

func (a *API) GetStat(w http.ResponseWriter, r *http.Request) {
	season, week, ok := seasonWeekParams(w, r)
	if !ok {
		return
	}
	playerID := chi.URLParam(r, "playerID")

	stat, err := a.stats.Get(r.Context(), playerID, season, week)
	if err != nil {
		a.log.Error("get stat failed", zap.String("player_id", playerID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	// Absent stat lines come back as JSON null, same as the original API.
	writeJSON(w, http.StatusOK, stat)
}

func (a *API) CalculateLineup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerIDs []string `json:"playerIds"`
		Season    int      `json:"season"`
		Week      int      `json:"week"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stats, err := a.stats.ForPlayers(r.Context(), req.PlayerIDs, req.Season, req.Week)
	if err != nil {
		a.log.Error("calculate lineup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to calculate lineup")
		return
	}

	total := 0.0
	for _, s := range stats {
		total += s.Points
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       stats,
		"totalPoints": total,
		"playerCount": len(stats),
	})
}

// ValidateLineup checks a proposed slot assignment against the roster
// policy. Advisory: the draft engine itself only enforces turn order, the
// double-pick rule, and the roster cap.
func (a *API) ValidateLineup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Positions []string `json:"positions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      roster.Fits(req.Positions),
		"slotCount":  len(req.Positions),
		"rosterSize": roster.Size,
	})
}

func (a *API) SyncPlayers(w http.ResponseWriter, r *http.Request) {
	count, err := a.syncer.SyncPlayers(r.Context())
	if err != nil {
		a.log.Error("player sync failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Players synced successfully",
		"count":   count,
	})
}

func (a *API) SyncStats(w http.ResponseWriter, r *http.Request) {
	season, week, ok := seasonWeekParams(w, r)
	if !ok {
		return
	}

	count, err := a.syncer.SyncWeekStats(r.Context(), season, week)
	if err != nil {
		a.log.Error("stats sync failed", zap.Int("season", season), zap.Int("week", week), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Stats synced successfully",
		"count":   count,
	})
}

func seasonWeekParams(w http.ResponseWriter, r *http.Request) (season, week int, ok bool) {
	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "season must be a number")
		return 0, 0, false
	}
	week, err = strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "week must be a number")
		return 0, 0, false
	}
	return season, week, true
}
