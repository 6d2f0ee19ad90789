package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/storage"
)

func (a *API) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.PlayerFilter{
		Position: q.Get("position"),
		Team:     q.Get("team"),
		Search:   q.Get("search"),
	}

	players, err := a.players.List(r.Context(), filter)
	if err != nil {
		a.log.Error("list players failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch players")
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (a *API) CountPlayers(w http.ResponseWriter, r *http.Request) {
	counts, err := a.players.Counts(r.Context())
	if err != nil {
		a.log.Error("count players failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to count players")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (a *API) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	players, err := a.players.Search(r.Context(), name)
	if err != nil {
		a.log.Error("search players failed", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, players)
}
