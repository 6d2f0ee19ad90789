package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/engine"
	"github.com/mkearny/draft-battle-backend/internal/hub"
	"github.com/mkearny/draft-battle-backend/internal/lobby"
	"github.com/mkearny/draft-battle-backend/internal/storage"
	"github.com/mkearny/draft-battle-backend/internal/store"
)

type GameService interface {
	CreateGame(ctx context.Context, playerName string) (engine.Session, string, error)
	JoinGame(ctx context.Context, code, playerName string) (engine.Session, string, error)
	Get(ctx context.Context, code string) (engine.Session, error)
}

type PlayerCatalog interface {
	List(ctx context.Context, f storage.PlayerFilter) ([]storage.Player, error)
	Search(ctx context.Context, name string) ([]storage.Player, error)
	Counts(ctx context.Context) (storage.PlayerCounts, error)
}

type StatCatalog interface {
	WeekCount(ctx context.Context, season, week int) (int64, error)
	Get(ctx context.Context, playerID string, season, week int) (*storage.WeeklyStat, error)
	ForPlayers(ctx context.Context, playerIDs []string, season, week int) ([]storage.WeeklyStat, error)
}

type Syncer interface {
	SyncPlayers(ctx context.Context) (int, error)
	SyncWeekStats(ctx context.Context, season, week int) (int, error)
}

type API struct {
	games   GameService
	players PlayerCatalog
	stats   StatCatalog
	syncer  Syncer
	hub     *hub.Hub
	log     *zap.Logger
}

func New(games GameService, players PlayerCatalog, stats StatCatalog, syncer Syncer, h *hub.Hub, log *zap.Logger) *API {
	return &API{games: games, players: players, stats: stats, syncer: syncer, hub: h, log: log}
}

func (a *API) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "playerName is required")
		return
	}

	sess, playerID, err := a.games.CreateGame(r.Context(), req.PlayerName)
	if err != nil {
		a.log.Error("create game failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create game")
		return
	}

	// Spin up the lobby now so the creator's socket finds it waiting.
	a.hub.Ensure(sess.GameCode)

	writeJSON(w, http.StatusCreated, map[string]any{
		"gameCode": sess.GameCode,
		"playerId": playerID,
		"season":   sess.Season,
		"week":     sess.Week,
	})
}

func (a *API) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameCode   string `json:"gameCode"`
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameCode == "" || req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "gameCode and playerName are required")
		return
	}

	sess, playerID, err := a.games.JoinGame(r.Context(), req.GameCode, req.PlayerName)
	if err != nil {
		writeError(w, joinStatus(err), joinMessage(err))
		return
	}

	// Everyone already watching the room sees the new participant.
	if lb := a.hub.Lobby(sess.GameCode); lb != nil {
		lb.Inbox() <- lobby.Refresh{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gameCode": sess.GameCode,
		"playerId": playerID,
		"season":   sess.Season,
		"week":     sess.Week,
	})
}

func (a *API) GetGame(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	sess, err := a.games.Get(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		a.log.Error("get game failed", zap.String("game_code", code), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch game")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func joinStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrFull), errors.Is(err, engine.ErrAlreadyStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func joinMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "game not found"
	case errors.Is(err, engine.ErrFull):
		return "game is full"
	case errors.Is(err, engine.ErrAlreadyStarted):
		return "game already started"
	default:
		return "failed to join game"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
