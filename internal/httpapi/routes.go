package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/mkearny/draft-battle-backend/internal/ws"
)

func (a *API) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", a.Healthz)
	r.Get("/ws", ws.Handler(a.hub, a.log))

	r.Route("/api", func(r chi.Router) {
		r.Post("/game/create", a.CreateGame)
		r.Post("/game/join", a.JoinGame)
		r.Get("/game/{code}", a.GetGame)

		r.Get("/players", a.ListPlayers)
		r.Get("/players/count", a.CountPlayers)
		r.Get("/players/search/{name}", a.SearchPlayers)

		r.Get("/stats/exists/{season}/{week}", a.StatsExist)
		r.Get("/stats/{playerID}/{season}/{week}", a.GetStat)

		r.Post("/lineup/calculate", a.CalculateLineup)
		r.Post("/lineup/validate", a.ValidateLineup)

		r.Post("/sync/players", a.SyncPlayers)
		r.Post("/sync/stats/{season}/{week}", a.SyncStats)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
