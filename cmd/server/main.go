package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/config"
	"github.com/mkearny/draft-battle-backend/internal/httpapi"
	"github.com/mkearny/draft-battle-backend/internal/hub"
	"github.com/mkearny/draft-battle-backend/internal/sleeper"
	"github.com/mkearny/draft-battle-backend/internal/statsync"
	"github.com/mkearny/draft-battle-backend/internal/storage"
	"github.com/mkearny/draft-battle-backend/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	sessions, err := store.NewGormStore(db)
	if err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}

	players := storage.NewPlayerRepo(db)
	stats := storage.NewStatRepo(db)

	api := sleeper.New(cfg.SleeperBaseURL)
	syncer := statsync.NewService(api, players, stats, logger)

	ctx := context.Background()
	h := hub.NewHub(ctx, sessions, stats, logger)

	if cfg.SchedulerOn {
		sched := statsync.NewScheduler(syncer, clockwork.NewRealClock(), logger)
		go sched.Run(ctx)
	}

	games := store.NewService(sessions)
	handler := httpapi.New(games, players, stats, syncer, h, logger).Routes(cfg.AllowedOrigins())

	logger.Info("server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
