// Package statsync pulls the player catalog and weekly stat lines from
// Sleeper into local storage.
package statsync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkearny/draft-battle-backend/internal/sleeper"
	"github.com/mkearny/draft-battle-backend/internal/storage"
)

type SleeperAPI interface {
	AllPlayers(ctx context.Context) (map[string]sleeper.PlayerData, error)
	WeekStats(ctx context.Context, season, week int) (map[string]sleeper.StatLine, error)
}

type PlayerStore interface {
	Upsert(ctx context.Context, players []storage.Player) error
}

type StatStore interface {
	Upsert(ctx context.Context, stats []storage.WeeklyStat) error
}

type Service struct {
	api     SleeperAPI
	players PlayerStore
	stats   StatStore
	log     *zap.Logger

	// pause between weeks in SyncWeeks; Sleeper rate-limits bursts
	weekDelay time.Duration
}

func NewService(api SleeperAPI, players PlayerStore, stats StatStore, log *zap.Logger) *Service {
	return &Service{
		api:       api,
		players:   players,
		stats:     stats,
		log:       log,
		weekDelay: time.Second,
	}
}

// SyncPlayers refreshes the whole player catalog and returns how many rows
// were written.
func (s *Service) SyncPlayers(ctx context.Context) (int, error) {
	s.log.Info("starting player sync")

	data, err := s.api.AllPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch players: %w", err)
	}

	now := time.Now().UTC()
	players := make([]storage.Player, 0, len(data))
	for id, p := range data {
		full := p.FullName
		if full == "" {
			full = p.FirstName + " " + p.LastName
		}
		status := p.Status
		if status == "" {
			status = "Inactive"
		}
		var team *string
		if p.Team != "" {
			t := p.Team
			team = &t
		}
		positions := p.FantasyPositions
		if positions == nil {
			positions = []string{}
		}

		players = append(players, storage.Player{
			PlayerID:         id,
			FirstName:        p.FirstName,
			LastName:         p.LastName,
			FullName:         full,
			Position:         p.Position,
			Team:             team,
			Status:           status,
			FantasyPositions: positions,
			UpdatedAt:        now,
		})
	}

	if err := s.players.Upsert(ctx, players); err != nil {
		return 0, err
	}

	s.log.Info("player sync complete", zap.Int("players", len(players)))
	return len(players), nil
}

// SyncWeekStats refreshes one week's stat lines, resolving the fantasy point
// total at write time.
func (s *Service) SyncWeekStats(ctx context.Context, season, week int) (int, error) {
	s.log.Info("starting stats sync", zap.Int("season", season), zap.Int("week", week))

	data, err := s.api.WeekStats(ctx, season, week)
	if err != nil {
		return 0, fmt.Errorf("fetch stats for %d week %d: %w", season, week, err)
	}

	now := time.Now().UTC()
	stats := make([]storage.WeeklyStat, 0, len(data))
	for id, line := range data {
		stats = append(stats, storage.WeeklyStat{
			PlayerID:  id,
			Season:    season,
			Week:      week,
			Points:    sleeper.Points(line),
			Stats:     line,
			UpdatedAt: now,
		})
	}

	if err := s.stats.Upsert(ctx, stats); err != nil {
		return 0, err
	}

	s.log.Info("stats sync complete",
		zap.Int("season", season),
		zap.Int("week", week),
		zap.Int("stat_lines", len(stats)))
	return len(stats), nil
}

// SyncWeeks pulls a span of weeks with a pause between calls.
func (s *Service) SyncWeeks(ctx context.Context, season, startWeek, endWeek int) error {
	for week := startWeek; week <= endWeek; week++ {
		if _, err := s.SyncWeekStats(ctx, season, week); err != nil {
			return err
		}
		if week == endWeek {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.weekDelay):
		}
	}
	return nil
}
