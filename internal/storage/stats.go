package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatRepo struct {
	db *gorm.DB
}

func NewStatRepo(db *gorm.DB) *StatRepo {
	return &StatRepo{db: db}
}

// Upsert bulk-writes one week's stat lines, keyed on (player, season, week).
func (r *StatRepo) Upsert(ctx context.Context, stats []WeeklyStat) error {
	if len(stats) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}, {Name: "season"}, {Name: "week"}},
			DoUpdates: clause.AssignmentColumns([]string{"points", "stats", "opponent_team", "is_home", "updated_at"}),
		}).
		CreateInBatches(stats, 500).Error
	if err != nil {
		return fmt.Errorf("upsert weekly stats: %w", err)
	}
	return nil
}

// WeekCount reports how many stat lines exist for a week; zero means the
// week has not been synced yet.
func (r *StatRepo) WeekCount(ctx context.Context, season, week int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&WeeklyStat{}).
		Where("season = ? AND week = ?", season, week).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count stats for %d week %d: %w", season, week, err)
	}
	return count, nil
}

// Get returns one player's stat line for a week, or nil when absent.
func (r *StatRepo) Get(ctx context.Context, playerID string, season, week int) (*WeeklyStat, error) {
	var stat WeeklyStat
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND season = ? AND week = ?", playerID, season, week).
		First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stat for %s: %w", playerID, err)
	}
	return &stat, nil
}

// ForPlayers returns the stat lines present for the given players in a week.
func (r *StatRepo) ForPlayers(ctx context.Context, playerIDs []string, season, week int) ([]WeeklyStat, error) {
	if len(playerIDs) == 0 {
		return []WeeklyStat{}, nil
	}
	var stats []WeeklyStat
	err := r.db.WithContext(ctx).
		Where("player_id IN ? AND season = ? AND week = ?", playerIDs, season, week).
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("stats for players: %w", err)
	}
	return stats, nil
}

// PointsForWeek resolves the point map the scoring pass consumes. Players
// without a stat line are simply absent; the scorer treats them as zero.
func (r *StatRepo) PointsForWeek(ctx context.Context, playerIDs []string, season, week int) (map[string]float64, error) {
	stats, err := r.ForPlayers(ctx, playerIDs, season, week)
	if err != nil {
		return nil, err
	}
	points := make(map[string]float64, len(stats))
	for _, s := range stats {
		points[s.PlayerID] = s.Points
	}
	return points, nil
}
