package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FantasyPositions is the default position filter for the player catalog.
var FantasyPositions = []string{"QB", "RB", "WR", "TE", "K", "DEF"}

type PlayerFilter struct {
	Position string
	Team     string
	Search   string
}

type PlayerCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type PlayerRepo struct {
	db *gorm.DB
}

func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Upsert bulk-writes the player catalog, inserting new ids and refreshing
// existing rows.
func (r *PlayerRepo) Upsert(ctx context.Context, players []Player) error {
	if len(players) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(players, 500).Error
	if err != nil {
		return fmt.Errorf("upsert players: %w", err)
	}
	return nil
}

// List returns catalog players, restricted to fantasy-relevant positions
// unless an explicit position is requested. Active players sort first, then
// alphabetical by name.
func (r *PlayerRepo) List(ctx context.Context, f PlayerFilter) ([]Player, error) {
	q := r.db.WithContext(ctx).Model(&Player{})

	if f.Position != "" {
		q = q.Where("position = ?", f.Position)
	} else {
		q = q.Where("position IN ?", FantasyPositions)
	}
	if f.Team != "" {
		q = q.Where("team = ?", f.Team)
	}
	if f.Search != "" {
		q = q.Where("full_name ILIKE ?", "%"+f.Search+"%")
	}

	var players []Player
	if err := q.Order("status ASC").Order("full_name ASC").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// Search matches players by name fragment, case-insensitive.
func (r *PlayerRepo) Search(ctx context.Context, name string) ([]Player, error) {
	var players []Player
	err := r.db.WithContext(ctx).
		Where("full_name ILIKE ?", "%"+name+"%").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepo) Counts(ctx context.Context) (PlayerCounts, error) {
	var c PlayerCounts
	if err := r.db.WithContext(ctx).Model(&Player{}).Count(&c.Total).Error; err != nil {
		return PlayerCounts{}, fmt.Errorf("count players: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&Player{}).Where("status = ?", "Active").Count(&c.Active).Error; err != nil {
		return PlayerCounts{}, fmt.Errorf("count active players: %w", err)
	}
	return c, nil
}
