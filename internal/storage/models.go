package storage

import "time"

// Player mirrors the Sleeper player catalog. Wire names are the Sleeper
// field names the frontend already consumes.
type Player struct {
	PlayerID         string    `gorm:"primaryKey;size:16" json:"player_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	FullName         string    `gorm:"index" json:"full_name"`
	Position         string    `gorm:"index" json:"position"`
	Team             *string   `gorm:"index" json:"team"`
	Status           string    `json:"status"`
	FantasyPositions []string  `gorm:"serializer:json" json:"fantasy_positions"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// WeeklyStat is one player's stat line for one week of one season, with the
// fantasy point total pre-resolved at sync time.
type WeeklyStat struct {
	ID           uint               `gorm:"primaryKey" json:"-"`
	PlayerID     string             `gorm:"size:16;uniqueIndex:idx_player_season_week" json:"player_id"`
	Season       int                `gorm:"uniqueIndex:idx_player_season_week" json:"season"`
	Week         int                `gorm:"uniqueIndex:idx_player_season_week" json:"week"`
	Points       float64            `json:"points"`
	Stats        map[string]float64 `gorm:"serializer:json" json:"stats"`
	OpponentTeam *string            `json:"opponent_team"`
	IsHome       *bool              `json:"is_home"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
