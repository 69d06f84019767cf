package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 完局存档, one row per finished game.
type GormGameRecord struct {
	gorm.Model
	RoomID       string                 `gorm:"index;not null"`
	RoomCode     string                 `gorm:"index;not null"`
	GameMode     string                 `gorm:"not null"`
	WinnerID     string                 `gorm:"index;not null"`
	WinnerName   string                 `gorm:"not null"`
	Pattern      string                 `gorm:"not null"`
	NumbersDrawn int                    `gorm:"default:0"`
	Players      map[string]interface{} `gorm:"type:jsonb"`
	DurationSecs int                    `gorm:"default:0"`
}

// PlayerStats 玩家统计
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
}
