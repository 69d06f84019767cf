// services holds persistence-side game services: finished games are
// archived to PostgreSQL for stats, outside the hot snapshot path.
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/bingoserver/models"
)

// NewGormDB opens the archival database and migrates the record
// table.
func NewGormDB(host string, port int, user, password, dbname string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

// SaveFinishedGame archives one finished room. Implements
// room.Archiver.
func (s *RecordService) SaveFinishedGame(ctx context.Context, room *models.Room) error {
	if room.Winner == nil {
		return fmt.Errorf("room %s has no winner to archive", room.Code)
	}

	players := make(map[string]interface{}, len(room.Players))
	for _, p := range room.UniquePlayers() {
		players[p.ID] = p.Name
	}

	record := models.GormGameRecord{
		RoomID:       room.ID,
		RoomCode:     room.Code,
		GameMode:     string(room.GameMode),
		WinnerID:     room.Winner.ID,
		WinnerName:   room.Winner.Name,
		Pattern:      string(room.Winner.Pattern),
		NumbersDrawn: len(room.DrawnNumbers),
		Players:      players,
		DurationSecs: int(time.Since(room.CreatedAt).Seconds()),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
}

// GetPlayerStats 获取玩家统计: games played and games won.
func (s *RecordService) GetPlayerStats(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{PlayerID: playerID}

	err := s.db.WithContext(ctx).Raw(
		`
        SELECT
            COUNT(*) AS total_games,
            SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END) AS wins
        FROM gorm_game_records
        WHERE jsonb_exists(players, ?)`,
		playerID, playerID,
	).Row().Scan(&stats.TotalGames, &stats.Wins)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
