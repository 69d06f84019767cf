package main

import (
	"github.com/wfunc/bingoserver/config"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/monitor"
	"github.com/wfunc/bingoserver/room"
	"github.com/wfunc/bingoserver/server"
	"github.com/wfunc/bingoserver/services"
	"github.com/wfunc/bingoserver/store"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Room document store
	var roomStore store.RoomStore
	var records *services.RecordService
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := store.NewPostgresStore(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to room store: %v", err)
		}
		roomStore = pg

		// Finished-game archival rides on the same database.
		db, err := services.NewGormDB(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to record database: %v", err)
		}
		records = services.NewRecordService(db)
		logger.Log.Info("Database connection successful.")
	default:
		roomStore = store.NewMemoryStore()
		logger.Log.Info("Using in-memory room store, games are not archived.")
	}
	defer roomStore.Close()

	// Metrics
	mon := monitor.NewMonitor("bingoserver")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Room command layer
	var archiver room.Archiver
	if records != nil {
		archiver = records
	}
	rooms := room.NewService(roomStore, archiver, mon)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, roomStore, rooms, records, mon)

	// Start Server
	logger.Log.Infof("Starting bingo server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
