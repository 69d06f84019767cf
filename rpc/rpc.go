package rpc

import (
	"context"
	"net"
	"net/rpc"

	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/room"
	"github.com/wfunc/bingoserver/services"
)

// Server manages the RPC listener for the admin service.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes room inspection and player stats over net/rpc.
type AdminService struct {
	rooms   *room.Service
	records *services.RecordService
}

func NewAdminService(rooms *room.Service, records *services.RecordService) *AdminService {
	return &AdminService{rooms: rooms, records: records}
}

type GetRoomArgs struct {
	Code string
}

type GetRoomReply struct {
	Room models.Room
}

func (a *AdminService) GetRoom(args *GetRoomArgs, reply *GetRoomReply) error {
	found, err := a.rooms.FindByCode(context.Background(), args.Code)
	if err != nil {
		return err
	}
	found.Players = found.UniquePlayers()
	reply.Room = *found
	return nil
}

type GetPlayerStatsArgs struct {
	PlayerID string
}

type GetPlayerStatsReply struct {
	Stats models.PlayerStats
}

func (a *AdminService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	if a.records == nil {
		// Archival disabled (memory backend); stats are all zero.
		reply.Stats = models.PlayerStats{PlayerID: args.PlayerID}
		return nil
	}
	stats, err := a.records.GetPlayerStats(context.Background(), args.PlayerID)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}
