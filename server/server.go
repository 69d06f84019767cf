package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/broadcast"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/monitor"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/room"
	adminrpc "github.com/wfunc/bingoserver/rpc"
	"github.com/wfunc/bingoserver/services"
	"github.com/wfunc/bingoserver/session"
	"github.com/wfunc/bingoserver/store"
)

const commandTimeout = 5 * time.Second

// roomSub tracks one store subscription shared by every session of a
// room.
type roomSub struct {
	refs  int
	unsub store.Unsubscribe
}

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	rooms          *room.Service
	store          store.RoomStore
	broadcaster    broadcast.Broadcaster
	rpcServer      *adminrpc.Server
	monitor        *monitor.Monitor
	subMutex       sync.Mutex
	subs           map[string]*roomSub
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, st store.RoomStore, rooms *room.Service, records *services.RecordService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		sessionManager: session.NewManager(),
		rooms:          rooms,
		store:          st,
		monitor:        mon,
		subs:           make(map[string]*roomSub),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)

	rpcServer, err := adminrpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	adminService := adminrpc.NewAdminService(rooms, records)
	rpc.Register(adminService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Bingo server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncConnectedPlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.detachFromRoom(sess)
		s.sessionManager.Remove(sess.GetID())
		if s.monitor != nil {
			s.monitor.DecConnectedPlayers()
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeSetGameMode:
		s.handleSetGameMode(sess, packet)
	case network.MsgTypeStartGame:
		s.handleStartGame(sess)
	case network.MsgTypeDrawNumber:
		s.handleDrawNumber(sess)
	case network.MsgTypeDeclareWin:
		s.handleDeclareWin(sess, packet)
	case network.MsgTypeResetGame:
		s.handleResetGame(sess)
	case network.MsgTypeLeaveRoom:
		s.detachFromRoom(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req network.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}
	sess.SetIdentity(req.PlayerID, req.PlayerName)
	playerID, playerName := sess.Identity()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	created, err := s.rooms.CreateRoom(ctx, playerID, playerName)
	if err != nil {
		s.sendError(sess, err)
		return
	}

	logger.Log.Infof("Session %s created room %s (%s)", sess.GetID(), created.Code, created.ID)

	sess.SendJSON(network.MsgTypeCreateRoom, network.CreateRoomResponse{RoomID: created.ID, Code: created.Code})
	s.enterRoom(sess, created.ID)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}
	sess.SetIdentity(req.PlayerID, req.PlayerName)
	playerID, playerName := sess.Identity()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	joined, err := s.rooms.JoinRoom(ctx, req.Code, playerID, playerName)
	if err != nil {
		s.sendError(sess, err)
		return
	}

	logger.Log.Infof("Session %s joined room %s as %s", sess.GetID(), joined.Code, playerName)

	sess.SendJSON(network.MsgTypeJoinRoom, network.JoinRoomResponse{RoomID: joined.ID, Code: joined.Code})
	s.enterRoom(sess, joined.ID)
}

func (s *GameServer) handleSetGameMode(sess *session.Session, packet *network.Packet) {
	var req network.SetGameModeRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}
	mode, err := bingo.ParseMode(req.Mode)
	if err != nil {
		s.sendError(sess, room.ErrInvalidMove)
		return
	}

	s.hostCommand(sess, func(ctx context.Context, roomID, playerID string) error {
		_, err := s.rooms.SetGameMode(ctx, roomID, playerID, mode)
		return err
	})
}

func (s *GameServer) handleStartGame(sess *session.Session) {
	s.hostCommand(sess, func(ctx context.Context, roomID, playerID string) error {
		_, err := s.rooms.StartGame(ctx, roomID, playerID)
		return err
	})
}

func (s *GameServer) handleDrawNumber(sess *session.Session) {
	s.hostCommand(sess, func(ctx context.Context, roomID, playerID string) error {
		_, err := s.rooms.DrawNumber(ctx, roomID, playerID)
		return err
	})
}

func (s *GameServer) handleResetGame(sess *session.Session) {
	s.hostCommand(sess, func(ctx context.Context, roomID, playerID string) error {
		_, err := s.rooms.ResetGame(ctx, roomID, playerID)
		return err
	})
}

func (s *GameServer) handleDeclareWin(sess *session.Session, packet *network.Packet) {
	var req network.DeclareWinRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}
	pattern, err := bingo.ParseMode(req.Pattern)
	if err != nil {
		s.sendError(sess, room.ErrInvalidMove)
		return
	}

	roomID := sess.Room()
	if roomID == "" {
		s.sendError(sess, room.ErrNotFound)
		return
	}
	playerID, playerName := sess.Identity()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if _, err := s.rooms.DeclareWin(ctx, roomID, playerID, playerName, pattern); err != nil {
		s.sendError(sess, err)
	}
}

// hostCommand runs a command against the session's current room. The
// room layer decides whether the player actually holds host
// authority.
func (s *GameServer) hostCommand(sess *session.Session, fn func(ctx context.Context, roomID, playerID string) error) {
	roomID := sess.Room()
	if roomID == "" {
		s.sendError(sess, room.ErrNotFound)
		return
	}
	playerID, _ := sess.Identity()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := fn(ctx, roomID, playerID); err != nil {
		s.sendError(sess, err)
	}
}

// enterRoom moves the session into a room. Any previous room is
// released first so its subscription refcount stays balanced.
func (s *GameServer) enterRoom(sess *session.Session, roomID string) {
	s.detachFromRoom(sess)
	sess.SetRoom(roomID)
	s.retainRoom(roomID)
}

// retainRoom shares one store subscription per room across sessions.
func (s *GameServer) retainRoom(roomID string) {
	s.subMutex.Lock()
	defer s.subMutex.Unlock()

	if sub, ok := s.subs[roomID]; ok {
		sub.refs++
		return
	}

	unsub, err := s.store.Subscribe(roomID, func(doc *models.Room) {
		s.onSnapshot(roomID, doc)
	})
	if err != nil {
		logger.Log.Errorf("Failed to subscribe to room %s: %v", roomID, err)
		return
	}
	s.subs[roomID] = &roomSub{refs: 1, unsub: unsub}
	if s.monitor != nil {
		s.monitor.SetActiveRooms(len(s.subs))
	}
}

func (s *GameServer) detachFromRoom(sess *session.Session) {
	roomID := sess.Room()
	if roomID == "" {
		return
	}
	sess.SetRoom("")

	s.subMutex.Lock()
	defer s.subMutex.Unlock()

	sub, ok := s.subs[roomID]
	if !ok {
		return
	}
	sub.refs--
	if sub.refs <= 0 {
		sub.unsub()
		delete(s.subs, roomID)
		if s.monitor != nil {
			s.monitor.SetActiveRooms(len(s.subs))
		}
	}
}

func (s *GameServer) onSnapshot(roomID string, doc *models.Room) {
	if doc == nil {
		// Document gone: every client in the room lands on the
		// room-not-found screen.
		s.broadcastError(roomID, room.ErrNotFound)
		return
	}
	if s.monitor != nil {
		s.monitor.IncSnapshots()
	}
	if err := s.broadcaster.BroadcastSnapshot(roomID, doc); err != nil && err != broadcast.ErrNoSessions {
		logger.Log.Warnf("Snapshot broadcast failed for room %s: %v", roomID, err)
	}
}

func (s *GameServer) sendError(sess *session.Session, err error) {
	resp := network.ErrorResponse{Code: errorCode(err), Message: err.Error()}
	if sendErr := sess.SendJSON(network.MsgTypeError, resp); sendErr != nil {
		logger.Log.Warnf("Failed to send error to session %s: %v", sess.GetID(), sendErr)
	}
}

func (s *GameServer) broadcastError(roomID string, err error) {
	data, marshalErr := json.Marshal(network.ErrorResponse{Code: errorCode(err), Message: err.Error()})
	if marshalErr != nil {
		return
	}
	if berr := s.broadcaster.BroadcastToRoom(roomID, network.MsgTypeError, data); berr != nil && berr != broadcast.ErrNoSessions {
		logger.Log.Warnf("Failed to broadcast error to room %s: %v", roomID, berr)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return network.ErrCodeNotFound
	case errors.Is(err, room.ErrAlreadyStarted):
		return network.ErrCodeAlreadyStarted
	case errors.Is(err, room.ErrNotHost):
		return network.ErrCodeNotHost
	case errors.Is(err, room.ErrNoNumbersLeft):
		return network.ErrCodeNoNumbersLeft
	case errors.Is(err, room.ErrWinnerTaken):
		return network.ErrCodeWinnerTaken
	case errors.Is(err, room.ErrInvalidMove):
		return network.ErrCodeInvalidMove
	default:
		return network.ErrCodeStoreUnavailable
	}
}
