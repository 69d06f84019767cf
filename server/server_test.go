package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/wfunc/bingoserver/broadcast"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/room"
	"github.com/wfunc/bingoserver/session"
	"github.com/wfunc/bingoserver/store"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) SendJSON(msgID uint16, v interface{}) error { return nil }
func (m *MockConnection) Close() error { return nil }
func (m *MockConnection) RemoteAddr() net.Addr { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration) {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func newTestGameServer() *GameServer {
	sm := session.NewManager()
	return &GameServer{
		sessionManager: sm,
		store:          store.NewMemoryStore(),
		broadcaster:    broadcast.NewRoomBroadcaster(sm),
		subs:           make(map[string]*roomSub),
		shutdownChan:   make(chan struct{}),
	}
}

func createTestRoom(t *testing.T, s *GameServer, code string) string {
	t.Helper()
	id, err := s.store.Create(context.Background(), &models.Room{
		Code:     code,
		HostID:   "host-1",
		GameMode: "full",
		Status:   models.StatusWaiting,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return id
}

func TestErrorCode_Taxonomy(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{room.ErrNotFound, network.ErrCodeNotFound},
		{room.ErrAlreadyStarted, network.ErrCodeAlreadyStarted},
		{room.ErrNotHost, network.ErrCodeNotHost},
		{room.ErrNoNumbersLeft, network.ErrCodeNoNumbersLeft},
		{room.ErrWinnerTaken, network.ErrCodeWinnerTaken},
		{room.ErrInvalidMove, network.ErrCodeInvalidMove},
		{fmt.Errorf("%w: connection reset", store.ErrUnavailable), network.ErrCodeStoreUnavailable},
	}
	for _, c := range cases {
		if got := errorCode(c.err); got != c.code {
			t.Errorf("errorCode(%v) = %q, want %q", c.err, got, c.code)
		}
	}
}

// The losing side of a declare-win race must reach the wire as
// winner_taken, not invalid_move, even though the winning write also
// finished the game.
func TestErrorCode_LostWinRace(t *testing.T) {
	s := newTestGameServer()
	rooms := room.NewService(s.store, nil, nil)
	ctx := context.Background()

	created, err := rooms.CreateRoom(ctx, "host-1", "Ana")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if _, err := rooms.StartGame(ctx, created.ID, "host-1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if _, err := rooms.DeclareWin(ctx, created.ID, "p1", "Bea", "full"); err != nil {
		t.Fatalf("first DeclareWin failed: %v", err)
	}

	_, err = rooms.DeclareWin(ctx, created.ID, "p2", "Cai", "full")
	if err == nil {
		t.Fatal("second DeclareWin should fail")
	}
	if got := errorCode(err); got != network.ErrCodeWinnerTaken {
		t.Fatalf("lost race mapped to %q, want %q", got, network.ErrCodeWinnerTaken)
	}
}

func TestEnterRoom_ReleasesPreviousRoom(t *testing.T) {
	s := newTestGameServer()
	room1 := createTestRoom(t, s, "AAAAAA")
	room2 := createTestRoom(t, s, "BBBBBB")

	sess := session.NewSession("s1", &MockConnection{})
	s.sessionManager.Add(sess)

	s.enterRoom(sess, room1)
	if len(s.subs) != 1 || s.subs[room1] == nil || s.subs[room1].refs != 1 {
		t.Fatalf("expected one subscription on room1, got %+v", s.subs)
	}

	// Moving to another room must release the first subscription.
	s.enterRoom(sess, room2)
	if _, stale := s.subs[room1]; stale {
		t.Fatal("room1 subscription leaked after switching rooms")
	}
	if len(s.subs) != 1 || s.subs[room2].refs != 1 {
		t.Fatalf("expected one subscription on room2, got %+v", s.subs)
	}
	if sess.Room() != room2 {
		t.Fatalf("session should be in room2, got %q", sess.Room())
	}

	// A second session shares the subscription; one leaving keeps it.
	sess2 := session.NewSession("s2", &MockConnection{})
	s.sessionManager.Add(sess2)
	s.enterRoom(sess2, room2)
	if s.subs[room2].refs != 2 {
		t.Fatalf("expected refcount 2, got %d", s.subs[room2].refs)
	}

	s.detachFromRoom(sess)
	if s.subs[room2] == nil || s.subs[room2].refs != 1 {
		t.Fatalf("expected refcount 1 after one detach, got %+v", s.subs[room2])
	}

	s.detachFromRoom(sess2)
	if len(s.subs) != 0 {
		t.Fatalf("expected no subscriptions after last detach, got %+v", s.subs)
	}
}
