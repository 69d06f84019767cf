// broadcast fans room snapshots out to every session in a room.
package broadcast

import (
	"errors"

	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/session"
)

var ErrNoSessions = errors.New("no sessions in room")

// Broadcaster 广播接口
type Broadcaster interface {
	BroadcastSnapshot(roomID string, room *models.Room) error
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}

// RoomBroadcaster delivers to sessions looked up by room membership.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessionManager: sessionManager}
}

// BroadcastSnapshot pushes the full room document. Duplicate join
// entries are squashed here, at read time, so racing joins never leak
// into what clients render.
func (b *RoomBroadcaster) BroadcastSnapshot(roomID string, room *models.Room) error {
	doc := room.Clone()
	doc.Players = doc.UniquePlayers()

	sessions := b.sessionManager.GetByRoom(roomID)
	if len(sessions) == 0 {
		return ErrNoSessions
	}
	for _, s := range sessions {
		if err := s.SendJSON(network.MsgTypeRoomSnapshot, doc); err != nil {
			// 发送失败不影响其他玩家
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	sessions := b.sessionManager.GetByRoom(roomID)
	if len(sessions) == 0 {
		return ErrNoSessions
	}
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
