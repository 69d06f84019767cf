package network

// Message ids. 1xx are client commands, 3xx are server pushes.
const (
	MsgTypeHeartbeat    = 1
	MsgTypeCreateRoom   = 101
	MsgTypeJoinRoom     = 102
	MsgTypeSetGameMode  = 103
	MsgTypeStartGame    = 104
	MsgTypeDrawNumber   = 105
	MsgTypeDeclareWin   = 106
	MsgTypeResetGame    = 107
	MsgTypeLeaveRoom    = 108
	MsgTypeRoomSnapshot = 301
	MsgTypeError        = 401
)
