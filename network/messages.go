package network

// Command payloads, JSON-encoded inside packets. Player identity
// comes from the external auth layer; the client passes its id and
// display name along with the first command it issues.

type CreateRoomRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
	Code   string `json:"code"`
}

type JoinRoomRequest struct {
	Code       string `json:"code"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type JoinRoomResponse struct {
	RoomID string `json:"room_id"`
	Code   string `json:"code"`
}

type SetGameModeRequest struct {
	Mode string `json:"mode"`
}

type DeclareWinRequest struct {
	Pattern string `json:"pattern"`
}

// ErrorResponse carries one user-visible failure. Codes mirror the
// command error taxonomy; clients show the message once and move on.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyStarted   = "already_started"
	ErrCodeNotHost          = "not_host"
	ErrCodeInvalidMove      = "invalid_move"
	ErrCodeNoNumbersLeft    = "no_numbers_left"
	ErrCodeWinnerTaken      = "winner_taken"
	ErrCodeStoreUnavailable = "store_unavailable"
)
