package room

import (
	"errors"

	"github.com/wfunc/bingoserver/store"
)

// Command error taxonomy. Every command surfaces one of these once;
// nothing here retries automatically.
var (
	// ErrNotFound 房间不存在
	ErrNotFound = store.ErrNotFound
	// ErrAlreadyStarted rejects joins and mode changes once the game
	// is underway.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrNotHost rejects host-only commands from other players.
	ErrNotHost = errors.New("only the host may do that")
	// ErrInvalidMove covers draws and resets issued in the wrong
	// room state.
	ErrInvalidMove = errors.New("invalid move")
	// ErrNoNumbersLeft signals draw-pool exhaustion. The room is
	// unchanged; the host sees a message, not a failure.
	ErrNoNumbersLeft = errors.New("no numbers left to draw")
	// ErrWinnerTaken is the losing side of the declare-win
	// compare-and-set: someone else's bingo landed first.
	ErrWinnerTaken = errors.New("winner already declared")
)
