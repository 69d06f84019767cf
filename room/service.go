// room is the command layer over the authoritative room document:
// every game mutation is a single conditional write against the
// store, so command authority and lifecycle ordering hold no matter
// how many clients race.
package room

import (
	"context"
	"strings"
	"time"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/store"
)

// Archiver persists finished games. Satisfied by
// services.RecordService; nil disables archiving.
type Archiver interface {
	SaveFinishedGame(ctx context.Context, room *models.Room) error
}

// Metrics is the slice of the monitor the command layer touches.
type Metrics interface {
	IncDraws()
	IncWins()
	IncWinConflicts()
}

type Service struct {
	store   store.RoomStore
	records Archiver
	metrics Metrics
}

func NewService(st store.RoomStore, records Archiver, metrics Metrics) *Service {
	return &Service{store: st, records: records, metrics: metrics}
}

// CreateRoom allocates a waiting room with the creator as sole member
// and host, default mode full.
func (s *Service) CreateRoom(ctx context.Context, hostID, hostName string) (*models.Room, error) {
	doc := &models.Room{
		Code:         bingo.NewRoomCode(),
		HostID:       hostID,
		HostName:     hostName,
		GameMode:     bingo.ModeFull,
		Status:       models.StatusWaiting,
		DrawnNumbers: []int{},
		Players: []models.Player{
			{ID: hostID, Name: hostName, IsHost: true},
		},
		CreatedAt: time.Now(),
	}

	id, err := s.store.Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	return doc, nil
}

// JoinRoom looks a room up by code and appends the player. Joining a
// finished room is tolerated so the player sees the result screen;
// joining mid-game is not.
func (s *Service) JoinRoom(ctx context.Context, code, playerID, playerName string) (*models.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	found, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if found.Status == models.StatusPlaying {
		return nil, ErrAlreadyStarted
	}

	return s.store.UpdateIf(ctx, found.ID,
		func(r *models.Room) error {
			if r.Status == models.StatusPlaying {
				return ErrAlreadyStarted
			}
			return nil
		},
		func(r *models.Room) {
			for _, p := range r.Players {
				if p.ID == playerID {
					return
				}
			}
			r.Players = append(r.Players, models.Player{ID: playerID, Name: playerName})
		},
	)
}

// SetGameMode is host-only and rejected once the room has left
// waiting.
func (s *Service) SetGameMode(ctx context.Context, roomID, hostID string, mode bingo.Mode) (*models.Room, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMove
	}
	return s.store.UpdateIf(ctx, roomID,
		func(r *models.Room) error {
			if r.HostID != hostID {
				return ErrNotHost
			}
			if r.Status != models.StatusWaiting {
				return ErrAlreadyStarted
			}
			return nil
		},
		func(r *models.Room) {
			r.GameMode = mode
		},
	)
}

// StartGame moves waiting -> playing. Host only.
func (s *Service) StartGame(ctx context.Context, roomID, hostID string) (*models.Room, error) {
	return s.store.UpdateIf(ctx, roomID,
		func(r *models.Room) error {
			if r.HostID != hostID {
				return ErrNotHost
			}
			if r.Status != models.StatusWaiting {
				return ErrInvalidMove
			}
			return nil
		},
		func(r *models.Room) {
			r.Status = models.StatusPlaying
		},
	)
}

// DrawNumber reveals the next ball. The draw is computed and appended
// inside one conditional write, so the number seen by the condition
// is the number stored.
func (s *Service) DrawNumber(ctx context.Context, roomID, hostID string) (*models.Room, error) {
	var next int
	updated, err := s.store.UpdateIf(ctx, roomID,
		func(r *models.Room) error {
			if r.HostID != hostID {
				return ErrNotHost
			}
			if r.Status != models.StatusPlaying {
				return ErrInvalidMove
			}
			n, ok := bingo.Draw(r.DrawnNumbers, r.GameMode)
			if !ok {
				return ErrNoNumbersLeft
			}
			next = n
			return nil
		},
		func(r *models.Room) {
			r.DrawnNumbers = append(r.DrawnNumbers, next)
			r.CurrentNumber = &next
		},
	)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncDraws()
	}
	logger.Log.Infow("number drawn",
		"room", updated.Code, "number", next, "letter", bingo.Letter(next), "total", len(updated.DrawnNumbers))
	return updated, nil
}

// DeclareWin claims the win. Compare-and-set on the winner field:
// first accepted write wins, every later attempt observes
// ErrWinnerTaken and changes nothing.
func (s *Service) DeclareWin(ctx context.Context, roomID, playerID, playerName string, pattern bingo.Mode) (*models.Room, error) {
	updated, err := s.store.UpdateIf(ctx, roomID,
		func(r *models.Room) error {
			// A set winner must be checked first: the winning write
			// moves status to finished in the same mutation, so a
			// status-first check would hide every lost race behind
			// ErrInvalidMove.
			if r.Winner != nil {
				return ErrWinnerTaken
			}
			if r.Status != models.StatusPlaying {
				return ErrInvalidMove
			}
			return nil
		},
		func(r *models.Room) {
			r.Winner = &models.Winner{ID: playerID, Name: playerName, Pattern: pattern}
			r.Status = models.StatusFinished
		},
	)
	if err != nil {
		if err == ErrWinnerTaken && s.metrics != nil {
			s.metrics.IncWinConflicts()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncWins()
	}
	logger.Log.Infow("bingo", "room", updated.Code, "winner", playerName, "pattern", pattern)

	if s.records != nil {
		// Archival is best effort; a failed insert must not undo a
		// legitimate win.
		if err := s.records.SaveFinishedGame(ctx, updated); err != nil {
			logger.Log.Warnf("failed to archive game record for room %s: %v", updated.Code, err)
		}
	}
	return updated, nil
}

// ResetGame returns a finished (or still waiting) room to waiting,
// clearing draws and winner in the same write. Clients react to the
// cleared winner by re-arming their celebration state.
func (s *Service) ResetGame(ctx context.Context, roomID, hostID string) (*models.Room, error) {
	return s.store.UpdateIf(ctx, roomID,
		func(r *models.Room) error {
			if r.HostID != hostID {
				return ErrNotHost
			}
			if r.Status == models.StatusPlaying {
				return ErrInvalidMove
			}
			return nil
		},
		func(r *models.Room) {
			r.Status = models.StatusWaiting
			r.DrawnNumbers = []int{}
			r.CurrentNumber = nil
			r.Winner = nil
		},
	)
}

// Get returns the current document, for lookups outside the snapshot
// stream (rpc, join-by-code screens).
func (s *Service) Get(ctx context.Context, roomID string) (*models.Room, error) {
	return s.store.Get(ctx, roomID)
}

// FindByCode normalizes the code the same way JoinRoom does.
func (s *Service) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	return s.store.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}
