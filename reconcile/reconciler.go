// reconcile derives each client's local view from the authoritative
// snapshot stream. The store is the only coordination channel between
// clients, so everything the UI shows is a function of the previous
// derived state and the incoming snapshot.
package reconcile

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/timer"
)

var (
	// ErrNumberNotDrawn rejects marking a number the host has not
	// revealed yet.
	ErrNumberNotDrawn = errors.New("number has not been drawn yet")
	// ErrCardLocked rejects card regeneration once the game started.
	ErrCardLocked = errors.New("card is locked once the game starts")
	// ErrRoomGone means the authoritative document disappeared; the
	// client stops reconciling.
	ErrRoomGone = errors.New("room no longer exists")
)

// View is the derived client state after a snapshot.
type View struct {
	Room       *models.Room
	Winner     *models.Winner
	Celebrated bool
	YouWon     bool
	// Revealing is true while a non-drawer client holds the spin
	// animation for a freshly drawn number.
	Revealing bool
	RoomGone  bool
}

// Reconciler folds room snapshots into a View and owns the
// client-local card and marked set. Safe for use from the snapshot
// callback and the input loop concurrently.
type Reconciler struct {
	mutex       sync.Mutex
	playerID    string
	revealDelay time.Duration
	timers      *timer.Manager

	view       View
	card       bingo.Card
	marked     *bingo.MarkedSet
	lastNumber *int
	revealTask int64

	// OnCelebrate fires exactly once per winner assignment.
	OnCelebrate func(youWon bool, winner models.Winner)
	// OnReveal fires when the reveal window closes and the number
	// comes to rest.
	OnReveal func(n int)
}

func NewReconciler(playerID string, revealDelay time.Duration, timers *timer.Manager) *Reconciler {
	return &Reconciler{
		playerID:    playerID,
		revealDelay: revealDelay,
		timers:      timers,
		card:        bingo.GenerateCard(),
		marked:      bingo.NewMarkedSet(),
	}
}

// Apply is the reducer: one snapshot in, the next derived view out.
func (r *Reconciler) Apply(snapshot *models.Room) View {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if snapshot == nil {
		r.view.RoomGone = true
		return r.view
	}

	prevWinner := r.view.Winner
	r.view.Room = snapshot

	if snapshot.Winner != nil {
		r.view.Winner = snapshot.Winner
		if !r.view.Celebrated {
			r.view.Celebrated = true
			r.view.YouWon = snapshot.Winner.ID == r.playerID
			if r.OnCelebrate != nil {
				go r.OnCelebrate(r.view.YouWon, *snapshot.Winner)
			}
		}
	} else {
		// Winner cleared: the celebrated flag must re-arm here or
		// the next game's win screen is silently suppressed.
		r.view.Winner = nil
		r.view.Celebrated = false
		r.view.YouWon = false
		if prevWinner != nil {
			// Host reset the room: fresh card, clean marks.
			r.card = bingo.GenerateCard()
			r.marked.Clear()
			r.lastNumber = nil
		}
	}

	r.reconcileCurrentNumber(snapshot)
	return r.view
}

// reconcileCurrentNumber opens a bounded reveal window whenever a new
// ball appears. The drawer's own client updates immediately, so
// only non-hosts spin.
func (r *Reconciler) reconcileCurrentNumber(snapshot *models.Room) {
	current := snapshot.CurrentNumber
	if current == nil {
		r.lastNumber = nil
		r.view.Revealing = false
		return
	}
	if r.lastNumber != nil && *r.lastNumber == *current {
		return
	}
	n := *current
	r.lastNumber = &n

	if r.playerID == snapshot.HostID || r.revealDelay <= 0 || r.timers == nil {
		r.view.Revealing = false
		if r.OnReveal != nil {
			go r.OnReveal(n)
		}
		return
	}

	r.view.Revealing = true
	if r.revealTask != 0 {
		r.timers.Cancel(r.revealTask)
	}
	r.revealTask = r.timers.After(r.revealDelay, func() {
		r.mutex.Lock()
		r.view.Revealing = false
		r.revealTask = 0
		r.mutex.Unlock()
		if r.OnReveal != nil {
			r.OnReveal(n)
		}
	})
}

// MarkNumber toggles a number on the local card. Marking is only
// legal for drawn numbers; un-marking is always allowed. won reports
// whether the toggle completed the active pattern; the caller then
// issues the declare-win command.
func (r *Reconciler) MarkNumber(n int) (nowMarked bool, won bool, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.view.RoomGone || r.view.Room == nil {
		return false, false, ErrRoomGone
	}
	if !r.view.Room.HasDrawn(n) {
		return false, false, ErrNumberNotDrawn
	}

	nowMarked = r.marked.Toggle(n)
	if nowMarked && r.view.Winner == nil {
		won = bingo.CheckWin(r.card, r.marked, r.view.Room.GameMode)
	}
	return nowMarked, won, nil
}

// RegenerateCard swaps in a fresh card, allowed only while the room
// is still waiting.
func (r *Reconciler) RegenerateCard() (bingo.Card, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.view.Room != nil && r.view.Room.Status != models.StatusWaiting {
		return r.card, ErrCardLocked
	}
	r.card = bingo.GenerateCard()
	r.marked.Clear()
	return r.card, nil
}

func (r *Reconciler) Card() bingo.Card {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.card
}

func (r *Reconciler) Marked(n int) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.marked.Contains(n)
}

func (r *Reconciler) View() View {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.view
}
