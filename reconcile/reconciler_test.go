package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/timer"
)

func snapshot(status string, mutate ...func(*models.Room)) *models.Room {
	room := &models.Room{
		ID:       "room-1",
		Code:     "ABC123",
		HostID:   "host-1",
		GameMode: bingo.ModeFull,
		Status:   status,
		Players:  []models.Player{{ID: "host-1", Name: "Ana", IsHost: true}},
	}
	for _, fn := range mutate {
		fn(room)
	}
	return room
}

func withWinner(id, name string) func(*models.Room) {
	return func(r *models.Room) {
		r.Status = models.StatusFinished
		r.Winner = &models.Winner{ID: id, Name: name, Pattern: r.GameMode}
	}
}

func withCurrent(n int) func(*models.Room) {
	return func(r *models.Room) {
		r.DrawnNumbers = append(r.DrawnNumbers, n)
		r.CurrentNumber = &n
	}
}

func TestApply_CelebratesExactlyOncePerWinner(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	celebrations := make(chan bool, 4)
	r.OnCelebrate = func(youWon bool, _ models.Winner) { celebrations <- youWon }

	view := r.Apply(snapshot(models.StatusFinished, withWinner("someone", "Bea")))
	assert.True(t, view.Celebrated)
	assert.False(t, view.YouWon)

	select {
	case youWon := <-celebrations:
		assert.False(t, youWon)
	case <-time.After(time.Second):
		t.Fatal("expected a celebration")
	}

	// The same winner arriving again (any later snapshot) must stay
	// silent.
	r.Apply(snapshot(models.StatusFinished, withWinner("someone", "Bea")))
	select {
	case <-celebrations:
		t.Fatal("celebration fired twice for one winner")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestApply_YouWon(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	celebrations := make(chan bool, 1)
	r.OnCelebrate = func(youWon bool, _ models.Winner) { celebrations <- youWon }

	view := r.Apply(snapshot(models.StatusFinished, withWinner("me", "Me")))
	assert.True(t, view.YouWon)

	select {
	case youWon := <-celebrations:
		assert.True(t, youWon)
	case <-time.After(time.Second):
		t.Fatal("expected a celebration")
	}
}

func TestApply_ResetReArmsCelebration(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	celebrations := make(chan bool, 4)
	r.OnCelebrate = func(youWon bool, _ models.Winner) { celebrations <- youWon }

	r.Apply(snapshot(models.StatusFinished, withWinner("p1", "Bea")))
	<-celebrations

	// Host reset: cleared winner must drop the celebrated flag.
	view := r.Apply(snapshot(models.StatusWaiting))
	assert.False(t, view.Celebrated)
	assert.Nil(t, view.Winner)

	// A rewin in the next epoch celebrates again.
	r.Apply(snapshot(models.StatusFinished, withWinner("p2", "Cai")))
	select {
	case <-celebrations:
	case <-time.After(time.Second):
		t.Fatal("celebration did not re-arm after reset")
	}
}

func TestApply_ResetClearsLocalMarks(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	playing := snapshot(models.StatusPlaying)
	playing.DrawnNumbers = bingo.Pool(bingo.ModeFull) // everything drawn
	r.Apply(playing)

	n := r.Card()[0][0]
	_, _, err := r.MarkNumber(n)
	require.NoError(t, err)
	assert.True(t, r.Marked(n))

	r.Apply(snapshot(models.StatusFinished, withWinner("p1", "Bea")))
	r.Apply(snapshot(models.StatusWaiting))

	assert.False(t, r.Marked(n), "reset must clear the marked set")
}

func TestApply_RevealWindowForNonHost(t *testing.T) {
	timers := timer.NewManagerWithTick(5 * time.Millisecond)
	defer timers.Stop()

	r := NewReconciler("me", 30*time.Millisecond, timers)
	revealed := make(chan int, 1)
	r.OnReveal = func(n int) { revealed <- n }

	view := r.Apply(snapshot(models.StatusPlaying, withCurrent(42)))
	assert.True(t, view.Revealing, "non-host must hold the spin window")

	select {
	case n := <-revealed:
		assert.Equal(t, 42, n)
	case <-time.After(time.Second):
		t.Fatal("reveal window never closed")
	}
	assert.False(t, r.View().Revealing)

	// The same number again opens no new window.
	view = r.Apply(snapshot(models.StatusPlaying, withCurrent(42)))
	assert.False(t, view.Revealing)
}

func TestApply_HostSeesDrawImmediately(t *testing.T) {
	timers := timer.NewManagerWithTick(5 * time.Millisecond)
	defer timers.Stop()

	r := NewReconciler("host-1", time.Hour, timers)
	view := r.Apply(snapshot(models.StatusPlaying, withCurrent(17)))
	assert.False(t, view.Revealing, "the drawer never waits on its own draw")
}

func TestMarkNumber(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	playing := snapshot(models.StatusPlaying)
	playing.GameMode = bingo.ModeCorners
	playing.DrawnNumbers = bingo.Pool(bingo.ModeFull)
	r.Apply(playing)

	_, _, err := r.MarkNumber(200)
	assert.ErrorIs(t, err, ErrNumberNotDrawn)

	card := r.Card()
	corners := []int{card[0][0], card[0][4], card[4][0], card[4][4]}

	for i, n := range corners {
		nowMarked, won, err := r.MarkNumber(n)
		require.NoError(t, err)
		assert.True(t, nowMarked)
		if i < len(corners)-1 {
			assert.False(t, won, "corner %d should not complete the pattern", i)
		} else {
			assert.True(t, won, "final corner completes the pattern")
		}
	}

	// Toggling off restores the prior state.
	nowMarked, _, err := r.MarkNumber(corners[0])
	require.NoError(t, err)
	assert.False(t, nowMarked)
	assert.False(t, r.Marked(corners[0]))
}

func TestMarkNumber_UndrawnRejectedWhileOthersDrawn(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	playing := snapshot(models.StatusPlaying, withCurrent(7))
	r.Apply(playing)

	_, _, err := r.MarkNumber(8)
	assert.ErrorIs(t, err, ErrNumberNotDrawn)

	if r.Card().Contains(7) {
		_, _, err = r.MarkNumber(7)
		assert.NoError(t, err)
	}
}

func TestRegenerateCard_LockedOncePlaying(t *testing.T) {
	r := NewReconciler("me", 0, nil)

	r.Apply(snapshot(models.StatusWaiting))
	_, err := r.RegenerateCard()
	require.NoError(t, err)

	r.Apply(snapshot(models.StatusPlaying))
	locked := r.Card()
	_, err = r.RegenerateCard()
	assert.ErrorIs(t, err, ErrCardLocked)
	assert.Equal(t, locked, r.Card())
}

func TestApply_NilSnapshotMeansRoomGone(t *testing.T) {
	r := NewReconciler("me", 0, nil)
	r.Apply(snapshot(models.StatusWaiting))

	view := r.Apply(nil)
	assert.True(t, view.RoomGone)

	_, _, err := r.MarkNumber(1)
	assert.ErrorIs(t, err, ErrRoomGone)
}
