package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/models"
)

func newTestRoom() *models.Room {
	return &models.Room{
		Code:     "ABC123",
		HostID:   "host-1",
		HostName: "Ana",
		GameMode: bingo.ModeFull,
		Status:   models.StatusWaiting,
		Players:  []models.Player{{ID: "host-1", Name: "Ana", IsHost: true}},
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, newTestRoom())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	room, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", room.Code)
	assert.Equal(t, id, room.ID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FindByCode(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, newTestRoom())
	require.NoError(t, err)

	room, err := s.FindByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "host-1", room.HostID)

	_, err = s.FindByCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, _ := s.Create(ctx, newTestRoom())
	room, _ := s.Get(ctx, id)
	room.Status = models.StatusPlaying
	room.DrawnNumbers = append(room.DrawnNumbers, 12)

	again, _ := s.Get(ctx, id)
	assert.Equal(t, models.StatusWaiting, again.Status)
	assert.Empty(t, again.DrawnNumbers)
}

func TestMemoryStore_UpdateIfConditionRejects(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, newTestRoom())

	sentinel := errors.New("winner already set")
	_, err := s.UpdateIf(ctx, id,
		func(r *models.Room) error { return sentinel },
		func(r *models.Room) { r.Status = models.StatusFinished },
	)
	assert.ErrorIs(t, err, sentinel)

	room, _ := s.Get(ctx, id)
	assert.Equal(t, models.StatusWaiting, room.Status, "rejected write must not change the document")
}

func TestMemoryStore_ConcurrentConditionalWrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, newTestRoom())

	// Two writers race to claim the winner field; the condition only
	// accepts an unset winner, so exactly one may land.
	claim := func(playerID string) error {
		_, err := s.UpdateIf(ctx, id,
			func(r *models.Room) error {
				if r.Winner != nil {
					return ErrConflict
				}
				return nil
			},
			func(r *models.Room) {
				r.Winner = &models.Winner{ID: playerID, Name: playerID, Pattern: bingo.ModeFull}
				r.Status = models.StatusFinished
			},
		)
		return err
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, player := range []string{"p1", "p2"} {
		wg.Add(1)
		go func(player string) {
			defer wg.Done()
			results <- claim(player)
		}(player)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one writer must win")
	assert.Equal(t, 1, conflicts, "the other must observe a conflict")

	room, _ := s.Get(ctx, id)
	require.NotNil(t, room.Winner)
	assert.Equal(t, models.StatusFinished, room.Status)
}

func TestMemoryStore_SubscribeFiresImmediatelyThenOnChange(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, newTestRoom())

	var mu sync.Mutex
	var snapshots []*models.Room
	unsub, err := s.Subscribe(id, func(r *models.Room) {
		mu.Lock()
		snapshots = append(snapshots, r)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsub()

	mu.Lock()
	require.Len(t, snapshots, 1, "subscribe must fire once with the current document")
	assert.Equal(t, models.StatusWaiting, snapshots[0].Status)
	mu.Unlock()

	_, err = s.UpdateIf(ctx, id, nil, func(r *models.Room) { r.Status = models.StatusPlaying })
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, snapshots, 2)
	assert.Equal(t, models.StatusPlaying, snapshots[1].Status)
	mu.Unlock()
}

func TestMemoryStore_UnsubscribeStopsSnapshots(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, newTestRoom())

	count := 0
	unsub, err := s.Subscribe(id, func(*models.Room) { count++ })
	require.NoError(t, err)
	unsub()

	_, err = s.UpdateIf(ctx, id, nil, func(r *models.Room) { r.Status = models.StatusPlaying })
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the initial snapshot should have arrived")
}

func TestMemoryStore_DeleteNotifiesNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, newTestRoom())

	var last *models.Room
	gotNil := false
	_, err := s.Subscribe(id, func(r *models.Room) {
		last = r
		if r == nil {
			gotNil = true
		}
	})
	require.NoError(t, err)
	require.NotNil(t, last)

	require.NoError(t, s.Delete(ctx, id))
	assert.True(t, gotNil, "delete must push a nil snapshot")

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_InitialSnapshotNeverStale(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id, _ := s.Create(ctx, newTestRoom())

	stop := make(chan struct{})
	var writers sync.WaitGroup
	writers.Add(1)
	go func() {
		defer writers.Done()
		for n := 1; ; n++ {
			select {
			case <-stop:
				return
			default:
			}
			_, err := s.UpdateIf(ctx, id, nil, func(r *models.Room) {
				r.DrawnNumbers = append(r.DrawnNumbers, n)
			})
			if err != nil {
				return
			}
		}
	}()

	// Each subscriber must see draw counts that only grow; a stale
	// initial snapshot delivered after a newer one would shrink them.
	for i := 0; i < 50; i++ {
		var mu sync.Mutex
		last := -1
		regressed := false
		unsub, err := s.Subscribe(id, func(r *models.Room) {
			mu.Lock()
			defer mu.Unlock()
			if len(r.DrawnNumbers) < last {
				regressed = true
			}
			last = len(r.DrawnNumbers)
		})
		require.NoError(t, err)
		unsub()

		mu.Lock()
		assert.False(t, regressed, "snapshot order regressed on subscriber %d", i)
		mu.Unlock()
	}

	close(stop)
	writers.Wait()
}
