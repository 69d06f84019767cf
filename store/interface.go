// store implements the authoritative room document store: full-doc
// reads, conditional writes, and a push subscription that delivers a
// complete snapshot on every change.
package store

import (
	"context"
	"errors"

	"github.com/wfunc/bingoserver/models"
)

var (
	// ErrNotFound 文档不存在
	ErrNotFound = errors.New("room not found")
	// ErrConflict is returned by UpdateIf when the condition rejects
	// the current document. The write makes no change.
	ErrConflict = errors.New("conditional update conflict")
	// ErrUnavailable wraps backend failures (connection lost etc.).
	ErrUnavailable = errors.New("store unavailable")
)

// SnapshotFunc receives the full room document after every change.
// A nil room means the document is gone.
type SnapshotFunc func(*models.Room)

// Unsubscribe tears down a subscription.
type Unsubscribe func()

// RoomStore is the contract every backend satisfies. Documents
// handed out are always copies; callers never share memory with the
// store.
type RoomStore interface {
	// Create stores the room and returns its assigned id.
	Create(ctx context.Context, room *models.Room) (string, error)

	Get(ctx context.Context, id string) (*models.Room, error)

	// FindByCode looks a room up by its shareable code.
	FindByCode(ctx context.Context, code string) (*models.Room, error)

	// UpdateIf atomically applies mutate to the current document,
	// provided cond accepts it first. A nil cond is an unconditional
	// update. Any error from cond aborts the write and is returned
	// as-is, so callers can thread their own sentinels through.
	UpdateIf(ctx context.Context, id string, cond func(*models.Room) error, mutate func(*models.Room)) (*models.Room, error)

	Delete(ctx context.Context, id string) error

	// Subscribe fires fn once immediately with the current document,
	// then again after every change.
	Subscribe(id string, fn SnapshotFunc) (Unsubscribe, error)

	Close() error
}
