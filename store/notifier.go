package store

import (
	"sync"

	"github.com/wfunc/bingoserver/models"
)

// notifier fans document snapshots out to subscribers. Shared by the
// backends so subscription bookkeeping lives in one place.
type notifier struct {
	mutex  sync.Mutex
	nextID int
	subs   map[string]map[int]SnapshotFunc // docID -> subID -> fn
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int]SnapshotFunc)}
}

func (n *notifier) add(docID string, fn SnapshotFunc) Unsubscribe {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.nextID++
	subID := n.nextID
	if n.subs[docID] == nil {
		n.subs[docID] = make(map[int]SnapshotFunc)
	}
	n.subs[docID][subID] = fn

	return func() {
		n.mutex.Lock()
		defer n.mutex.Unlock()
		delete(n.subs[docID], subID)
		if len(n.subs[docID]) == 0 {
			delete(n.subs, docID)
		}
	}
}

// publish delivers room to every subscriber of docID. Each callback
// gets its own copy, and callbacks run outside the notifier lock so
// they may call back into the store.
func (n *notifier) publish(docID string, room *models.Room) {
	n.mutex.Lock()
	fns := make([]SnapshotFunc, 0, len(n.subs[docID]))
	for _, fn := range n.subs[docID] {
		fns = append(fns, fn)
	}
	n.mutex.Unlock()

	for _, fn := range fns {
		if room != nil {
			fn(room.Clone())
		} else {
			fn(nil)
		}
	}
}
