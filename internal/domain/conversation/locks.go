package conversation

import (
	"sync"
)

// turnLocks serializes thread mutations per conversation. Acquire never
// blocks: a second writer is rejected immediately so the caller can surface a
// conflict instead of queueing behind a slow provider call.
type turnLocks struct {
	mu   sync.Mutex
	busy map[uint]struct{}
}

func newTurnLocks() *turnLocks {
	return &turnLocks{busy: make(map[uint]struct{})}
}

// Acquire reports whether the conversation lock was taken. A false return
// means another turn is already in flight.
func (l *turnLocks) Acquire(conversationID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.busy[conversationID]; held {
		return false
	}
	l.busy[conversationID] = struct{}{}
	return true
}

func (l *turnLocks) Release(conversationID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, conversationID)
}
