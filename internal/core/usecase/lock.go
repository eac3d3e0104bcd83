package usecase

import "sync"

// DocumentLocks serializes writers per document ID, so indexing and deletion
// of the same document never interleave while unrelated documents proceed in
// parallel. One instance is shared by every writer-side use case. Entries are
// kept for the process lifetime; the set of documents is small compared to
// the work done per document.
type DocumentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDocumentLocks() *DocumentLocks {
	return &DocumentLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the per-document lock is held and returns the release
// function.
func (d *DocumentLocks) Acquire(documentID string) func() {
	d.mu.Lock()
	lock, ok := d.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[documentID] = lock
	}
	d.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
