package table

import "sync"

// keyLocks provides per-identity mutual exclusion for the
// read-merge-write span. Without it, two concurrent requests for the
// same identity both read the old table and the later full-file
// rewrite silently discards the other's rows. Locks are created
// lazily and never released; the key space is bounded by the set of
// (participant, session, task) triples a deployment actually sees.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key, creating it on first use. The
// returned func releases the lock.
func (kl *keyLocks) acquire(key string) func() {
	kl.mu.Lock()
	l, ok := kl.locks[key]
	if !ok {
		l = &sync.Mutex{}
		kl.locks[key] = l
	}
	kl.mu.Unlock()

	l.Lock()
	return l.Unlock
}
