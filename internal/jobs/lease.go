package jobs

import (
	"sync"
	"time"
)

// leaseTable hands out per-document execution leases so two workers never
// process the same document concurrently. A lease expires after ttl, which
// keeps a crashed holder from locking a document out forever.
type leaseTable struct {
	mu   sync.Mutex
	ttl  time.Duration
	held map[string]time.Time
}

func newLeaseTable(ttl time.Duration) *leaseTable {
	return &leaseTable{ttl: ttl, held: make(map[string]time.Time)}
}

// Acquire takes the lease for id. It fails while another holder's lease is
// still inside its ttl window.
func (l *leaseTable) Acquire(id string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, ok := l.held[id]; ok && now.Before(expiry) {
		return false
	}
	l.held[id] = now.Add(l.ttl)
	return true
}

// Release frees the lease for id.
func (l *leaseTable) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}
