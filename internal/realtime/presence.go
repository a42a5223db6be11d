package realtime

import "sync"

// Conn is the send side of a live client connection as seen by the
// presence table and the relay. Deliver must not block; it reports whether
// the event was queued for writing.
type Conn interface {
	Deliver(evt OutboundEvent) bool
}

// Presence is the process-wide mapping from user id to that user's current
// live connection. It is owned by the Hub (constructed once per process,
// torn down on shutdown) rather than living as a package global.
//
// Concurrency: Join, Lookup, and Remove are called from independent
// per-connection goroutines and from relay operations, so all access is
// guarded by a read-write mutex.
//
// At most one connection is bound per user id: a later join for the same id
// overwrites the earlier binding (last-join-wins).
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]Conn
}

// NewPresence returns an empty presence table.
func NewPresence() *Presence {
	return &Presence{byUser: make(map[string]Conn)}
}

// Join unconditionally (re)binds userID to conn, overwriting any prior
// binding for the same user. Joining twice with the same connection is a
// no-op beyond the first call.
func (p *Presence) Join(userID string, conn Conn) {
	if userID == "" || conn == nil {
		return
	}
	p.mu.Lock()
	p.byUser[userID] = conn
	p.mu.Unlock()
}

// Lookup returns the live connection currently bound to userID, if any.
func (p *Presence) Lookup(userID string) (Conn, bool) {
	p.mu.RLock()
	conn, ok := p.byUser[userID]
	p.mu.RUnlock()
	return conn, ok
}

// Remove deletes the binding whose value is conn, matching by connection
// identity rather than by user id. A closing connection that has been
// superseded by a newer join for the same user therefore cannot evict the
// user's current live connection.
func (p *Presence) Remove(conn Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	for userID, bound := range p.byUser {
		if bound == conn {
			delete(p.byUser, userID)
			break
		}
	}
	p.mu.Unlock()
}

// Len reports the number of users currently bound.
func (p *Presence) Len() int {
	p.mu.RLock()
	n := len(p.byUser)
	p.mu.RUnlock()
	return n
}
