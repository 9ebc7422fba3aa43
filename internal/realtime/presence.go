package realtime

import "sync"

// PresenceRegistry is the authoritative record of which users currently
// have a reachable live connection. A user has at most one entry;
// registering again replaces the previous connection (last-connect-wins).
// The table is memory-only: after a process restart every user is offline
// until they reconnect and declare themselves online again.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[int]*Client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[int]*Client),
	}
}

// Register binds userId to c, replacing any previous binding. It reports
// whether a binding for userId already existed.
func (p *PresenceRegistry) Register(userId int, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, existed := p.entries[userId]
	p.entries[userId] = c

	return existed
}

// Unregister removes the binding for userId if present and reports whether
// one was removed.
func (p *PresenceRegistry) Unregister(userId int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[userId]; !ok {
		return false
	}
	delete(p.entries, userId)

	return true
}

// UnregisterClient removes the one entry (if any) bound to c, used when a
// connection closes without an explicit offline declaration. It returns the
// user id that was bound to c. A stale connection that was already replaced
// by a newer one removes nothing.
func (p *PresenceRegistry) UnregisterClient(c *Client) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for userId, client := range p.entries {
		if client == c {
			delete(p.entries, userId)
			return userId, true
		}
	}

	return 0, false
}

// Lookup returns the live connection bound to userId, if any.
func (p *PresenceRegistry) Lookup(userId int) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.entries[userId]
	return c, ok
}
