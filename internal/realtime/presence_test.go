package realtime

import (
	"testing"

	"github.com/npezzotti/go-estately/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPresenceRegistry_Register(t *testing.T) {
	pr := NewPresenceRegistry()

	c1 := &Client{user: types.User{Id: 1}}
	existed := pr.Register(1, c1)
	assert.False(t, existed, "expected no prior binding for user")

	got, ok := pr.Lookup(1)
	assert.True(t, ok, "expected user to be bound")
	assert.Same(t, c1, got, "expected lookup to return registered client")

	// a second connection for the same user replaces the first
	c2 := &Client{user: types.User{Id: 1}}
	existed = pr.Register(1, c2)
	assert.True(t, existed, "expected prior binding to be reported")

	got, ok = pr.Lookup(1)
	assert.True(t, ok, "expected user to remain bound")
	assert.Same(t, c2, got, "expected newest connection to win")
}

func TestPresenceRegistry_Unregister(t *testing.T) {
	pr := NewPresenceRegistry()
	c := &Client{user: types.User{Id: 1}}
	pr.Register(1, c)

	removed := pr.Unregister(1)
	assert.True(t, removed, "expected binding to be removed")

	_, ok := pr.Lookup(1)
	assert.False(t, ok, "expected user to be unbound")

	removed = pr.Unregister(1)
	assert.False(t, removed, "expected second unregister to be a no-op")
}

func TestPresenceRegistry_UnregisterClient(t *testing.T) {
	pr := NewPresenceRegistry()

	c1 := &Client{user: types.User{Id: 1}}
	c2 := &Client{user: types.User{Id: 1}}
	pr.Register(1, c1)
	pr.Register(1, c2)

	// the replaced connection closing must not evict the new binding
	_, ok := pr.UnregisterClient(c1)
	assert.False(t, ok, "expected stale connection close to be a no-op")

	got, ok := pr.Lookup(1)
	assert.True(t, ok, "expected user to remain bound")
	assert.Same(t, c2, got, "expected current connection to survive")

	userId, ok := pr.UnregisterClient(c2)
	assert.True(t, ok, "expected current connection close to unbind user")
	assert.Equal(t, 1, userId, "expected unbound user id to be returned")

	_, ok = pr.Lookup(1)
	assert.False(t, ok, "expected user to be unbound")
}

func TestPresenceRegistry_LookupMiss(t *testing.T) {
	pr := NewPresenceRegistry()

	c, ok := pr.Lookup(42)
	assert.False(t, ok, "expected lookup miss for unknown user")
	assert.Nil(t, c, "expected nil client on miss")
}
