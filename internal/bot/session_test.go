package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreCreatesOnFirstContact(t *testing.T) {
	store := newSessionStore(1, 5, time.Minute)

	sess := store.get(42)
	require.NotNil(t, sess)
	assert.Equal(t, int64(42), sess.AdminID)
	assert.Equal(t, StateIdle, sess.State)

	assert.Same(t, sess, store.get(42))
}

func TestSessionStoreIdleEviction(t *testing.T) {
	store := newSessionStore(1, 5, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	sess := store.get(42)
	sess.State = StateAwaitingPassword
	sess.Pending = pendingRequest{IP: "203.0.113.5", Password: "secret"}

	// Within the idle window the session survives.
	now = now.Add(30 * time.Second)
	assert.Same(t, sess, store.get(42))
	assert.Equal(t, StateAwaitingPassword, sess.State)

	// Past the window it is evicted; the next contact starts fresh and the
	// discarded session's collected input is wiped.
	now = now.Add(2 * time.Minute)
	fresh := store.get(42)
	assert.NotSame(t, sess, fresh)
	assert.Equal(t, StateIdle, fresh.State)
	assert.Empty(t, sess.Pending.Password)
	assert.Empty(t, sess.Pending.IP)
}

func TestSessionStoreEvictsOtherIdleSessions(t *testing.T) {
	store := newSessionStore(1, 5, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.get(1)
	now = now.Add(2 * time.Minute)
	store.get(2)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.sessions, 1)
	assert.Contains(t, store.sessions, int64(2))
}

func TestSessionStoreNeverIdleResetsProvisioning(t *testing.T) {
	store := newSessionStore(1, 5, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	sess := store.get(42)
	sess.State = StateProvisioning

	now = now.Add(time.Hour)
	store.get(42)
	assert.Equal(t, StateProvisioning, sess.State)
}

func TestResetBumpsGeneration(t *testing.T) {
	sess := &Session{State: StateProvisioning, Pending: pendingRequest{Password: "secret"}}
	gen := sess.generation

	sess.reset()
	assert.Equal(t, StateIdle, sess.State)
	assert.Empty(t, sess.Pending.Password)
	assert.Equal(t, gen+1, sess.generation)
}
