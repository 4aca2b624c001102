package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/imamik/nodeup/internal/marzban"
	"github.com/imamik/nodeup/internal/metrics"
)

// State is the conversation position of one session.
type State string

// Conversation states.
const (
	StateIdle                State = "idle"
	StateAwaitingIP          State = "awaiting_ip"
	StateAwaitingPassword    State = "awaiting_password"
	StateAwaitingPorts       State = "awaiting_ports"
	StateConfirming          State = "confirming"
	StateProvisioning        State = "provisioning"
	StateAwaitingDeleteReply State = "awaiting_delete_reply"
)

// pendingRequest is the partially collected node specification. The
// password is transient: it is wiped on cancel, on reset, and as soon as a
// provisioning run has consumed it.
type pendingRequest struct {
	IP          string
	Password    string
	ServicePort int
	APIPort     int
}

// Session is the per-admin conversation state. A session is mutated only
// while its mutex is held, so one update at a time touches it; distinct
// admins proceed independently.
type Session struct {
	mu sync.Mutex

	AdminID      int64
	State        State
	Pending      pendingRequest
	CreatedAt    time.Time
	LastActivity time.Time

	// limiter throttles repeated input within the session; invalid
	// attempts above the burst are answered with a slow-down notice
	// instead of a validation verdict.
	limiter *rate.Limiter

	// generation increments whenever the session leaves Provisioning, so
	// progress relays from a cancelled run know to stop.
	generation uint64

	// progressMsgID is the message edited in place during provisioning.
	progressMsgID int64

	// pendingDelete is the node awaiting delete confirmation.
	pendingDelete *marzban.Node
}

// reset returns the session to Idle, discarding collected input.
func (s *Session) reset() {
	s.Pending = pendingRequest{}
	s.pendingDelete = nil
	s.State = StateIdle
	s.generation++
}

// sessionStore holds live sessions keyed by admin ID.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	inputRate  rate.Limit
	inputBurst int
	maxIdle    time.Duration
	now        func() time.Time
}

func newSessionStore(perSecond float64, burst int, maxIdle time.Duration) *sessionStore {
	return &sessionStore{
		sessions:   make(map[int64]*Session),
		inputRate:  rate.Limit(perSecond),
		inputBurst: burst,
		maxIdle:    maxIdle,
		now:        time.Now,
	}
}

// get returns the admin's session, creating it on first contact. Sessions
// idle past the configured window are evicted first, so the active-session
// gauge tracks live conversations rather than every admin ever seen.
func (s *sessionStore) get(adminID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdle(now)

	sess, ok := s.sessions[adminID]
	if !ok {
		sess = &Session{
			AdminID:      adminID,
			State:        StateIdle,
			CreatedAt:    now,
			LastActivity: now,
			limiter:      rate.NewLimiter(s.inputRate, s.inputBurst),
		}
		s.sessions[adminID] = sess
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
		return sess
	}

	sess.mu.Lock()
	sess.LastActivity = now
	sess.mu.Unlock()

	return sess
}

// evictIdle drops sessions idle past maxIdle. A provisioning session stays:
// its background run still relays progress through it. Collected input is
// wiped before the session is discarded. Called with s.mu held.
func (s *sessionStore) evictIdle(now time.Time) {
	if s.maxIdle <= 0 {
		return
	}
	evicted := false
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.LastActivity) > s.maxIdle && sess.State != StateProvisioning
		if expired {
			sess.reset()
		}
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			evicted = true
		}
	}
	if evicted {
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
}
