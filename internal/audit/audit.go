// Package audit defines the append-only audit trail for admin actions.
//
// Components emit events through the Sink capability; they never write the
// trail directly. Passwords must never reach an event's context, and the
// zap sink strips the key as a second line of defense.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies an auditable admin action.
type Action string

// Auditable actions.
const (
	ActionBotStarted          Action = "BOT_STARTED"
	ActionUnauthorizedAccess  Action = "UNAUTHORIZED_ACCESS"
	ActionNodeSetupStarted    Action = "NODE_SETUP_STARTED"
	ActionNodeSetupSucceeded  Action = "NODE_SETUP_SUCCEEDED"
	ActionNodeSetupFailed     Action = "NODE_SETUP_FAILED"
	ActionNodeDeleted         Action = "NODE_DELETED"
	ActionNodeDeleteCancelled Action = "NODE_DELETE_CANCELLED"
	ActionHelpRequested       Action = "HELP_REQUESTED"
	ActionStatsRequested      Action = "STATISTICS_REQUESTED"
)

// Event is one append-only audit record.
type Event struct {
	ID        string
	Timestamp time.Time
	AdminID   int64
	Action    Action
	Context   map[string]string
}

// Sink receives audit events. Implementations must treat events as
// write-once; delivery is fire-and-forget from the caller's perspective.
type Sink interface {
	Record(ev Event)
}

// New builds an event with a fresh ID and timestamp.
func New(adminID int64, action Action, ctx map[string]string) Event {
	return Event{
		ID:        newEventID(),
		Timestamp: time.Now().UTC(),
		AdminID:   adminID,
		Action:    action,
		Context:   ctx,
	}
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
