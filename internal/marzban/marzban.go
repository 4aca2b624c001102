// Package marzban wraps the Marzban management API's node lifecycle
// operations with session-token handling.
//
// The Client interface abstracts the API so orchestration and the
// conversation layer can be tested against a mock. RealClient talks to a
// live panel; it owns the process-wide token cache, re-authenticates
// transparently on expired tokens, and retries transient network failures
// with exponential backoff.
package marzban

import (
	"context"
)

// Node is the read-through projection of a node record owned by the
// management API. It is fetched on demand and never cached across calls.
type Node struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Port             int     `json:"port"`
	APIPort          int     `json:"api_port"`
	Status           string  `json:"status"`
	XrayVersion      string  `json:"xray_version"`
	UsageCoefficient float64 `json:"usage_coefficient"`
}

// Connected reports whether the panel considers the node healthy.
func (n Node) Connected() bool {
	return n.Status == "connected"
}

// CreateNodeRequest is the payload for registering a provisioned host.
type CreateNodeRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Port         int    `json:"port"`
	APIPort      int    `json:"api_port"`
	AddAsNewHost bool   `json:"add_as_new_host"`

	// UsageCoefficient is always 1 for nodes created by this bot.
	UsageCoefficient float64 `json:"usage_coefficient"`
}

// Client defines the node lifecycle operations used by the bot.
type Client interface {
	// ListNodes returns all node records known to the panel.
	ListNodes(ctx context.Context) ([]Node, error)

	// CreateNode registers a provisioned host. A node whose address already
	// exists remotely yields ErrConflict.
	CreateNode(ctx context.Context, req CreateNodeRequest) (*Node, error)

	// DeleteNode removes a node record by ID. Unknown IDs yield ErrNotFound.
	DeleteNode(ctx context.Context, nodeID int64) error
}
