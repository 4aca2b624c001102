package marzban

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client for tests. Configure error fields to
// force failures; call counters let tests assert invocation invariants.
type MockClient struct {
	mu     sync.Mutex
	nodes  map[int64]Node
	nextID int64

	ListErr   error
	CreateErr error
	DeleteErr error

	ListCalls   int
	CreateCalls int
	DeleteCalls int
}

// NewMockClient creates an empty mock panel.
func NewMockClient() *MockClient {
	return &MockClient{nodes: make(map[int64]Node), nextID: 1}
}

// Seed adds a node record directly, bypassing CreateNode accounting.
func (m *MockClient) Seed(n Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == 0 {
		n.ID = m.nextID
	}
	if n.ID >= m.nextID {
		m.nextID = n.ID + 1
	}
	m.nodes[n.ID] = n
}

// ListNodes implements Client.
func (m *MockClient) ListNodes(_ context.Context) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out, nil
}

// CreateNode implements Client. Duplicate addresses yield ErrConflict, as
// the real panel does.
func (m *MockClient) CreateNode(_ context.Context, req CreateNodeRequest) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	for _, n := range m.nodes {
		if n.Address == req.Address {
			return nil, ErrConflict
		}
	}
	node := Node{
		ID:               m.nextID,
		Name:             req.Name,
		Address:          req.Address,
		Port:             req.Port,
		APIPort:          req.APIPort,
		Status:           "connecting",
		UsageCoefficient: req.UsageCoefficient,
	}
	m.nextID++
	m.nodes[node.ID] = node
	return &node, nil
}

// DeleteNode implements Client.
func (m *MockClient) DeleteNode(_ context.Context, nodeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.nodes[nodeID]; !ok {
		return ErrNotFound
	}
	delete(m.nodes, nodeID)
	return nil
}
