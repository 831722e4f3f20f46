package transport

import (
	"sync"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

// Delivery records one message handed to a Memory transport, in arrival
// order. Tests use this to assert both content and delivery order.
type Delivery struct {
	Endpoint  Endpoint
	Message   domain.Message
	Broadcast bool
}

// Memory is an in-process Transport that simply records every delivery.
// It is not used in production — the exchange wires NATSTransport — but
// gives the matching engine, session, and subscription tests a
// deterministic substitute for a real network.
type Memory struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// NewMemory creates an empty in-memory transport.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SendUnicast(endpoint Endpoint, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{Endpoint: endpoint, Message: msg})
	return nil
}

func (m *Memory) SendBroadcast(endpoint Endpoint, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{Endpoint: endpoint, Message: msg, Broadcast: true})
	return nil
}

// Deliveries returns a snapshot copy of every delivery recorded so far.
func (m *Memory) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

// Reset clears recorded deliveries.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = nil
}
