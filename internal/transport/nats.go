package transport

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

// envelope tags a message's concrete type alongside its JSON payload so
// the receiving side (an agent's NATS subscription) can dispatch without
// needing Go's type system on the wire.
type envelope struct {
	Type    domain.MessageType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
}

// NATSTransport implements Transport over a nats.Conn. Endpoints are NATS
// subjects; a subscriber's callback endpoint from its SubscribeMessage is
// used verbatim as the subject it is published to.
type NATSTransport struct {
	conn *nats.Conn
}

// NewNATSTransport wraps an already-connected *nats.Conn.
func NewNATSTransport(conn *nats.Conn) *NATSTransport {
	return &NATSTransport{conn: conn}
}

func encode(msg domain.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("transport: marshalling %T: %w", msg, err)
	}
	return json.Marshal(envelope{Type: msg.Type(), Payload: payload})
}

// SendUnicast publishes msg to the given subject.
func (t *NATSTransport) SendUnicast(endpoint Endpoint, msg domain.Message) error {
	data, err := encode(msg)
	if err != nil {
		return err
	}
	return t.conn.Publish(string(endpoint), data)
}

// SendBroadcast publishes msg to the given subject. The fabric is
// responsible for iterating subscriber subjects in shuffled order;
// NATS itself is not asked to fan out.
func (t *NATSTransport) SendBroadcast(endpoint Endpoint, msg domain.Message) error {
	data, err := encode(msg)
	if err != nil {
		return err
	}
	return t.conn.Publish(string(endpoint), data)
}

// Decode unwraps an inbound envelope into one of the agent-originated
// message types the matching engine accepts. Used by the exchange's
// inbound NATS subscription to turn wire bytes back into a domain.Message.
func Decode(data []byte) (domain.Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("transport: unmarshalling envelope: %w", err)
	}

	var msg domain.Message
	switch env.Type {
	case domain.MessageSubscribe:
		var m domain.SubscribeMessage
		msg = &m
	case domain.MessageLimitOrder:
		var m domain.LimitOrderMessage
		msg = &m
	case domain.MessageMarketOrder:
		var m domain.MarketOrderMessage
		msg = &m
	case domain.MessageCancelOrder:
		var m domain.CancelOrderMessage
		msg = &m
	default:
		return nil, fmt.Errorf("transport: unrecognized inbound message type %q", env.Type)
	}

	if err := json.Unmarshal(env.Payload, msg); err != nil {
		return nil, fmt.Errorf("transport: unmarshalling %T payload: %w", msg, err)
	}
	return derefMessage(msg), nil
}

// derefMessage converts a *T message (needed so json.Unmarshal can address
// it) back into the value type the engine's type switch matches on.
func derefMessage(msg domain.Message) domain.Message {
	switch m := msg.(type) {
	case *domain.SubscribeMessage:
		return *m
	case *domain.LimitOrderMessage:
		return *m
	case *domain.MarketOrderMessage:
		return *m
	case *domain.CancelOrderMessage:
		return *m
	default:
		return msg
	}
}
