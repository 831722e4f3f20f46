// Package transport defines the wire boundary the exchange core sends
// through: two primitives, unicast and broadcast, both addressed by an
// opaque Endpoint. Message framing is the transport's concern, not the
// core's.
package transport

import "github.com/ansshameed/dsxe-exchange-go/internal/domain"

// Endpoint identifies where a message should be delivered. Its meaning is
// transport-specific (a NATS subject, a host:port, ...); the exchange
// core only ever stores and forwards it.
type Endpoint string

// Transport is the external interface the exchange core consumes to
// deliver execution reports, market data, and session events. Both
// methods are expected to be non-blocking from the caller's perspective
// (the matching engine's goroutine must never stall on a slow peer).
type Transport interface {
	// SendUnicast delivers msg to a single endpoint — used for execution
	// reports and cancel rejects addressed to one originator.
	SendUnicast(endpoint Endpoint, msg domain.Message) error

	// SendBroadcast delivers msg to a single endpoint as part of a larger
	// fan-out — used for market-data and session-event messages. The
	// fabric calls this once per subscriber, in shuffled order; the
	// transport itself has no notion of "all subscribers of a ticker".
	SendBroadcast(endpoint Endpoint, msg domain.Message) error
}
