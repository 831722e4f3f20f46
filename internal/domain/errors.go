package domain

import "errors"

// Error kinds the exchange core surfaces, per the error-handling design:
// each is recoverable and handled by rejecting the offending message
// rather than aborting the process. Invariant violations are programming
// bugs and panic instead of returning one of these.
var (
	// ErrUnknownTicker is returned when a subscribe or order message
	// names a ticker the exchange never listed.
	ErrUnknownTicker = errors.New("exchange: unknown ticker")

	// ErrMalformedOrder is returned for non-positive quantity, a missing
	// ticker, or an unrecognized side.
	ErrMalformedOrder = errors.New("exchange: malformed order")

	// ErrCancelMiss is returned when a cancel targets an order no longer
	// resting on the book. Not fatal — the caller gets a CancelReject.
	ErrCancelMiss = errors.New("exchange: order not found for cancel")

	// ErrSessionClosed is returned for messages arriving outside the
	// trading window (before TRADING_OPEN or after TRADING_CLOSED).
	ErrSessionClosed = errors.New("exchange: session not accepting orders")
)
