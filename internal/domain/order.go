// Package domain holds the wire-independent types shared by every exchange
// component: orders, trades, market data, and the messages that travel
// between agents and the exchange core.
package domain

import "github.com/shopspring/decimal"

// Side represents the direction of a resting or incoming order.
type Side string

const (
	// Bid is a buy order.
	Bid Side = "BID"
	// Ask is a sell order.
	Ask Side = "ASK"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// TimeInForce controls how an unfilled residual is handled once an order
// stops crossing the spread.
type TimeInForce string

const (
	// GTC orders rest on the book until filled or cancelled.
	GTC TimeInForce = "GTC"
	// IOC orders execute whatever they can immediately and cancel the rest.
	IOC TimeInForce = "IOC"
	// FOK orders either fill in full or produce no trades at all.
	FOK TimeInForce = "FOK"
)

// Status is the lifecycle state of an order. Transitions are monotonic:
// NEW -> PARTIALLY_FILLED -> (FILLED|CANCELLED), or NEW -> REJECTED.
type Status string

const (
	StatusNew             Status = "NEW"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCancelled       Status = "CANCELLED"
	StatusRejected        Status = "REJECTED"
)

// Order is a submitted instruction as tracked by the exchange core. Limit
// orders carry a non-nil Price; market orders leave it nil.
//
// Invariant: Original == Remaining + Cumulative at all times.
// AvgPrice is only meaningful once Cumulative > 0.
type Order struct {
	ID              int64           // assigned by the engine on acceptance, monotonic
	ClientOrderID   string          // correlation id supplied by the submitter
	SubmitterID     string          // agent id of the submitter
	SubmitterName   string          // display name of the submitter
	Ticker          string          // traded instrument
	Side            Side            // BID or ASK
	Original        decimal.Decimal // original quantity at acceptance
	Remaining       decimal.Decimal // quantity still unfilled
	Cumulative      decimal.Decimal // quantity filled so far
	AvgPrice        decimal.Decimal // volume-weighted average fill price
	Price           *decimal.Decimal // limit price; nil for market orders
	PrivValue       decimal.Decimal // private valuation, used only for profit attribution
	TimeInForce     TimeInForce
	Status          Status
	SubmittedAt     int64 // monotonic nanoseconds at acceptance
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Remaining.IsZero()
}

// IsMarket reports whether the order has no limit price.
func (o *Order) IsMarket() bool {
	return o.Price == nil
}

// ApplyFill mutates the order to reflect a fill of qty at price p, per the
// apply-fill contract in the order-book specification: the running average
// price is recomputed before the cumulative/remaining split is updated.
func (o *Order) ApplyFill(qty, price decimal.Decimal) {
	denom := o.Cumulative.Add(qty)
	if denom.IsPositive() {
		weighted := o.Cumulative.Mul(o.AvgPrice).Add(qty.Mul(price))
		o.AvgPrice = weighted.Div(denom)
	}
	o.Cumulative = o.Cumulative.Add(qty)
	o.Remaining = o.Remaining.Sub(qty)

	if o.Remaining.IsZero() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// Clone returns a shallow copy of the order, safe to hand to a goroutine
// that must not observe later mutation (e.g. an execution report in flight).
func (o *Order) Clone() *Order {
	cp := *o
	if o.Price != nil {
		p := *o.Price
		cp.Price = &p
	}
	return &cp
}
