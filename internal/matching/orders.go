package matching

import (
	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/subscription"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

func (e *Engine) onSubscribe(msg domain.SubscribeMessage) {
	if _, ok := e.books[msg.Ticker]; !ok {
		e.log.Warn().Str("ticker", msg.Ticker).Msg("matching: subscribe for unknown ticker")
		return
	}

	e.nameBySender[msg.SenderID] = msg.AgentName

	if err := e.fabric.Register(msg.Ticker, subscriberFor(msg)); err != nil {
		e.log.Warn().Err(err).Str("ticker", msg.Ticker).Msg("matching: subscribe registration failed")
		return
	}

	if e.OnSubscriberRegistered != nil {
		e.OnSubscriberRegistered(msg.Ticker, msg.SenderID)
	}

	// A late joiner who subscribes after trading has opened is told
	// directly, rather than waiting for the next broadcast.
	if e.state == domain.SessionTradingOpen {
		ep, ok := e.fabric.EndpointOf(msg.Ticker, msg.SenderID)
		if ok {
			e.fabric.Unicast(ep, domain.EventMessage{EventType: domain.EventTradingSessionStart})
		}
	}
}

func (e *Engine) onLimitOrder(msg domain.LimitOrderMessage) {
	if msg.Quantity.IsZero() || msg.Quantity.IsNegative() {
		e.rejectLimitOrder(msg)
		return
	}

	order := &domain.Order{
		ID:            e.nextID(),
		ClientOrderID: msg.ClientOrderID,
		SubmitterID:   msg.SenderID,
		SubmitterName: msg.AgentName,
		Ticker:        msg.Ticker,
		Side:          msg.Side,
		Original:      msg.Quantity,
		Remaining:     msg.Quantity,
		Price:         priceOf(msg.Price),
		PrivValue:     msg.PrivValue,
		TimeInForce:   msg.TimeInForce,
		Status:        domain.StatusNew,
		SubmittedAt:   e.elapsed(),
	}

	if e.crossesSpread(order.Ticker, order.Side, *order.Price) {
		if order.TimeInForce == domain.FOK {
			e.matchOrderInFull(order)
		} else {
			e.matchOrder(order)
		}
		return
	}

	if order.TimeInForce != domain.GTC {
		// IOC/FOK orders that never cross produce no fills and never rest.
		e.cancelOrder(order)
		return
	}

	b := e.books[order.Ticker]
	b.Add(order)
	e.sendReport(order.Ticker, order.SubmitterID, order, nil)
	e.publishMarketData(order.Ticker, order.Side)
}

func (e *Engine) onMarketOrder(msg domain.MarketOrderMessage) {
	if msg.Quantity.IsZero() || msg.Quantity.IsNegative() {
		e.rejectMarketOrder(msg)
		return
	}

	order := &domain.Order{
		ID:            e.nextID(),
		SubmitterID:   msg.SenderID,
		SubmitterName: msg.AgentName,
		Ticker:        msg.Ticker,
		Side:          msg.Side,
		Original:      msg.Quantity,
		Remaining:     msg.Quantity,
		PrivValue:     msg.PrivValue,
		TimeInForce:   domain.IOC,
		Status:        domain.StatusNew,
		SubmittedAt:   e.elapsed(),
	}

	b := e.books[order.Ticker]
	opposite := order.Side.Opposite()

	for !order.IsFilled() {
		resting, ok := b.PopBest(opposite)
		if !ok {
			break
		}
		e.executeTrade(resting, order)
	}

	if !order.IsFilled() {
		e.cancelOrder(order)
	}
}

func (e *Engine) onCancelOrder(msg domain.CancelOrderMessage) {
	b, ok := e.books[msg.Ticker]
	if !ok {
		e.log.Warn().Str("ticker", msg.Ticker).Msg("matching: cancel for unknown ticker")
		return
	}

	order, ok := b.Remove(msg.OrderID)
	if !ok {
		e.log.Debug().Err(domain.ErrCancelMiss).Int64("order_id", msg.OrderID).Msg("matching: cancel target not resting")
		e.fabric.Unicast(e.endpointFor(msg.Ticker, msg.SenderID), domain.CancelRejectMessage{OrderID: msg.OrderID})
		return
	}
	e.cancelOrder(order)
}

// crossesSpread reports whether a limit order at price would execute
// immediately against the opposite side's top of book.
func (e *Engine) crossesSpread(ticker string, side domain.Side, price decimal.Decimal) bool {
	b := e.books[ticker]
	if side == domain.Bid {
		best, ok := b.Best(domain.Ask)
		return ok && price.GreaterThanOrEqual(*best.Price)
	}
	best, ok := b.Best(domain.Bid)
	return ok && price.LessThanOrEqual(*best.Price)
}

// matchOrder implements non-FOK matching: walk the opposite top of book,
// executing trades at the resting order's price, until the aggressor is
// filled or no longer crosses. The residual is then rested (GTC) or
// cancelled (IOC).
func (e *Engine) matchOrder(order *domain.Order) {
	b := e.books[order.Ticker]
	opposite := order.Side.Opposite()

	for !order.IsFilled() {
		resting, ok := b.Best(opposite)
		if !ok {
			break
		}
		if order.Side == domain.Bid {
			if order.Price.LessThan(*resting.Price) {
				break
			}
		} else {
			if order.Price.GreaterThan(*resting.Price) {
				break
			}
		}

		resting, _ = b.PopBest(opposite)
		e.executeTrade(resting, order)
	}

	if !order.IsFilled() {
		if order.TimeInForce == domain.GTC {
			b.Add(order)
		} else {
			e.cancelOrder(order)
		}
	}
}

// matchOrderInFull implements FOK matching: peek the opposite side without
// committing, accumulating into a stack, until the full quantity is
// coverable or the walk is exhausted. If coverable, the walk is replayed
// as real executions; otherwise every popped order is restored and the
// aggressor is cancelled untouched.
func (e *Engine) matchOrderInFull(order *domain.Order) {
	b := e.books[order.Ticker]
	opposite := order.Side.Opposite()

	remaining := order.Remaining
	var stack []*domain.Order

	for remaining.IsPositive() {
		resting, ok := b.Best(opposite)
		if !ok {
			break
		}
		if order.Side == domain.Bid {
			if order.Price.LessThan(*resting.Price) {
				break
			}
		} else {
			if order.Price.GreaterThan(*resting.Price) {
				break
			}
		}

		popped, _ := b.PopBest(opposite)
		stack = append(stack, popped)

		take := popped.Remaining
		if take.GreaterThan(remaining) {
			take = remaining
		}
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		// Not coverable: restore every popped order (in their original
		// priority order, last popped is pushed back to the front first)
		// and cancel the aggressor untouched.
		for i := len(stack) - 1; i >= 0; i-- {
			b.PushFront(stack[i])
		}
		e.cancelOrder(order)
		return
	}

	for _, resting := range stack {
		e.executeTrade(resting, order)
	}
}

func (e *Engine) cancelOrder(order *domain.Order) {
	order.Status = domain.StatusCancelled
	e.sendReport(order.Ticker, order.SubmitterID, order, nil)
}

func (e *Engine) rejectLimitOrder(msg domain.LimitOrderMessage) {
	incReject(e.mx, "malformed_or_closed")
	e.log.Debug().Err(domain.ErrMalformedOrder).Str("ticker", msg.Ticker).Msg("matching: rejecting limit order")
	order := &domain.Order{
		ID: e.nextID(), ClientOrderID: msg.ClientOrderID, SubmitterID: msg.SenderID,
		SubmitterName: msg.AgentName, Ticker: msg.Ticker, Side: msg.Side,
		Original: msg.Quantity, Remaining: msg.Quantity, Price: priceOf(msg.Price),
		TimeInForce: msg.TimeInForce, Status: domain.StatusRejected, SubmittedAt: e.elapsed(),
	}
	e.sendReport(msg.Ticker, msg.SenderID, order, nil)
}

func (e *Engine) rejectMarketOrder(msg domain.MarketOrderMessage) {
	incReject(e.mx, "malformed_or_closed")
	e.log.Debug().Err(domain.ErrMalformedOrder).Str("ticker", msg.Ticker).Msg("matching: rejecting market order")
	order := &domain.Order{
		ID: e.nextID(), SubmitterID: msg.SenderID, SubmitterName: msg.AgentName,
		Ticker: msg.Ticker, Side: msg.Side, Original: msg.Quantity, Remaining: msg.Quantity,
		TimeInForce: domain.IOC, Status: domain.StatusRejected, SubmittedAt: e.elapsed(),
	}
	e.sendReport(msg.Ticker, msg.SenderID, order, nil)
}

func (e *Engine) rejectCancel(msg domain.CancelOrderMessage) {
	incReject(e.mx, "malformed_or_closed")
	e.fabric.Unicast(e.endpointFor(msg.Ticker, msg.SenderID), domain.CancelRejectMessage{OrderID: msg.OrderID})
}

func priceOf(p decimal.Decimal) *decimal.Decimal {
	cp := p
	return &cp
}

func subscriberFor(msg domain.SubscribeMessage) subscription.Subscriber {
	return subscription.Subscriber{ID: msg.SenderID, Endpoint: transport.Endpoint(msg.CallbackEndpoint), Name: msg.AgentName}
}
