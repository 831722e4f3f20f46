// Package matching implements the exchange's single-consumer matching
// engine: it owns every order book and trade tape, interprets inbound
// order/cancel/subscribe messages, applies the matching rules, and
// drives the subscription fabric and Tape Sink as a side effect of
// processing each message.
package matching

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/v2/maps/treemap"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/tomb.v2"

	"github.com/ansshameed/dsxe-exchange-go/internal/book"
	"github.com/ansshameed/dsxe-exchange-go/internal/csvsink"
	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/metrics"
	"github.com/ansshameed/dsxe-exchange-go/internal/subscription"
	"github.com/ansshameed/dsxe-exchange-go/internal/tape"
)

// inboxCapacity bounds the matching engine's inbound FIFO. A full inbox
// applies backpressure to Submit rather than growing unbounded.
const inboxCapacity = 4096

// Engine is the exchange's single-consumer matching engine. Every method
// that touches books, tapes, profits, or subscriber state is expected to
// run on the single goroutine started by Run (or, in tests, to be called
// directly in series) — there is no internal locking.
type Engine struct {
	books map[string]*book.Book
	tapes map[string]*tape.Tape

	fabric *subscription.Fabric
	sink   *csvsink.Sink
	log    zerolog.Logger
	mx     *metrics.Metrics

	inbox  chan domain.Message
	closed atomic.Bool

	nextOrderID int64

	state        domain.SessionState
	sessionStart time.Time
	lastTradeAt  map[string]time.Time

	profitsByName map[string]decimal.Decimal
	nameBySender  map[string]string

	// OnSubscriberRegistered, if set, is invoked synchronously after a
	// subscribe message successfully registers a new subscriber — the
	// session controller uses this to reset its connect-phase idle timer.
	OnSubscriberRegistered func(ticker, subscriberID string)

	now func() time.Time // overridable clock, for deterministic tests
}

// New creates an Engine with empty books/tapes for every ticker in
// tickers. The fabric must already know about the same tickers (callers
// typically construct the Fabric and Engine from the same ticker list).
func New(tickers []string, fabric *subscription.Fabric, sink *csvsink.Sink, mx *metrics.Metrics, log zerolog.Logger) *Engine {
	e := &Engine{
		books:         make(map[string]*book.Book, len(tickers)),
		tapes:         make(map[string]*tape.Tape, len(tickers)),
		fabric:        fabric,
		sink:          sink,
		mx:            mx,
		log:           log,
		inbox:         make(chan domain.Message, inboxCapacity),
		state:         domain.SessionPreConnect,
		lastTradeAt:   make(map[string]time.Time),
		profitsByName: make(map[string]decimal.Decimal),
		nameBySender:  make(map[string]string),
		now:           time.Now,
	}
	for _, t := range tickers {
		e.books[t] = book.New(t)
		e.tapes[t] = tape.New(t)
	}
	return e
}

// State reports the engine's current session state.
func (e *Engine) State() domain.SessionState { return e.state }

// QueueDepth reports how many messages are currently waiting in the
// inbox, for metrics and diagnostics.
func (e *Engine) QueueDepth() int { return len(e.inbox) }

// Submit enqueues a message for the matching engine's goroutine to
// process. Returns an error once the inbox has been closed (post
// TRADING_CLOSED drain has completed).
func (e *Engine) Submit(msg domain.Message) error {
	if e.closed.Load() {
		return fmt.Errorf("matching: engine is no longer accepting messages")
	}
	e.inbox <- msg
	return nil
}

// CloseInbox stops accepting new messages; Run drains whatever is still
// queued before returning. Called by the session controller at the
// TRADING_OPEN -> TRADING_CLOSED transition.
func (e *Engine) CloseInbox() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.inbox)
	}
}

// Run drains the inbox until it is closed and empty, processing each
// message in turn. Intended to be the engine's sole goroutine — start it
// with a tomb so callers can await completion.
func (e *Engine) Run(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return tomb.ErrDying
		case msg, ok := <-e.inbox:
			if !ok {
				return nil
			}
			if e.mx != nil {
				e.mx.QueueDepth.Set(float64(len(e.inbox)))
				e.mx.MessagesProcessed.WithLabelValues(string(msg.Type())).Inc()
			}
			e.Process(msg)
		}
	}
}

// Process applies one inbound message to the engine's state. It is the
// engine's synchronous, directly-testable core; Run is a thin loop around
// it for production use.
func (e *Engine) Process(msg domain.Message) {
	if state, sessionStart, broadcast, ok := domain.SessionControlPayload(msg); ok {
		e.applySessionControl(state, sessionStart, broadcast)
		return
	}

	switch m := msg.(type) {
	case domain.SubscribeMessage:
		e.onSubscribe(m)
	case domain.LimitOrderMessage:
		e.withAdmission(m.Ticker, func() { e.onLimitOrder(m) }, func() { e.rejectLimitOrder(m) })
		e.audit(domain.MessageLimitOrder, m.Ticker, 0, m.Side)
	case domain.MarketOrderMessage:
		e.withAdmission(m.Ticker, func() { e.onMarketOrder(m) }, func() { e.rejectMarketOrder(m) })
		e.audit(domain.MessageMarketOrder, m.Ticker, 0, m.Side)
	case domain.CancelOrderMessage:
		e.withAdmission(m.Ticker, func() { e.onCancelOrder(m) }, func() { e.rejectCancel(m) })
		e.audit(domain.MessageCancelOrder, m.Ticker, m.OrderID, m.Side)
	default:
		e.log.Warn().Str("type", string(msg.Type())).Msg("matching: unrecognized message type")
	}
}

// withAdmission gates order/cancel processing on the session state, per
// spec.md §7: messages before TRADING_OPEN are dropped silently, messages
// after TRADING_CLOSED are drained but refused via reject.
func (e *Engine) withAdmission(ticker string, accept, reject func()) {
	switch e.state {
	case domain.SessionTradingOpen:
		if _, ok := e.books[ticker]; !ok {
			incReject(e.mx, "unknown_ticker")
			e.log.Warn().Err(domain.ErrUnknownTicker).Str("ticker", ticker).Msg("matching: dropping message for unknown ticker")
			return
		}
		accept()
	case domain.SessionTradingClosed:
		incReject(e.mx, "session_closed")
		e.log.Warn().Err(domain.ErrSessionClosed).Str("ticker", ticker).Msg("matching: rejecting message after close")
		reject()
	default:
		incReject(e.mx, "session_not_open")
		e.log.Debug().Err(domain.ErrSessionClosed).Str("ticker", ticker).Msg("matching: dropping message before trading opens")
	}
}

// incReject is a nil-safe convenience so Engine can be used without a
// Metrics bundle (e.g. in package-internal tests).
func incReject(mx *metrics.Metrics, reason string) {
	if mx == nil {
		return
	}
	mx.Rejects.WithLabelValues(reason).Inc()
}

func (e *Engine) nextID() int64 {
	return atomic.AddInt64(&e.nextOrderID, 1)
}

func newTradeID() string { return uuid.NewString() }

func (e *Engine) audit(msgType domain.MessageType, ticker string, orderID int64, side domain.Side) {
	if e.sink == nil {
		return
	}
	if err := e.sink.WriteMessage(msgType, ticker, orderID, side, e.elapsed()); err != nil {
		e.log.Warn().Err(err).Msg("matching: failed to write message audit row")
	}
}

func (e *Engine) elapsed() int64 {
	if e.sessionStart.IsZero() {
		return 0
	}
	return time.Since(e.sessionStart).Nanoseconds()
}

// profitKey orders the profits ranking by profit descending, breaking ties
// by display name so the ranking is deterministic across runs.
type profitKey struct {
	Profit decimal.Decimal
	Name   string
}

func profitKeyLess(a, b profitKey) int {
	if c := b.Profit.Cmp(a.Profit); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// ProfitSnapshots returns the session's per-agent profit ranking, highest
// first. Called once, after the inbox has fully drained.
func (e *Engine) ProfitSnapshots() []domain.ProfitSnapshot {
	ranked := treemap.NewWith[profitKey, struct{}](profitKeyLess)
	for name, profit := range e.profitsByName {
		ranked.Put(profitKey{Profit: profit, Name: name}, struct{}{})
	}

	keys := ranked.Keys()
	out := make([]domain.ProfitSnapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.ProfitSnapshot{AgentName: k.Name, Profit: k.Profit})
	}
	return out
}
