package domain

import "github.com/shopspring/decimal"

// MessageType discriminates the wire messages the exchange core consumes
// and produces. Framing is the transport's concern; this only names the
// payload shapes.
type MessageType string

const (
	MessageSubscribe        MessageType = "SUBSCRIBE"
	MessageLimitOrder       MessageType = "LIMIT_ORDER"
	MessageMarketOrder      MessageType = "MARKET_ORDER"
	MessageCancelOrder      MessageType = "CANCEL_ORDER"
	MessageExecutionReport  MessageType = "EXECUTION_REPORT"
	MessageCancelReject     MessageType = "CANCEL_REJECT"
	MessageEvent            MessageType = "EVENT"
	MessageMarketData       MessageType = "MARKET_DATA"
	messageSessionControl   MessageType = "SESSION_CONTROL" // internal, never sent over the wire
)

// EventType enumerates the session-lifecycle broadcasts.
type EventType string

const (
	EventTradingSessionStart   EventType = "TRADING_SESSION_START"
	EventTradingSessionEnd     EventType = "TRADING_SESSION_END"
	EventTechnicalAgentsStarted EventType = "TECHNICAL_AGENTS_STARTED"
	EventOrderInjectionStart   EventType = "ORDER_INJECTION_START"
)

// Message is implemented by every payload the matching engine's inbound
// queue accepts. Type identifies the concrete struct for a type switch.
type Message interface {
	Type() MessageType
}

// SubscribeMessage requests market-data and execution-report delivery for
// a ticker.
type SubscribeMessage struct {
	SenderID         string
	Ticker           string
	CallbackEndpoint string
	AgentName        string
}

func (SubscribeMessage) Type() MessageType { return MessageSubscribe }

// LimitOrderMessage submits a priced order.
type LimitOrderMessage struct {
	SenderID      string
	ClientOrderID string
	Ticker        string
	Side          Side
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	PrivValue     decimal.Decimal
	TimeInForce   TimeInForce
	AgentName     string
}

func (LimitOrderMessage) Type() MessageType { return MessageLimitOrder }

// MarketOrderMessage submits an unpriced, immediate-or-cancel order.
type MarketOrderMessage struct {
	SenderID  string
	Ticker    string
	Side      Side
	Quantity  decimal.Decimal
	PrivValue decimal.Decimal
	AgentName string
}

func (MarketOrderMessage) Type() MessageType { return MessageMarketOrder }

// CancelOrderMessage requests removal of a resting order.
type CancelOrderMessage struct {
	SenderID string
	OrderID  int64
	Ticker   string
	Side     Side
}

func (CancelOrderMessage) Type() MessageType { return MessageCancelOrder }

// ExecutionReportMessage reports the current state of an order; Trade is
// non-nil iff this report represents a fill.
type ExecutionReportMessage struct {
	Order *Order
	Trade *Trade
}

func (ExecutionReportMessage) Type() MessageType { return MessageExecutionReport }

// CancelRejectMessage is returned when a cancel targets an order the book
// no longer holds.
type CancelRejectMessage struct {
	OrderID int64
}

func (CancelRejectMessage) Type() MessageType { return MessageCancelReject }

// EventMessage carries a session-lifecycle broadcast.
type EventMessage struct {
	EventType EventType
}

func (EventMessage) Type() MessageType { return MessageEvent }

// MarketDataMessage wraps one derived snapshot for broadcast.
type MarketDataMessage struct {
	Data MarketData
}

func (MarketDataMessage) Type() MessageType { return MessageMarketData }

// sessionControlMessage is how the session controller hands the matching
// engine a state transition to act on (set state, broadcast, schedule).
// It never crosses the wire — only SubscribeMessage and the order/cancel
// messages above originate from agents.
type sessionControlMessage struct {
	setState    SessionState
	sessionStart int64 // monotonic ns, set on the TRADING_OPEN transition
	broadcast   *EventType
}

func (sessionControlMessage) Type() MessageType { return messageSessionControl }

// NewSessionControlMessage builds the internal control message the session
// controller enqueues on the engine's inbox.
func NewSessionControlMessage(state SessionState, sessionStart int64, broadcast *EventType) Message {
	return sessionControlMessage{setState: state, sessionStart: sessionStart, broadcast: broadcast}
}

// SessionControlPayload exposes a sessionControlMessage's fields to the
// package that must act on it (internal/matching), without making the
// constructor's internals public.
func SessionControlPayload(msg Message) (state SessionState, sessionStart int64, broadcast *EventType, ok bool) {
	scm, ok := msg.(sessionControlMessage)
	if !ok {
		return 0, 0, nil, false
	}
	return scm.setState, scm.sessionStart, scm.broadcast, true
}

// SessionState enumerates the exchange's trading-window lifecycle.
type SessionState int32

const (
	SessionPreConnect SessionState = iota
	SessionConnectWindow
	SessionTradingOpen
	SessionTradingClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionPreConnect:
		return "PRE_CONNECT"
	case SessionConnectWindow:
		return "CONNECT_WINDOW"
	case SessionTradingOpen:
		return "TRADING_OPEN"
	case SessionTradingClosed:
		return "TRADING_CLOSED"
	default:
		return "UNKNOWN"
	}
}
