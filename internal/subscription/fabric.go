// Package subscription implements the exchange's subscription fabric:
// per-ticker subscriber sets, and the copy-then-shuffle-then-deliver
// broadcast contract that bounds any one subscriber's latency advantage
// to a single event.
package subscription

import (
	"math/rand/v2"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

// Subscriber is one registered listener for a ticker's events.
type Subscriber struct {
	ID       string
	Endpoint transport.Endpoint
	Name     string
}

// Fabric tracks, per listed ticker, the set of subscribers, and delivers
// unicast execution reports and shuffled broadcasts through a Transport.
// Like the order book, it is mutated only by the matching engine's
// goroutine — no internal locking.
type Fabric struct {
	transport transport.Transport
	subs      map[string]map[string]Subscriber // ticker -> subscriber id -> Subscriber
	onFanout  func(n int)                       // optional metrics hook
}

// New creates a Fabric with no tickers registered. Call AddTicker for
// every tradeable instrument before accepting subscriptions.
func New(t transport.Transport) *Fabric {
	return &Fabric{
		transport: t,
		subs:      make(map[string]map[string]Subscriber),
	}
}

// OnFanout installs a callback invoked with the subscriber count after
// every broadcast, for metrics instrumentation.
func (f *Fabric) OnFanout(fn func(n int)) {
	f.onFanout = fn
}

// AddTicker registers ticker as tradeable, opening it up to subscriptions.
func (f *Fabric) AddTicker(ticker string) {
	if _, ok := f.subs[ticker]; !ok {
		f.subs[ticker] = make(map[string]Subscriber)
	}
}

// Register adds a subscriber to a ticker's set. Returns ErrUnknownTicker
// if the ticker was never listed.
func (f *Fabric) Register(ticker string, sub Subscriber) error {
	set, ok := f.subs[ticker]
	if !ok {
		return domain.ErrUnknownTicker
	}
	set[sub.ID] = sub
	return nil
}

// Subscribers returns the current subscriber set for a ticker (nil if the
// ticker is unknown). Callers that need a stable snapshot should copy.
func (f *Fabric) Subscribers(ticker string) []Subscriber {
	set, ok := f.subs[ticker]
	if !ok {
		return nil
	}
	out := make([]Subscriber, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// AllTickers returns every ticker the fabric knows about.
func (f *Fabric) AllTickers() []string {
	out := make([]string, 0, len(f.subs))
	for ticker := range f.subs {
		out = append(out, ticker)
	}
	return out
}

// Broadcast copies the ticker's subscriber set, shuffles the copy with a
// uniform random permutation, and delivers msg to each in that order.
// Delivery errors are discarded: a failed send is neither logged nor
// retried.
func (f *Fabric) Broadcast(ticker string, msg domain.Message) {
	set, ok := f.subs[ticker]
	if !ok || len(set) == 0 {
		if f.onFanout != nil {
			f.onFanout(0)
		}
		return
	}

	ordered := make([]Subscriber, 0, len(set))
	for _, s := range set {
		ordered = append(ordered, s)
	}
	rand.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})

	for _, s := range ordered {
		_ = f.transport.SendBroadcast(s.Endpoint, msg)
	}

	if f.onFanout != nil {
		f.onFanout(len(ordered))
	}
}

// Unicast delivers msg directly to a single endpoint, used for execution
// reports and cancel rejects.
func (f *Fabric) Unicast(endpoint transport.Endpoint, msg domain.Message) {
	_ = f.transport.SendUnicast(endpoint, msg)
}

// EndpointOf looks up a specific subscriber's endpoint, used to deliver a
// targeted TRADING_SESSION_START to a late joiner.
func (f *Fabric) EndpointOf(ticker, subscriberID string) (transport.Endpoint, bool) {
	set, ok := f.subs[ticker]
	if !ok {
		return "", false
	}
	s, ok := set[subscriberID]
	return s.Endpoint, ok
}
