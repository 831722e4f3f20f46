// Package book implements the per-ticker price-time-priority order book.
// Each side is an ordered map from price to a FIFO queue of resting
// orders (github.com/tidwall/btree for the ordered map, container/list for
// the FIFO), giving O(log N) insertion and best-of-book removal without
// the parallel size-tracking map the reference implementation mixes into
// its priority queue.
package book

import (
	"container/list"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

type location struct {
	side  domain.Side
	level *level
	elem  *list.Element
}

func bidLess(a, b *level) bool { return a.price.GreaterThan(b.price) }
func askLess(a, b *level) bool { return a.price.LessThan(b.price) }

// Book is one ticker's order book. It is not safe for concurrent use —
// per the exchange's single-writer discipline, only the matching engine's
// goroutine ever calls these methods.
type Book struct {
	Ticker string

	bids *btree.BTreeG[*level]
	asks *btree.BTreeG[*level]

	locations map[int64]*location

	bidVolume decimal.Decimal
	askVolume decimal.Decimal
	bidCount  int
	askCount  int
}

// New creates an empty order book for the given ticker.
func New(ticker string) *Book {
	return &Book{
		Ticker:    ticker,
		bids:      btree.NewBTreeG[*level](bidLess),
		asks:      btree.NewBTreeG[*level](askLess),
		locations: make(map[int64]*location),
	}
}

func (b *Book) treeFor(side domain.Side) *btree.BTreeG[*level] {
	if side == domain.Bid {
		return b.bids
	}
	return b.asks
}

func (b *Book) addVolume(side domain.Side, delta decimal.Decimal) {
	if side == domain.Bid {
		b.bidVolume = b.bidVolume.Add(delta)
	} else {
		b.askVolume = b.askVolume.Add(delta)
	}
}

// Add rests a limit order on the book. The order must have a non-nil Price.
func (b *Book) Add(o *domain.Order) {
	b.insert(o, false)
}

// PushFront restores a partially-filled resting order to the head of its
// price level, preserving the priority it had before it was popped to
// match against an aggressor.
func (b *Book) PushFront(o *domain.Order) {
	b.insert(o, true)
}

func (b *Book) insert(o *domain.Order, front bool) {
	if o.Price == nil {
		panic("book: cannot rest an order with no price")
	}
	tree := b.treeFor(o.Side)
	key := &level{price: *o.Price}
	lvl, ok := tree.Get(key)
	if !ok {
		lvl = newLevel(*o.Price)
		tree.Set(lvl)
	}

	var elem *list.Element
	if front {
		elem = lvl.pushFront(o)
	} else {
		elem = lvl.pushBack(o)
	}

	b.addVolume(o.Side, o.Remaining)
	if o.Side == domain.Bid {
		b.bidCount++
	} else {
		b.askCount++
	}
	b.locations[o.ID] = &location{side: o.Side, level: lvl, elem: elem}
}

// Remove takes the order with the given id off the book, wherever it sits
// in its price level. Reports false if the id is not resting.
func (b *Book) Remove(id int64) (*domain.Order, bool) {
	loc, ok := b.locations[id]
	if !ok {
		return nil, false
	}
	o := loc.level.remove(loc.elem)
	b.finishRemoval(o, loc)
	return o, true
}

func (b *Book) finishRemoval(o *domain.Order, loc *location) {
	b.addVolume(loc.side, o.Remaining.Neg())
	if loc.side == domain.Bid {
		b.bidCount--
	} else {
		b.askCount--
	}
	delete(b.locations, o.ID)
	if loc.level.empty() {
		b.treeFor(loc.side).Delete(loc.level)
	}
}

// Best peeks the highest-priority resting order on the given side without
// removing it.
func (b *Book) Best(side domain.Side) (*domain.Order, bool) {
	lvl, ok := b.treeFor(side).Min()
	if !ok {
		return nil, false
	}
	o, _ := lvl.front()
	return o, o != nil
}

// PopBest removes and returns the highest-priority resting order on the
// given side.
func (b *Book) PopBest(side domain.Side) (*domain.Order, bool) {
	tree := b.treeFor(side)
	lvl, ok := tree.Min()
	if !ok {
		return nil, false
	}
	o, elem := lvl.front()
	if o == nil {
		return nil, false
	}
	lvl.remove(elem)
	loc := &location{side: side, level: lvl}
	b.finishRemoval(o, loc)
	return o, true
}

// Contains reports whether the given order id is currently resting.
func (b *Book) Contains(id int64) bool {
	_, ok := b.locations[id]
	return ok
}

// TopSize returns the aggregate remaining quantity at the best price on
// the given side, or zero if that side is empty.
func (b *Book) TopSize(side domain.Side) decimal.Decimal {
	lvl, ok := b.treeFor(side).Min()
	if !ok {
		return decimal.Zero
	}
	return lvl.size
}

// Totals reports per-side resting volume and order counts.
func (b *Book) Totals() (bidVolume, askVolume decimal.Decimal, bidCount, askCount int) {
	return b.bidVolume, b.askVolume, b.bidCount, b.askCount
}

// Snapshot derives the book-side fields of a market-data record (best
// bid/ask, sizes, volumes, counts, mid/micro/spread/imbalance). Trade-tape
// fields (last trade, high/low, p*, Smith's alpha, timestamps) are filled
// in by the caller, which owns the tape.
func (b *Book) Snapshot(aggressingSide domain.Side) domain.MarketData {
	data := domain.MarketData{
		Ticker:         b.Ticker,
		AggressingSide: aggressingSide,
	}

	bestBid, hasBid := b.Best(domain.Bid)
	bestAsk, hasAsk := b.Best(domain.Ask)

	data.BidVolume, data.AskVolume, data.BidCount, data.AskCount = b.Totals()

	if hasBid {
		p := *bestBid.Price
		data.BestBid = &p
		data.BestBidSize = b.TopSize(domain.Bid)
	}
	if hasAsk {
		p := *bestAsk.Price
		data.BestAsk = &p
		data.BestAskSize = b.TopSize(domain.Ask)
	}

	totalVol := data.BidVolume.Add(data.AskVolume)
	if totalVol.IsPositive() {
		data.Imbalance = data.BidVolume.Sub(data.AskVolume).Div(totalVol)
	}

	if hasBid && hasAsk {
		mid := bestBid.Price.Add(*bestAsk.Price).Div(decimal.NewFromInt(2))
		data.Mid = &mid

		spread := bestAsk.Price.Sub(*bestBid.Price)
		data.Spread = &spread

		sizeSum := data.BestBidSize.Add(data.BestAskSize)
		if sizeSum.IsPositive() {
			micro := bestBid.Price.Mul(data.BestAskSize).
				Add(bestAsk.Price.Mul(data.BestBidSize)).
				Div(sizeSum)
			data.Micro = &micro
		}
	}

	return data
}
