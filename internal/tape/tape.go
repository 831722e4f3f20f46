// Package tape implements the per-ticker trade tape: an append-only
// record of executions, plus the bounded in-memory window the exchange
// derives its equilibrium-price and volatility statistics from.
package tape

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

// windowSize bounds the in-memory trade history kept for p* and Smith's
// alpha. 0.9^150 is negligible, so trades older than that contribute
// nothing measurable to either statistic.
const windowSize = 150

// rollingLookback is the number of most recent trades the high/low
// watermarks are computed over.
const rollingLookback = 20

// decayFactor is the per-step weight decay applied to older trades when
// computing the equilibrium price p*.
var decayFactor = decimal.NewFromFloat(0.9)

// Tape is one ticker's trade history. It is not safe for concurrent use —
// only the matching engine's goroutine mutates it.
type Tape struct {
	ticker string
	window []*domain.Trade // newest at the end, bounded to windowSize
	count  int64
	volume decimal.Decimal

	lastTrade     *domain.Trade
	lastTradeAt   int64 // monotonic ns
	sessionStart  int64
	prevCumVolume decimal.Decimal
}

// New creates an empty trade tape for the given ticker.
func New(ticker string) *Tape {
	return &Tape{ticker: ticker}
}

// Append records a new trade. Trades are never mutated once appended.
func (t *Tape) Append(trade *domain.Trade) {
	t.window = append(t.window, trade)
	if len(t.window) > windowSize {
		t.window = t.window[len(t.window)-windowSize:]
	}
	t.count++
	t.volume = t.volume.Add(trade.Quantity)
	t.lastTrade = trade
	t.lastTradeAt = trade.Timestamp
}

// Count returns the number of trades ever appended.
func (t *Tape) Count() int64 { return t.count }

// CumulativeVolume returns the running sum of traded quantity.
func (t *Tape) CumulativeVolume() decimal.Decimal { return t.volume }

// VolumePerTick returns the quantity traded since the previous call to
// this method — the first call returns the full cumulative volume, per
// the reference implementation's "first tick takes full volume" rule.
func (t *Tape) VolumePerTick() decimal.Decimal {
	delta := t.volume.Sub(t.prevCumVolume)
	if delta.IsNegative() {
		delta = decimal.Zero
	}
	t.prevCumVolume = t.volume
	return delta
}

// LastTrade returns the most recent trade, or nil if the tape is empty.
func (t *Tape) LastTrade() *domain.Trade {
	return t.lastTrade
}

// TimeSincePrevTrade returns the nanosecond gap between the given
// timestamp and the previous trade on this ticker, or 0 if there was none.
func (t *Tape) TimeSincePrevTrade(now int64) int64 {
	if t.lastTrade == nil {
		return 0
	}
	return now - t.lastTradeAt
}

// HighLow returns the max/min trade price over the most recent
// rollingLookback trades. Both are nil if no trades have occurred.
func (t *Tape) HighLow() (high, low *decimal.Decimal) {
	if len(t.window) == 0 {
		return nil, nil
	}
	start := 0
	if len(t.window) > rollingLookback {
		start = len(t.window) - rollingLookback
	}
	h := t.window[start].Price
	l := t.window[start].Price
	for _, tr := range t.window[start:] {
		if tr.Price.GreaterThan(h) {
			h = tr.Price
		}
		if tr.Price.LessThan(l) {
			l = tr.Price
		}
	}
	return &h, &l
}

// PEquilibrium returns the exponentially weighted average of recent trade
// prices (weight 0.9^i, i=0 for the newest), or zero if no trades have
// occurred.
func (t *Tape) PEquilibrium() decimal.Decimal {
	if len(t.window) == 0 {
		return decimal.Zero
	}

	weightedSum := decimal.Zero
	weightSum := decimal.Zero
	weight := decimal.NewFromInt(1)

	// Iterate newest-first so weight i=0 lands on the most recent trade.
	for i := len(t.window) - 1; i >= 0; i-- {
		weightedSum = weightedSum.Add(t.window[i].Price.Mul(weight))
		weightSum = weightSum.Add(weight)
		weight = weight.Mul(decayFactor)
	}

	return weightedSum.Div(weightSum)
}

// SmithsAlpha is the RMS deviation of the tape's trade prices from p*, a
// common volatility proxy for continuous double auctions.
func (t *Tape) SmithsAlpha() decimal.Decimal {
	if len(t.window) == 0 {
		return decimal.Zero
	}

	pEq, _ := t.PEquilibrium().Float64()
	sumSquares := 0.0
	for _, tr := range t.window {
		price, _ := tr.Price.Float64()
		diff := price - pEq
		sumSquares += diff * diff
	}
	alpha := math.Sqrt(sumSquares / float64(len(t.window)))
	return decimal.NewFromFloat(alpha)
}
