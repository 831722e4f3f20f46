package domain

import "github.com/shopspring/decimal"

// MarketData is a derived snapshot of one ticker's book, produced after
// every event that could move the top of book. A nil pointer field means
// "unavailable" (e.g. Mid is nil when either side of the book is empty) —
// the Go equivalent of the -1 sentinel the derivation formulas use in the
// original implementation.
type MarketData struct {
	Ticker string

	BestBid     *decimal.Decimal
	BestAsk     *decimal.Decimal
	BestBidSize decimal.Decimal
	BestAskSize decimal.Decimal

	BidVolume decimal.Decimal
	AskVolume decimal.Decimal
	BidCount  int
	AskCount  int

	LastTradePrice *decimal.Decimal
	LastTradeQty   decimal.Decimal

	HighPrice *decimal.Decimal
	LowPrice  *decimal.Decimal

	VolumePerTick    decimal.Decimal
	CumulativeVolume decimal.Decimal
	TradesCount      int64

	AggressingSide Side

	Mid      *decimal.Decimal
	Micro    *decimal.Decimal
	Spread   *decimal.Decimal
	Imbalance decimal.Decimal

	Timestamp           int64 // ns since trading session start
	TimeSincePrevTrade   int64 // ns since the ticker's previous trade
	PEquilibrium        decimal.Decimal
	SmithsAlpha         decimal.Decimal
}

// LOBSnapshot is the trade-triggered record written to lob_snapshots/*.csv:
// one row per executed trade, pairing the aggressor's chosen limit price
// with the realized trade price.
type LOBSnapshot struct {
	Ticker            string
	AggressingSide    Side
	Timestamp         int64
	TimeDiff          int64
	BestBid           *decimal.Decimal
	BestAsk           *decimal.Decimal
	MicroPrice        *decimal.Decimal
	MidPrice          *decimal.Decimal
	Imbalance         decimal.Decimal
	Spread            *decimal.Decimal
	TotalVolume       decimal.Decimal
	PEquilibrium      decimal.Decimal
	SmithsAlpha       decimal.Decimal
	LimitPriceChosen  decimal.Decimal
	TradePrice        decimal.Decimal
}

// ProfitSnapshot is one row of the end-of-session profits CSV: the agent's
// realized profit, keyed by display name so reconnecting agents aggregate.
type ProfitSnapshot struct {
	AgentName string
	Profit    decimal.Decimal
}
