package matching

import (
	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

// executeTrade consummates a match between a resting order and the
// aggressor that crossed it, at the resting order's price. It applies the
// fill to both orders, attributes profit by private valuation, appends the
// trade to the ticker's tape, and drives the execution-report, LOB
// snapshot, and market-data side effects in the order spec.md §5(c)
// requires: trade recorded, then reports, then the derived broadcast.
func (e *Engine) executeTrade(resting, aggressor *domain.Order) {
	price := *resting.Price
	qty := resting.Remaining
	if aggressor.Remaining.LessThan(qty) {
		qty = aggressor.Remaining
	}

	var buyer, seller *domain.Order
	if aggressor.Side == domain.Bid {
		buyer, seller = aggressor, resting
	} else {
		buyer, seller = resting, aggressor
	}

	buyerProfit := buyer.PrivValue.Sub(price).Mul(qty)
	sellerProfit := price.Sub(seller.PrivValue).Mul(qty)

	timestamp := e.elapsed()
	t := e.tapes[resting.Ticker]
	timeDiff := t.TimeSincePrevTrade(timestamp)

	trade := &domain.Trade{
		ID:                newTradeID(),
		Ticker:            resting.Ticker,
		Quantity:          qty,
		Price:             price,
		Timestamp:         timestamp,
		BuyerID:           buyer.SubmitterID,
		SellerID:          seller.SubmitterID,
		BuyerName:         buyer.SubmitterName,
		SellerName:        seller.SubmitterName,
		AggressingOrderID: aggressor.ID,
		RestingOrderID:    resting.ID,
		BuyerPrivValue:    buyer.PrivValue,
		SellerPrivValue:   seller.PrivValue,
		BuyerProfit:       buyerProfit,
		SellerProfit:      sellerProfit,
	}
	t.Append(trade)

	resting.ApplyFill(qty, price)
	aggressor.ApplyFill(qty, price)

	e.profitsByName[buyer.SubmitterName] = e.profitsByName[buyer.SubmitterName].Add(buyerProfit)
	e.profitsByName[seller.SubmitterName] = e.profitsByName[seller.SubmitterName].Add(sellerProfit)

	if e.sink != nil {
		if err := e.sink.WriteTrade(trade); err != nil {
			e.log.Warn().Err(err).Msg("matching: failed to write trade row")
		}
	}
	if e.mx != nil {
		e.mx.TradesExecuted.WithLabelValues(resting.Ticker).Inc()
	}

	e.sendReport(resting.Ticker, resting.SubmitterID, resting, trade)
	e.sendReport(aggressor.Ticker, aggressor.SubmitterID, aggressor, trade)

	if resting.Remaining.IsPositive() {
		e.books[resting.Ticker].PushFront(resting)
	}

	e.writeLOBSnapshot(aggressor, price, qty, timeDiff, timestamp)
	e.publishMarketData(resting.Ticker, aggressor.Side)
}

func (e *Engine) writeLOBSnapshot(aggressor *domain.Order, tradePrice, qty decimal.Decimal, timeDiff, timestamp int64) {
	if e.sink == nil {
		return
	}
	b := e.books[aggressor.Ticker]
	t := e.tapes[aggressor.Ticker]
	data := b.Snapshot(aggressor.Side)

	limitChosen := tradePrice
	if aggressor.Price != nil {
		limitChosen = *aggressor.Price
	}

	snap := domain.LOBSnapshot{
		Ticker:           aggressor.Ticker,
		AggressingSide:   aggressor.Side,
		Timestamp:        timestamp,
		TimeDiff:         timeDiff,
		BestBid:          data.BestBid,
		BestAsk:          data.BestAsk,
		MicroPrice:       data.Micro,
		MidPrice:         data.Mid,
		Imbalance:        data.Imbalance,
		Spread:           data.Spread,
		TotalVolume:      t.CumulativeVolume(),
		PEquilibrium:     t.PEquilibrium(),
		SmithsAlpha:      t.SmithsAlpha(),
		LimitPriceChosen: limitChosen,
		TradePrice:       tradePrice,
	}

	if err := e.sink.WriteLOBSnapshot(&snap); err != nil {
		e.log.Warn().Err(err).Msg("matching: failed to write LOB snapshot row")
	}
}

// publishMarketData derives a fresh snapshot of the book plus tape-derived
// statistics, writes it to the market-data tape, and broadcasts it to
// every subscriber of the ticker.
func (e *Engine) publishMarketData(ticker string, aggressingSide domain.Side) {
	b := e.books[ticker]
	t := e.tapes[ticker]

	data := b.Snapshot(aggressingSide)
	data.Timestamp = e.elapsed()
	data.TimeSincePrevTrade = t.TimeSincePrevTrade(data.Timestamp)
	data.HighPrice, data.LowPrice = t.HighLow()
	data.VolumePerTick = t.VolumePerTick()
	data.CumulativeVolume = t.CumulativeVolume()
	data.TradesCount = t.Count()
	data.PEquilibrium = t.PEquilibrium()
	data.SmithsAlpha = t.SmithsAlpha()

	if last := t.LastTrade(); last != nil {
		p := last.Price
		data.LastTradePrice = &p
		data.LastTradeQty = last.Quantity
	}

	if e.sink != nil {
		if err := e.sink.WriteMarketData(&data); err != nil {
			e.log.Warn().Err(err).Msg("matching: failed to write market data row")
		}
	}

	e.fabric.Broadcast(ticker, domain.MarketDataMessage{Data: data})
}

// sendReport unicasts an execution report for order to its submitter, if
// the submitter is currently a known subscriber of the ticker.
func (e *Engine) sendReport(ticker, submitterID string, order *domain.Order, trade *domain.Trade) {
	ep, ok := e.fabric.EndpointOf(ticker, submitterID)
	if !ok {
		e.log.Debug().Str("submitter", submitterID).Str("ticker", ticker).
			Msg("matching: execution report has no known subscriber endpoint")
		return
	}
	e.fabric.Unicast(ep, domain.ExecutionReportMessage{Order: order.Clone(), Trade: trade})
}

func (e *Engine) endpointFor(ticker, submitterID string) transport.Endpoint {
	ep, _ := e.fabric.EndpointOf(ticker, submitterID)
	return ep
}
