// Package csvsink writes the exchange's CSV artifacts: trades, market
// data, LOB snapshots, end-of-session profit rankings, and the message
// audit tape. Each ticker (and the exchange as a whole, for messages)
// gets its own timestamped file under a dedicated subdirectory, mirroring
// the directory layout the reference exchange lays down on disk.
package csvsink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

// fileWriter wraps a csv.Writer over a single open file, flushing after
// every row so a crash mid-session still leaves a readable partial file.
type fileWriter struct {
	file *os.File
	csv  *csv.Writer
}

func newFileWriter(dir, prefix, exchangeName, ticker string, timestamp time.Time, header []string) (*fileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvsink: creating directory %s: %w", dir, err)
	}

	suffix := exchangeName
	if ticker != "" {
		suffix += "_" + ticker
	}
	suffix += "_" + timestamp.Format("2006-01-02T15:04:05")

	name := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, suffix))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("csvsink: creating file %s: %w", name, err)
	}

	w := &fileWriter{file: f, csv: csv.NewWriter(f)}
	if err := w.csv.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("csvsink: writing header to %s: %w", name, err)
	}
	w.csv.Flush()
	return w, nil
}

func (w *fileWriter) writeRow(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *fileWriter) close() error {
	w.csv.Flush()
	return w.file.Close()
}

func dec(d decimal.Decimal) string { return d.String() }

func decPtr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intVal(i int) string   { return strconv.Itoa(i) }
func i64Val(i int64) string { return strconv.FormatInt(i, 10) }

var tradesHeader = []string{"trade_id", "ticker", "price", "quantity", "aggressing_order_id", "resting_order_id", "buyer_name", "seller_name", "buyer_profit", "seller_profit", "timestamp"}
var marketDataHeader = []string{"ticker", "aggressing_side", "best_bid", "best_bid_size", "best_ask", "best_ask_size", "bid_volume", "ask_volume", "bid_count", "ask_count", "mid", "micro", "spread", "imbalance", "last_trade_price", "high", "low", "p_equilibrium", "smiths_alpha", "volume_per_tick", "cumulative_volume", "timestamp"}
var lobSnapshotHeader = []string{"ticker", "aggressing_side", "best_bid", "best_ask", "mid", "micro", "spread", "imbalance", "total_volume", "p_equilibrium", "smiths_alpha", "limit_price_chosen", "trade_price", "time_diff", "timestamp"}
var profitsHeader = []string{"agent_name", "profit"}
var messagesHeader = []string{"message_type", "ticker", "order_id", "side", "timestamp"}

// Sink owns every CSV writer for one exchange instance: one trades/
// market_data/lob_snapshots/profits writer per ticker, plus a single
// exchange-wide message audit tape.
type Sink struct {
	baseDir      string
	exchangeName string

	trades      map[string]*fileWriter
	marketData  map[string]*fileWriter
	lobSnapshot map[string]*fileWriter
	profits     map[string]*fileWriter
	messages    *fileWriter
}

// New creates a Sink rooted at baseDir (an empty baseDir uses the current
// working directory). No files are created until AddTicker/OpenMessageTape
// are called.
func New(baseDir, exchangeName string) *Sink {
	return &Sink{
		baseDir:      baseDir,
		exchangeName: exchangeName,
		trades:       make(map[string]*fileWriter),
		marketData:   make(map[string]*fileWriter),
		lobSnapshot:  make(map[string]*fileWriter),
		profits:      make(map[string]*fileWriter),
	}
}

func (s *Sink) dir(name string) string {
	if s.baseDir == "" {
		return name
	}
	return filepath.Join(s.baseDir, name)
}

// AddTicker opens the four per-ticker CSV files (trades, market_data,
// lob_snapshots, profits) for a newly listed ticker.
func (s *Sink) AddTicker(ticker string) error {
	now := time.Now()

	tw, err := newFileWriter(s.dir("trades"), "trades", s.exchangeName, ticker, now, tradesHeader)
	if err != nil {
		return err
	}
	mw, err := newFileWriter(s.dir("market_data"), "data", s.exchangeName, ticker, now, marketDataHeader)
	if err != nil {
		return err
	}
	lw, err := newFileWriter(s.dir("lob_snapshots"), "lob_snapshot", s.exchangeName, ticker, now, lobSnapshotHeader)
	if err != nil {
		return err
	}
	pw, err := newFileWriter(s.dir("profits"), "profits_snapshot", s.exchangeName, ticker, now, profitsHeader)
	if err != nil {
		return err
	}

	s.trades[ticker] = tw
	s.marketData[ticker] = mw
	s.lobSnapshot[ticker] = lw
	s.profits[ticker] = pw
	return nil
}

// OpenMessageTape opens the single exchange-wide message audit tape.
func (s *Sink) OpenMessageTape() error {
	w, err := newFileWriter(s.dir("messages"), "msgs", s.exchangeName, "", time.Now(), messagesHeader)
	if err != nil {
		return err
	}
	s.messages = w
	return nil
}

// WriteTrade appends one row to the ticker's trades CSV.
func (s *Sink) WriteTrade(t *domain.Trade) error {
	w, ok := s.trades[t.Ticker]
	if !ok {
		return fmt.Errorf("csvsink: no trade tape open for ticker %s", t.Ticker)
	}
	return w.writeRow([]string{
		t.ID, t.Ticker, dec(t.Price), dec(t.Quantity),
		i64Val(t.AggressingOrderID), i64Val(t.RestingOrderID),
		t.BuyerName, t.SellerName, dec(t.BuyerProfit), dec(t.SellerProfit),
		i64Val(t.Timestamp),
	})
}

// WriteMarketData appends one row to the ticker's market_data CSV.
func (s *Sink) WriteMarketData(d *domain.MarketData) error {
	w, ok := s.marketData[d.Ticker]
	if !ok {
		return fmt.Errorf("csvsink: no market data feed open for ticker %s", d.Ticker)
	}
	return w.writeRow([]string{
		d.Ticker, string(d.AggressingSide),
		decPtr(d.BestBid), dec(d.BestBidSize), decPtr(d.BestAsk), dec(d.BestAskSize),
		dec(d.BidVolume), dec(d.AskVolume), intVal(d.BidCount), intVal(d.AskCount),
		decPtr(d.Mid), decPtr(d.Micro), decPtr(d.Spread), dec(d.Imbalance),
		decPtr(d.LastTradePrice), decPtr(d.HighPrice), decPtr(d.LowPrice),
		dec(d.PEquilibrium), dec(d.SmithsAlpha),
		dec(d.VolumePerTick), dec(d.CumulativeVolume),
		i64Val(d.Timestamp),
	})
}

// WriteLOBSnapshot appends one row to the ticker's lob_snapshots CSV.
func (s *Sink) WriteLOBSnapshot(l *domain.LOBSnapshot) error {
	w, ok := s.lobSnapshot[l.Ticker]
	if !ok {
		return fmt.Errorf("csvsink: no LOB snapshot tape open for ticker %s", l.Ticker)
	}
	return w.writeRow([]string{
		l.Ticker, string(l.AggressingSide),
		decPtr(l.BestBid), decPtr(l.BestAsk), decPtr(l.MidPrice), decPtr(l.MicroPrice),
		decPtr(l.Spread), dec(l.Imbalance), dec(l.TotalVolume),
		dec(l.PEquilibrium), dec(l.SmithsAlpha),
		dec(l.LimitPriceChosen), dec(l.TradePrice),
		i64Val(l.TimeDiff), i64Val(l.Timestamp),
	})
}

// WriteProfits appends the given (already ordered) profit rows to every
// ticker's profits CSV, matching the reference exchange's behavior of
// writing the same session-wide ranking to each ticker's file.
func (s *Sink) WriteProfits(snapshots []domain.ProfitSnapshot) error {
	if len(snapshots) == 0 {
		return fmt.Errorf("csvsink: no profits to write")
	}
	for ticker, w := range s.profits {
		for _, p := range snapshots {
			if err := w.writeRow([]string{p.AgentName, dec(p.Profit)}); err != nil {
				return fmt.Errorf("csvsink: writing profits for ticker %s: %w", ticker, err)
			}
		}
	}
	return nil
}

// WriteMessage appends one row to the exchange-wide message audit tape.
func (s *Sink) WriteMessage(msgType domain.MessageType, ticker string, orderID int64, side domain.Side, timestamp int64) error {
	if s.messages == nil {
		return fmt.Errorf("csvsink: message tape not open")
	}
	return s.messages.writeRow([]string{
		string(msgType), ticker, i64Val(orderID), string(side), i64Val(timestamp),
	})
}

// Close flushes and closes every open file. Errors are collected but every
// writer is still given a chance to close.
func (s *Sink) Close() error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, w := range s.trades {
		note(w.close())
	}
	for _, w := range s.marketData {
		note(w.close())
	}
	for _, w := range s.lobSnapshot {
		note(w.close())
	}
	for _, w := range s.profits {
		note(w.close())
	}
	if s.messages != nil {
		note(s.messages.close())
	}
	return firstErr
}
