package csvsink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

func readRows(t *testing.T, dir string) [][]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir %s: %v", dir, err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file in %s, found %d", dir, len(entries))
	}

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("opening %s: %v", entries[0].Name(), err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	return rows
}

func TestAddTickerCreatesFourFiles(t *testing.T) {
	base := t.TempDir()
	sink := New(base, "TESTEX")

	if err := sink.AddTicker("BTC-USD"); err != nil {
		t.Fatalf("AddTicker: %v", err)
	}
	defer sink.Close()

	for _, dir := range []string{"trades", "market_data", "lob_snapshots", "profits"} {
		entries, err := os.ReadDir(filepath.Join(base, dir))
		if err != nil {
			t.Fatalf("expected %s directory to exist: %v", dir, err)
		}
		if len(entries) != 1 {
			t.Errorf("expected one file under %s, got %d", dir, len(entries))
		}
	}
}

func TestWriteTradeAppendsRow(t *testing.T) {
	base := t.TempDir()
	sink := New(base, "TESTEX")
	if err := sink.AddTicker("BTC-USD"); err != nil {
		t.Fatalf("AddTicker: %v", err)
	}

	trade := &domain.Trade{
		ID: "t1", Ticker: "BTC-USD",
		Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(5),
		AggressingOrderID: 1, RestingOrderID: 2,
		BuyerName: "alice", SellerName: "bob",
		BuyerProfit: decimal.NewFromInt(3), SellerProfit: decimal.NewFromInt(2),
		Timestamp: 42,
	}
	if err := sink.WriteTrade(trade); err != nil {
		t.Fatalf("WriteTrade: %v", err)
	}
	sink.Close()

	rows := readRows(t, filepath.Join(base, "trades"))
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[1][0] != "t1" || rows[1][6] != "alice" || rows[1][7] != "bob" {
		t.Errorf("unexpected trade row: %v", rows[1])
	}
}

func TestWriteTradeUnknownTickerErrors(t *testing.T) {
	sink := New(t.TempDir(), "TESTEX")
	err := sink.WriteTrade(&domain.Trade{Ticker: "NOPE"})
	if err == nil {
		t.Fatal("expected an error writing a trade for an unopened ticker")
	}
}

func TestWriteProfitsFansOutToEveryTicker(t *testing.T) {
	base := t.TempDir()
	sink := New(base, "TESTEX")
	if err := sink.AddTicker("BTC-USD"); err != nil {
		t.Fatalf("AddTicker BTC-USD: %v", err)
	}
	if err := sink.AddTicker("ETH-USD"); err != nil {
		t.Fatalf("AddTicker ETH-USD: %v", err)
	}

	snapshots := []domain.ProfitSnapshot{
		{AgentName: "alice", Profit: decimal.NewFromInt(10)},
		{AgentName: "bob", Profit: decimal.NewFromInt(5)},
	}
	if err := sink.WriteProfits(snapshots); err != nil {
		t.Fatalf("WriteProfits: %v", err)
	}
	sink.Close()

	entries, err := os.ReadDir(filepath.Join(base, "profits"))
	if err != nil {
		t.Fatalf("reading profits dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected one profits file per ticker, got %d", len(entries))
	}
	for _, e := range entries {
		f, err := os.Open(filepath.Join(base, "profits", e.Name()))
		if err != nil {
			t.Fatalf("opening %s: %v", e.Name(), err)
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("reading csv: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("expected header + 2 profit rows in %s, got %d", e.Name(), len(rows))
		}
	}
}

func TestWriteProfitsEmptyErrors(t *testing.T) {
	sink := New(t.TempDir(), "TESTEX")
	if err := sink.WriteProfits(nil); err == nil {
		t.Fatal("expected an error writing an empty profits set")
	}
}

func TestMessageTapeWritesRow(t *testing.T) {
	base := t.TempDir()
	sink := New(base, "TESTEX")
	if err := sink.OpenMessageTape(); err != nil {
		t.Fatalf("OpenMessageTape: %v", err)
	}

	if err := sink.WriteMessage(domain.MessageLimitOrder, "BTC-USD", 7, domain.Bid, 99); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	sink.Close()

	rows := readRows(t, filepath.Join(base, "messages"))
	if len(rows) != 2 || rows[1][0] != string(domain.MessageLimitOrder) {
		t.Errorf("unexpected message row: %v", rows)
	}
}
