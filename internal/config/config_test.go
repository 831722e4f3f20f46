package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExchangeName != "dsxe" {
		t.Errorf("expected default exchange name dsxe, got %s", cfg.ExchangeName)
	}
	if cfg.TechReady != 4*time.Second {
		t.Errorf("expected default tech-ready delay 4s, got %s", cfg.TechReady)
	}
	if cfg.IdleGrace != 5*time.Second {
		t.Errorf("expected default idle grace 5s, got %s", cfg.IdleGrace)
	}
	if len(cfg.Tickers) == 0 {
		t.Errorf("expected at least one default ticker")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exchange.yaml")
	contents := `
exchange_name: testex
tickers:
  - BTC-USD
  - ETH-USD
connect_time_seconds: 10
trading_time_seconds: 60
tech_ready_seconds: 2
idle_grace_seconds: 3
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExchangeName != "testex" {
		t.Errorf("expected exchange_name testex, got %s", cfg.ExchangeName)
	}
	if len(cfg.Tickers) != 2 {
		t.Errorf("expected 2 tickers, got %d", len(cfg.Tickers))
	}
	if cfg.ConnectTime != 10*time.Second {
		t.Errorf("expected connect time 10s, got %s", cfg.ConnectTime)
	}
	if cfg.TradingTime != 60*time.Second {
		t.Errorf("expected trading time 60s, got %s", cfg.TradingTime)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/exchange.yaml"); err == nil {
		t.Fatal("expected an error loading a nonexistent config file")
	}
}
