// Package exchange wires the order book, trade tape, matching engine,
// session controller, subscription fabric, and transport into one runnable
// exchange instance, mirroring the reference StockExchange class's public
// surface: construct, start, submit, terminate.
package exchange

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"

	"github.com/ansshameed/dsxe-exchange-go/internal/config"
	"github.com/ansshameed/dsxe-exchange-go/internal/csvsink"
	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/matching"
	"github.com/ansshameed/dsxe-exchange-go/internal/metrics"
	"github.com/ansshameed/dsxe-exchange-go/internal/session"
	"github.com/ansshameed/dsxe-exchange-go/internal/subscription"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

// Exchange is one running instance of the exchange core: one matching
// engine and session controller per process, covering every ticker listed
// in its configuration.
type Exchange struct {
	cfg     *config.Config
	engine  *matching.Engine
	ctl     *session.Controller
	fabric  *subscription.Fabric
	sink    *csvsink.Sink
	metrics *metrics.Metrics
	log     zerolog.Logger

	tomb tomb.Tomb
}

// New constructs an Exchange from a loaded configuration and a transport
// implementation (typically the NATS transport, or an in-memory one for
// tests). The Tape Sink is opened eagerly so every configured ticker has
// its CSV artifacts ready before trading begins.
func New(cfg *config.Config, t transport.Transport, reg *prometheus.Registry, log zerolog.Logger) (*Exchange, error) {
	fabric := subscription.New(t)
	mx := metrics.New()
	if reg != nil {
		mx.MustRegister(reg)
	}
	fabric.OnFanout(func(n int) {
		mx.BroadcastFanout.Observe(float64(n))
	})

	sink := csvsink.New(cfg.DataDir, cfg.ExchangeName)
	if err := sink.OpenMessageTape(); err != nil {
		return nil, fmt.Errorf("exchange: opening message tape: %w", err)
	}
	for _, ticker := range cfg.Tickers {
		fabric.AddTicker(ticker)
		if err := sink.AddTicker(ticker); err != nil {
			return nil, fmt.Errorf("exchange: adding ticker %s: %w", ticker, err)
		}
	}

	engine := matching.New(cfg.Tickers, fabric, sink, mx, log)
	ctl := session.New(engine, fabric, sink, cfg, log)

	return &Exchange{
		cfg:     cfg,
		engine:  engine,
		ctl:     ctl,
		fabric:  fabric,
		sink:    sink,
		metrics: mx,
		log:     log,
	}, nil
}

// Start launches the session controller's goroutine, which in turn drives
// the matching engine through its full connect/trading/close lifecycle.
func (e *Exchange) Start() {
	e.tomb.Go(func() error { return e.ctl.Run(&e.tomb) })
}

// Submit hands an inbound agent message to the matching engine's inbox.
func (e *Exchange) Submit(msg domain.Message) error {
	return e.engine.Submit(msg)
}

// Terminate requests early shutdown and blocks until the session
// controller's goroutine has returned.
func (e *Exchange) Terminate() error {
	e.tomb.Kill(nil)
	return e.tomb.Wait()
}

// Wait blocks until the session completes naturally (TRADING_CLOSED drain
// and tape finalization finished).
func (e *Exchange) Wait() error {
	return e.tomb.Wait()
}

// Metrics exposes the exchange's Prometheus collectors for HTTP scraping.
func (e *Exchange) Metrics() *metrics.Metrics { return e.metrics }
