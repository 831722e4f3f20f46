// Command exchange runs one exchange-core process: it loads configuration,
// connects to NATS for agent transport, and drives the trading-window
// lifecycle until TRADING_CLOSED finishes draining.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ansshameed/dsxe-exchange-go/internal/config"
	"github.com/ansshameed/dsxe-exchange-go/internal/exchange"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	natsURL := flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	inboundSubject := flag.String("inbound-subject", "exchange.inbound", "NATS subject agents publish orders to")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: failed to load configuration")
	}

	conn, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatal().Err(err).Str("url", *natsURL).Msg("exchange: failed to connect to NATS")
	}
	defer conn.Close()

	t := transport.NewNATSTransport(conn)
	reg := prometheus.NewRegistry()

	ex, err := exchange.New(cfg, t, reg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange: failed to construct exchange")
	}

	sub, err := conn.Subscribe(*inboundSubject, func(m *nats.Msg) {
		msg, err := transport.Decode(m.Data)
		if err != nil {
			log.Warn().Err(err).Msg("exchange: dropping undecodable inbound message")
			return
		}
		if err := ex.Submit(msg); err != nil {
			log.Warn().Err(err).Msg("exchange: failed to submit inbound message")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("subject", *inboundSubject).Msg("exchange: failed to subscribe to inbound subject")
	}
	defer sub.Unsubscribe()

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("exchange: metrics server stopped")
		}
	}()

	ex.Start()
	log.Info().Strs("tickers", cfg.Tickers).Msg("exchange: session started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- ex.Wait() }()

	select {
	case <-sig:
		log.Info().Msg("exchange: signal received, terminating early")
		if err := ex.Terminate(); err != nil {
			log.Warn().Err(err).Msg("exchange: terminate returned an error")
		}
	case err := <-done:
		if err != nil {
			log.Warn().Err(err).Msg("exchange: session ended with an error")
		}
	}

	log.Info().Msg("exchange: session complete")
}
