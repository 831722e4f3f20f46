package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/tomb.v2"

	"github.com/ansshameed/dsxe-exchange-go/internal/config"
	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/matching"
	"github.com/ansshameed/dsxe-exchange-go/internal/subscription"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

func fastConfig() *config.Config {
	return &config.Config{
		ExchangeName: "test",
		Tickers:      []string{"X"},
		ConnectTime:  3 * time.Millisecond,
		IdleGrace:    3 * time.Millisecond,
		TechReady:    5 * time.Millisecond,
		TradingTime:  100 * time.Millisecond,
	}
}

func broadcastsOf(mem *transport.Memory, event domain.EventType) int {
	n := 0
	for _, del := range mem.Deliveries() {
		if ev, ok := del.Message.(domain.EventMessage); ok && ev.EventType == event && del.Broadcast {
			n++
		}
	}
	return n
}

// Scenario 6, part 1: a subscriber that arrives during CONNECT_WINDOW sees
// the idle-grace timer run out and receives the broadcast TRADING_SESSION_START.
func TestConnectPhaseSubscriberReceivesSessionStartBroadcast(t *testing.T) {
	mem := transport.NewMemory()
	fabric := subscription.New(mem)
	fabric.AddTicker("X")
	engine := matching.New([]string{"X"}, fabric, nil, nil, zerolog.Nop())
	ctl := New(engine, fabric, nil, fastConfig(), zerolog.Nop())

	var tb tomb.Tomb
	tb.Go(func() error { return ctl.Run(&tb) })

	require.NoError(t, engine.Submit(domain.SubscribeMessage{
		SenderID: "A", Ticker: "X", CallbackEndpoint: "agent.A", AgentName: "alice",
	}))

	require.Eventually(t, func() bool {
		return broadcastsOf(mem, domain.EventTradingSessionStart) >= 1
	}, time.Second, time.Millisecond)

	tb.Kill(nil)
	_ = tb.Wait()
}

// Scenario 6, part 2: a subscriber that arrives after TRADING_OPEN gets a
// targeted (unicast) TRADING_SESSION_START instead of waiting for the next
// broadcast.
func TestLateJoinerDuringTradingOpenGetsTargetedSessionStart(t *testing.T) {
	mem := transport.NewMemory()
	fabric := subscription.New(mem)
	fabric.AddTicker("X")
	engine := matching.New([]string{"X"}, fabric, nil, nil, zerolog.Nop())
	ctl := New(engine, fabric, nil, fastConfig(), zerolog.Nop())

	// An early subscriber, so the TRADING_SESSION_START broadcast has a
	// recipient and marks the moment trading is open.
	require.NoError(t, fabric.Register("X", subscription.Subscriber{ID: "A", Endpoint: "agent.A", Name: "alice"}))

	var tb tomb.Tomb
	tb.Go(func() error { return ctl.Run(&tb) })

	require.Eventually(t, func() bool {
		return broadcastsOf(mem, domain.EventTradingSessionStart) >= 1
	}, time.Second, time.Millisecond)

	require.NoError(t, engine.Submit(domain.SubscribeMessage{
		SenderID: "B", Ticker: "X", CallbackEndpoint: "agent.B", AgentName: "bob",
	}))

	require.Eventually(t, func() bool {
		for _, del := range mem.Deliveries() {
			if del.Broadcast || del.Endpoint != "agent.B" {
				continue
			}
			if ev, ok := del.Message.(domain.EventMessage); ok && ev.EventType == domain.EventTradingSessionStart {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	tb.Kill(nil)
	_ = tb.Wait()
}

// At the end of the trading window, the controller broadcasts
// TRADING_SESSION_END to every subscriber after the engine has drained.
func TestTradingSessionEndBroadcastAfterDrain(t *testing.T) {
	mem := transport.NewMemory()
	fabric := subscription.New(mem)
	fabric.AddTicker("X")
	engine := matching.New([]string{"X"}, fabric, nil, nil, zerolog.Nop())
	cfg := fastConfig()
	cfg.TradingTime = 5 * time.Millisecond
	ctl := New(engine, fabric, nil, cfg, zerolog.Nop())

	require.NoError(t, fabric.Register("X", subscription.Subscriber{ID: "A", Endpoint: "agent.A", Name: "alice"}))

	var tb tomb.Tomb
	tb.Go(func() error { return ctl.Run(&tb) })

	require.Eventually(t, func() bool {
		return broadcastsOf(mem, domain.EventTradingSessionEnd) >= 1
	}, 2*time.Second, time.Millisecond)

	err := tb.Wait()
	assert.NoError(t, err)
}
