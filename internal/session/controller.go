// Package session implements the exchange's trading-window state machine:
// the connect-phase idle-grace wait, the technical-ready and trading-time
// timers, and the coordinated shutdown that drains the matching engine
// before finalizing the session's tapes.
package session

import (
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
	"golang.org/x/sync/errgroup"

	"github.com/ansshameed/dsxe-exchange-go/internal/config"
	"github.com/ansshameed/dsxe-exchange-go/internal/csvsink"
	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/matching"
	"github.com/ansshameed/dsxe-exchange-go/internal/subscription"
)

// Controller drives one exchange instance through PRE_CONNECT ->
// CONNECT_WINDOW -> TRADING_OPEN -> TRADING_CLOSED, per spec.md §4.4's
// state table. It owns the matching engine's goroutine lifecycle (via its
// own tomb) so it can wait for a full drain before finalizing tapes.
type Controller struct {
	engine *matching.Engine
	fabric *subscription.Fabric
	sink   *csvsink.Sink
	cfg    *config.Config
	log    zerolog.Logger

	now func() time.Time

	subscriberArrived chan struct{}
	engineTomb        tomb.Tomb
}

// New wires a Controller to an already-constructed engine and fabric for
// the same ticker set. It installs the engine's subscriber-registered hook
// so connect-phase arrivals reset the idle-grace timer.
func New(engine *matching.Engine, fabric *subscription.Fabric, sink *csvsink.Sink, cfg *config.Config, log zerolog.Logger) *Controller {
	c := &Controller{
		engine:            engine,
		fabric:            fabric,
		sink:              sink,
		cfg:               cfg,
		log:               log,
		now:               time.Now,
		subscriberArrived: make(chan struct{}, 1),
	}
	engine.OnSubscriberRegistered = func(ticker, subscriberID string) {
		select {
		case c.subscriberArrived <- struct{}{}:
		default:
		}
	}
	return c
}

// Run drives the full session lifecycle and blocks until TRADING_CLOSED
// has finished draining and the tapes are finalized. Intended to be
// started with t.Go by the owning exchange process.
func (c *Controller) Run(t *tomb.Tomb) error {
	c.engineTomb.Go(func() error { return c.engine.Run(&c.engineTomb) })

	c.log.Info().Msg("session: entering connect window")
	c.submit(domain.NewSessionControlMessage(domain.SessionConnectWindow, 0, nil))

	if err := c.awaitConnectPhase(t); err != nil {
		return err
	}

	sessionStart := c.now().UnixNano()
	openEvent := domain.EventTradingSessionStart
	c.log.Info().Msg("session: opening trading window")
	c.submit(domain.NewSessionControlMessage(domain.SessionTradingOpen, sessionStart, &openEvent))

	t.Go(func() error { return c.scheduleTechnicalReady(t) })

	select {
	case <-time.After(c.cfg.TradingTime):
	case <-t.Dying():
		return tomb.ErrDying
	}

	return c.shutdown()
}

// awaitConnectPhase blocks until connect_time has elapsed and no new
// subscriber has arrived for idle_grace, per the CONNECT_WINDOW row of
// spec.md §4.4's state table. The reference implementation polls every
// 500ms and resets a 5-second idle timer on every new connection; this
// reimplements that as an idle timer reset on signal instead of a poll.
func (c *Controller) awaitConnectPhase(t *tomb.Tomb) error {
	select {
	case <-time.After(c.cfg.ConnectTime):
	case <-t.Dying():
		return tomb.ErrDying
	}

	idle := time.NewTimer(c.cfg.IdleGrace)
	defer idle.Stop()

	for {
		select {
		case <-idle.C:
			return nil
		case <-c.subscriberArrived:
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(c.cfg.IdleGrace)
		case <-t.Dying():
			return tomb.ErrDying
		}
	}
}

func (c *Controller) scheduleTechnicalReady(t *tomb.Tomb) error {
	select {
	case <-time.After(c.cfg.TechReady):
		ready := domain.EventTechnicalAgentsStarted
		c.log.Info().Msg("session: technical agents started")
		c.submit(domain.NewSessionControlMessage(domain.SessionTradingOpen, 0, &ready))
		return nil
	case <-t.Dying():
		return nil
	}
}

func (c *Controller) submit(msg domain.Message) {
	if err := c.engine.Submit(msg); err != nil {
		c.log.Warn().Err(err).Msg("session: failed to submit control message")
	}
}

// shutdown closes the engine's inbox, waits for the drain to finish, then
// concurrently broadcasts TRADING_SESSION_END and writes the end-of-session
// profit ranking before finalizing every Tape Sink writer.
func (c *Controller) shutdown() error {
	c.log.Info().Msg("session: closing trading window")
	c.submit(domain.NewSessionControlMessage(domain.SessionTradingClosed, 0, nil))
	c.engine.CloseInbox()

	if err := c.engineTomb.Wait(); err != nil && err != tomb.ErrStillAlive {
		c.log.Warn().Err(err).Msg("session: engine goroutine exited with error")
	}

	var g errgroup.Group
	g.Go(func() error {
		for _, ticker := range c.fabric.AllTickers() {
			c.fabric.Broadcast(ticker, domain.EventMessage{EventType: domain.EventTradingSessionEnd})
		}
		return nil
	})
	g.Go(func() error {
		if c.sink == nil {
			return nil
		}
		snapshots := c.engine.ProfitSnapshots()
		if len(snapshots) == 0 {
			return nil
		}
		return c.sink.WriteProfits(snapshots)
	})
	if err := g.Wait(); err != nil {
		c.log.Warn().Err(err).Msg("session: shutdown tasks reported an error")
	}

	if c.sink == nil {
		return nil
	}
	return c.sink.Close()
}
