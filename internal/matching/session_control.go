package matching

import (
	"time"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

// applySessionControl acts on a state transition handed down by the
// session controller. Session control messages are funneled through the
// same inbox as order/cancel/subscribe messages so broadcast ordering
// stays totally ordered with trade and execution events, per spec.md
// §5's single total-order guarantee.
func (e *Engine) applySessionControl(state domain.SessionState, sessionStart int64, broadcast *domain.EventType) {
	e.log.Info().Str("from", e.state.String()).Str("to", state.String()).Msg("matching: session state transition")
	e.state = state

	if state == domain.SessionTradingOpen && e.sessionStart.IsZero() {
		if sessionStart != 0 {
			e.sessionStart = time.Unix(0, sessionStart)
		} else {
			e.sessionStart = e.now()
		}
	}

	if broadcast == nil {
		return
	}

	msg := domain.EventMessage{EventType: *broadcast}
	for _, ticker := range e.fabric.AllTickers() {
		e.fabric.Broadcast(ticker, msg)
	}
}
