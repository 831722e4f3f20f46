package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
	"github.com/ansshameed/dsxe-exchange-go/internal/transport"
)

func TestRegisterUnknownTickerFails(t *testing.T) {
	f := New(transport.NewMemory())
	err := f.Register("BTC-USD", Subscriber{ID: "a1", Endpoint: "agent.a1"})
	require.ErrorIs(t, err, domain.ErrUnknownTicker)
}

func TestRegisterKnownTickerSucceeds(t *testing.T) {
	f := New(transport.NewMemory())
	f.AddTicker("BTC-USD")

	err := f.Register("BTC-USD", Subscriber{ID: "a1", Endpoint: "agent.a1", Name: "alice"})
	require.NoError(t, err)

	subs := f.Subscribers("BTC-USD")
	require.Len(t, subs, 1)
	assert.Equal(t, "alice", subs[0].Name)
}

func TestBroadcastDeliversToEverySubscriber(t *testing.T) {
	mem := transport.NewMemory()
	f := New(mem)
	f.AddTicker("BTC-USD")

	for i := 0; i < 5; i++ {
		require.NoError(t, f.Register("BTC-USD", Subscriber{
			ID:       string(rune('a' + i)),
			Endpoint: transport.Endpoint("agent." + string(rune('a'+i))),
		}))
	}

	f.Broadcast("BTC-USD", domain.EventMessage{EventType: domain.EventTradingSessionStart})

	deliveries := mem.Deliveries()
	require.Len(t, deliveries, 5)
	for _, d := range deliveries {
		assert.True(t, d.Broadcast)
	}
}

func TestBroadcastToUnknownTickerIsNoop(t *testing.T) {
	mem := transport.NewMemory()
	f := New(mem)

	f.Broadcast("NOPE", domain.EventMessage{EventType: domain.EventTradingSessionStart})
	assert.Empty(t, mem.Deliveries())
}

func TestUnicastDeliversOnce(t *testing.T) {
	mem := transport.NewMemory()
	f := New(mem)

	f.Unicast("agent.a1", domain.CancelRejectMessage{OrderID: 7})

	deliveries := mem.Deliveries()
	require.Len(t, deliveries, 1)
	assert.False(t, deliveries[0].Broadcast)
	assert.Equal(t, transport.Endpoint("agent.a1"), deliveries[0].Endpoint)
}

func TestFanoutHookReceivesSubscriberCount(t *testing.T) {
	f := New(transport.NewMemory())
	f.AddTicker("BTC-USD")
	require.NoError(t, f.Register("BTC-USD", Subscriber{ID: "a1", Endpoint: "agent.a1"}))
	require.NoError(t, f.Register("BTC-USD", Subscriber{ID: "a2", Endpoint: "agent.a2"}))

	var fanoutSize int
	f.OnFanout(func(n int) { fanoutSize = n })

	f.Broadcast("BTC-USD", domain.EventMessage{EventType: domain.EventTradingSessionStart})
	assert.Equal(t, 2, fanoutSize)
}

func TestEndpointOfFindsRegisteredSubscriber(t *testing.T) {
	f := New(transport.NewMemory())
	f.AddTicker("BTC-USD")
	require.NoError(t, f.Register("BTC-USD", Subscriber{ID: "a1", Endpoint: "agent.a1"}))

	ep, ok := f.EndpointOf("BTC-USD", "a1")
	require.True(t, ok)
	assert.Equal(t, transport.Endpoint("agent.a1"), ep)

	_, ok = f.EndpointOf("BTC-USD", "missing")
	assert.False(t, ok)
}
