package tape

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

func trade(price, qty float64, ts int64) *domain.Trade {
	return &domain.Trade{
		Price:     decimal.NewFromFloat(price),
		Quantity:  decimal.NewFromFloat(qty),
		Timestamp: ts,
	}
}

func TestEmptyTapeReturnsZeroValues(t *testing.T) {
	tp := New("BTC-USD")

	if !tp.PEquilibrium().IsZero() {
		t.Errorf("expected zero p* on an empty tape")
	}
	if !tp.SmithsAlpha().IsZero() {
		t.Errorf("expected zero alpha on an empty tape")
	}
	if high, low := tp.HighLow(); high != nil || low != nil {
		t.Errorf("expected nil high/low on an empty tape")
	}
	if tp.LastTrade() != nil {
		t.Errorf("expected nil last trade on an empty tape")
	}
}

func TestAppendTracksCountAndVolume(t *testing.T) {
	tp := New("BTC-USD")
	tp.Append(trade(100, 5, 1))
	tp.Append(trade(101, 3, 2))

	if tp.Count() != 2 {
		t.Errorf("expected count 2, got %d", tp.Count())
	}
	if !tp.CumulativeVolume().Equal(decimal.NewFromInt(8)) {
		t.Errorf("expected cumulative volume 8, got %s", tp.CumulativeVolume())
	}
	if tp.LastTrade().Price.Cmp(decimal.NewFromInt(101)) != 0 {
		t.Errorf("expected last trade price 101, got %s", tp.LastTrade().Price)
	}
}

func TestPEquilibriumWeightsRecentTradesMore(t *testing.T) {
	tp := New("BTC-USD")
	tp.Append(trade(100, 1, 1))
	tp.Append(trade(200, 1, 2))

	pEq := tp.PEquilibrium()
	// The most recent trade (200) gets weight 1, the older trade (100) gets
	// weight 0.9, so p* should sit closer to 200 than the plain average 150.
	if pEq.LessThanOrEqual(decimal.NewFromInt(150)) {
		t.Errorf("expected p* to skew toward the most recent trade, got %s", pEq)
	}
}

func TestSmithsAlphaZeroWhenPricesConstant(t *testing.T) {
	tp := New("BTC-USD")
	for i := int64(0); i < 5; i++ {
		tp.Append(trade(100, 1, i))
	}

	alpha := tp.SmithsAlpha()
	if !alpha.IsZero() {
		t.Errorf("expected zero alpha when every trade prints at the same price, got %s", alpha)
	}
}

func TestSmithsAlphaPositiveWhenPricesVary(t *testing.T) {
	tp := New("BTC-USD")
	tp.Append(trade(90, 1, 1))
	tp.Append(trade(110, 1, 2))

	if !tp.SmithsAlpha().IsPositive() {
		t.Errorf("expected positive alpha when trade prices diverge")
	}
}

func TestHighLowOverRollingWindow(t *testing.T) {
	tp := New("BTC-USD")
	tp.Append(trade(100, 1, 1))
	tp.Append(trade(120, 1, 2))
	tp.Append(trade(80, 1, 3))

	high, low := tp.HighLow()
	if high == nil || !high.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected high 120, got %v", high)
	}
	if low == nil || !low.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected low 80, got %v", low)
	}
}

func TestWindowBoundedToWindowSize(t *testing.T) {
	tp := New("BTC-USD")
	for i := int64(0); i < windowSize+10; i++ {
		tp.Append(trade(float64(i), 1, i))
	}

	if len(tp.window) != windowSize {
		t.Errorf("expected window bounded to %d entries, got %d", windowSize, len(tp.window))
	}
	if tp.Count() != windowSize+10 {
		t.Errorf("expected count to keep growing past the window bound, got %d", tp.Count())
	}
}

func TestVolumePerTickFirstCallTakesFullVolume(t *testing.T) {
	tp := New("BTC-USD")
	tp.Append(trade(100, 7, 1))

	if got := tp.VolumePerTick(); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected first tick to report full volume 7, got %s", got)
	}

	tp.Append(trade(100, 3, 2))
	if got := tp.VolumePerTick(); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected second tick to report delta volume 3, got %s", got)
	}
}

func TestTimeSincePrevTrade(t *testing.T) {
	tp := New("BTC-USD")
	if got := tp.TimeSincePrevTrade(100); got != 0 {
		t.Errorf("expected 0 gap with no prior trade, got %d", got)
	}

	tp.Append(trade(100, 1, 50))
	if got := tp.TimeSincePrevTrade(90); got != 40 {
		t.Errorf("expected gap 40, got %d", got)
	}
}
