package book

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

func randomOrder(id int64) *domain.Order {
	price := decimal.NewFromFloat(rand.Float64() * 150000.0)
	qty := decimal.NewFromFloat(1 + rand.Float64()*100.0)
	side := domain.Bid
	if rand.Int32()%2 == 0 {
		side = domain.Ask
	}
	return &domain.Order{
		ID:        id,
		Side:      side,
		Original:  qty,
		Remaining: qty,
		Price:     &price,
		Status:    domain.StatusNew,
	}
}

// BenchmarkAddAndPop exercises the hot path the matching engine leans on
// hardest: resting an order, then immediately popping the best of book.
func BenchmarkAddAndPop(b *testing.B) {
	book := New("BTC-USD")
	for i := 0; i < b.N; i++ {
		o := randomOrder(int64(i))
		book.Add(o)
		book.PopBest(o.Side)
	}
}

// BenchmarkRemoveByID exercises cancellation, which must find and splice
// an arbitrary resting order out of its level in O(log N).
func BenchmarkRemoveByID(b *testing.B) {
	book := New("BTC-USD")
	ids := make([]int64, b.N)
	for i := 0; i < b.N; i++ {
		o := randomOrder(int64(i))
		ids[i] = o.ID
		book.Add(o)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.Remove(ids[i])
	}
}
