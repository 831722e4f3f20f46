package book

import (
	"container/list"

	"github.com/shopspring/decimal"

	"github.com/ansshameed/dsxe-exchange-go/internal/domain"
)

// level is one price level's FIFO queue of resting orders. Orders within a
// level are served in arrival order regardless of size, satisfying the
// price-time priority tie-break.
type level struct {
	price  decimal.Decimal
	orders *list.List // of *domain.Order
	size   decimal.Decimal
}

func newLevel(price decimal.Decimal) *level {
	return &level{price: price, orders: list.New()}
}

func (l *level) pushBack(o *domain.Order) *list.Element {
	l.size = l.size.Add(o.Remaining)
	return l.orders.PushBack(o)
}

// pushFront restores an order to the head of its level, used when a
// partially-filled resting order must retain its priority over orders
// that arrived after it.
func (l *level) pushFront(o *domain.Order) *list.Element {
	l.size = l.size.Add(o.Remaining)
	return l.orders.PushFront(o)
}

func (l *level) remove(e *list.Element) *domain.Order {
	o := l.orders.Remove(e).(*domain.Order)
	l.size = l.size.Sub(o.Remaining)
	return o
}

func (l *level) front() (*domain.Order, *list.Element) {
	e := l.orders.Front()
	if e == nil {
		return nil, nil
	}
	return e.Value.(*domain.Order), e
}

func (l *level) empty() bool {
	return l.orders.Len() == 0
}
