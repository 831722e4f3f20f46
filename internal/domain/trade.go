package domain

import "github.com/shopspring/decimal"

// Trade is a consummated match between exactly two orders. Trades are
// append-only: once recorded they are never mutated.
type Trade struct {
	ID                string
	Ticker            string
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	Timestamp         int64 // monotonic nanoseconds
	BuyerID           string
	SellerID          string
	BuyerName         string
	SellerName        string
	AggressingOrderID int64
	RestingOrderID    int64
	BuyerPrivValue    decimal.Decimal
	SellerPrivValue   decimal.Decimal
	BuyerProfit       decimal.Decimal
	SellerProfit      decimal.Decimal
}
