package book

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "UNKNOWN"
}

// ParseSide accepts the wire spelling of a side ("BUY"/"SELL", case-insensitive).
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, fmt.Errorf("invalid side %q", s)
}

// Order is a resting intent to trade. Price is fixed at intake; Quantity is
// the remaining unfilled size and only ever decreases. An order whose
// quantity reaches zero is removed from its level queue and never rests
// again.
type Order struct {
	ID            string          `json:"id"`
	Side          Side            `json:"-"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	CreatedAt     time.Time       `json:"createdAt"`
	Instrument    string          `json:"instrument"`
	ClientOrderID string          `json:"clientOrderId,omitempty"`
	TimeInForce   string          `json:"timeInForce,omitempty"`

	// Seq is assigned at intake and strictly increases with arrival order.
	// It decides maker/taker on a match; wall-clock timestamps can tie at
	// capture resolution, sequence numbers cannot.
	Seq uint64 `json:"-"`
}

// Trade records one match. Created once by the matching engine and never
// mutated afterwards.
type Trade struct {
	ID          string          `json:"id"`
	BuyOrderID  string          `json:"buyOrderId"`
	SellOrderID string          `json:"sellOrderId"`
	TakerSide   string          `json:"takerSide"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Instrument  string          `json:"instrument"`
	QuoteVolume decimal.Decimal `json:"quoteVolume"`
	TradedAt    time.Time       `json:"tradedAt"`
}
