package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwaaas/OrderBook/pkg/book"
)

// Request/response shapes for the REST endpoints and WebSocket messages.

// OrderLimitRequest is the payload for POST /order/limit. PostOnly,
// AllowMargin and ReduceOnly are accepted for wire compatibility; the
// matching core does not act on them.
type OrderLimitRequest struct {
	Side          string          `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	CurrencyPair  string          `json:"currencyPair"`
	CustomerOrder string          `json:"customerOrderId"`
	TimeInForce   string          `json:"timeInForce"`
	PostOnly      bool            `json:"postOnly"`
	AllowMargin   bool            `json:"allowMargin"`
	ReduceOnly    bool            `json:"reduceOnly"`
}

// SubmitOrderResponse echoes the id assigned to an admitted order.
type SubmitOrderResponse struct {
	ID string `json:"id"`
}

// OrderInfo is one resting order in a book snapshot.
type OrderInfo struct {
	ID            string          `json:"id"`
	Side          string          `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	CreatedAt     time.Time       `json:"createdAt"`
	Instrument    string          `json:"instrument"`
	ClientOrderID string          `json:"clientOrderId,omitempty"`
}

// OrderBookResponse is the snapshot of both sides: price (as a decimal
// string) mapped to the FIFO queue resting at that level.
type OrderBookResponse struct {
	Asks map[string][]OrderInfo `json:"Asks"`
	Bids map[string][]OrderInfo `json:"Bids"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is sent by a client to manage channel subscriptions,
// e.g. {"op":"subscribe","channels":["trades:BTC-USD"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}

// TradeUpdate is broadcast to subscribers when a match pass executes a
// trade.
type TradeUpdate struct {
	Type  string     `json:"type"` // always "trade"
	Trade book.Trade `json:"trade"`
}

func orderInfo(o book.Order) OrderInfo {
	return OrderInfo{
		ID:            o.ID,
		Side:          o.Side.String(),
		Price:         o.Price,
		Quantity:      o.Quantity,
		CreatedAt:     o.CreatedAt,
		Instrument:    o.Instrument,
		ClientOrderID: o.ClientOrderID,
	}
}
