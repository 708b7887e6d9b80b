package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwaaas/OrderBook/pkg/book"
)

// TimeInForceGTC is the only time-in-force the venue honors. FOK and IOC
// are rejected at intake instead of being accepted and silently ignored.
const TimeInForceGTC = "GTC"

// SubmitRequest is the intake shape of a new limit order. PostOnly,
// AllowMargin and ReduceOnly are carried for wire compatibility but have
// no matching effect.
type SubmitRequest struct {
	Side          string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Instrument    string
	ClientOrderID string
	TimeInForce   string
	PostOnly      bool
	AllowMargin   bool
	ReduceOnly    bool
}

// SubmitOrder validates the request, admits the order at the tail of its
// price level's queue, and schedules a match pass. Returns the resting
// order as admitted. A *ValidationError means the request was rejected and
// nothing was inserted.
func (e *Engine) SubmitOrder(req SubmitRequest) (book.Order, error) {
	side, err := book.ParseSide(req.Side)
	if err != nil {
		e.metrics.OrdersRejected.Inc()
		return book.Order{}, invalid("side", `must be "BUY" or "SELL"`)
	}
	if !req.Price.IsPositive() {
		e.metrics.OrdersRejected.Inc()
		return book.Order{}, invalid("price", "must be positive")
	}
	if !req.Quantity.IsPositive() {
		e.metrics.OrdersRejected.Inc()
		return book.Order{}, invalid("quantity", "must be positive")
	}
	tif := req.TimeInForce
	if tif == "" {
		tif = TimeInForceGTC
	}
	if tif != TimeInForceGTC {
		e.metrics.OrdersRejected.Inc()
		return book.Order{}, invalid("timeInForce", "only GTC is supported")
	}
	instrument := req.Instrument
	if instrument == "" {
		instrument = e.instrument
	}

	order := &book.Order{
		ID:            uuid.NewString(),
		Side:          side,
		Price:         req.Price,
		Quantity:      req.Quantity,
		CreatedAt:     e.clock.Now(),
		Instrument:    instrument,
		ClientOrderID: req.ClientOrderID,
		TimeInForce:   tif,
	}

	e.mu.Lock()
	e.seq++
	order.Seq = e.seq
	if side == book.Buy {
		e.bids.Insert(order)
	} else {
		e.asks.Insert(order)
	}
	admitted := *order
	e.mu.Unlock()

	e.metrics.OrdersAccepted.Inc()
	e.metrics.RestingOrders.Inc()
	// Log the copy: once the lock is released the resting order belongs
	// to the match worker, which mutates its quantity in place.
	e.log.Debugw("order admitted",
		"id", admitted.ID,
		"side", side.String(),
		"price", admitted.Price.String(),
		"quantity", admitted.Quantity.String(),
		"postOnly", req.PostOnly,
		"allowMargin", req.AllowMargin,
		"reduceOnly", req.ReduceOnly,
	)

	e.NotifyOrderAdded(admitted.ID)
	return admitted, nil
}
