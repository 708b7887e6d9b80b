package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwaaas/OrderBook/pkg/book"
)

// MatchPass scans both books in priority order, executes every possible
// cross, appends the resulting trades to the ledger and returns them in
// generation order. The pass runs against the full current book state, so
// repeated or coalesced triggers are safe: with no crossing orders it is a
// no-op.
//
// Traversal: bid levels best (highest) first. Each bid level gets a fresh
// ask scan from the best ask. Fronts of the two queues match at the
// resting ask's price until the bid level no longer crosses, one of the
// levels drains, or the ask side empties. Drained levels are compacted
// immediately; since compaction removes the best ask, the next-best ask
// slides into its place and the scan continues from there. Lower bid
// levels are still attempted after a failed cross because a higher bid may
// have consumed the asks that blocked them.
func (e *Engine) MatchPass() []book.Trade {
	e.mu.Lock()
	trades := e.matchLocked()
	// Append under the book lock so overlapping callers cannot interleave
	// their batches out of generation order.
	if len(trades) > 0 {
		e.ledger.Append(trades)
	}
	e.mu.Unlock()

	e.metrics.MatchPasses.Inc()
	if len(trades) > 0 {
		e.metrics.TradesExecuted.Add(float64(len(trades)))
	}
	return trades
}

func (e *Engine) matchLocked() []book.Trade {
	var trades []book.Trade

	bi := 0
	for bi < e.bids.Len() {
		bidLevel := e.bids.LevelAt(bi)
		bidDrained := false

		for !bidLevel.Empty() && e.asks.Len() > 0 {
			askLevel := e.asks.BestLevel()
			if bidLevel.Price.LessThan(askLevel.Price) {
				// No cross at this bid level; deeper asks are only worse.
				break
			}

			buy := bidLevel.PeekFront()
			sell := askLevel.PeekFront()
			qty := decimal.Min(buy.Quantity, sell.Quantity)
			trades = append(trades, e.newTrade(buy, sell, askLevel.Price, qty))

			buy.Quantity = buy.Quantity.Sub(qty)
			sell.Quantity = sell.Quantity.Sub(qty)

			if !buy.Quantity.IsPositive() {
				bidLevel.PopFront()
				e.metrics.RestingOrders.Dec()
			}
			if !sell.Quantity.IsPositive() {
				askLevel.PopFront()
				e.metrics.RestingOrders.Dec()
			}

			if askLevel.Empty() {
				e.asks.RemoveLevelIfEmpty(askLevel)
			}
			if bidLevel.Empty() {
				e.bids.RemoveLevelIfEmpty(bidLevel)
				bidDrained = true
				break
			}
		}

		// A drained bid level was compacted in place, so the next level
		// already sits at index bi.
		if !bidDrained {
			bi++
		}
	}
	return trades
}

func (e *Engine) newTrade(buy, sell *book.Order, price, qty decimal.Decimal) book.Trade {
	// The later arrival took liquidity from the earlier one.
	taker := book.Buy
	if buy.Seq < sell.Seq {
		taker = book.Sell
	}
	return book.Trade{
		ID:          uuid.NewString(),
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		TakerSide:   taker.String(),
		Price:       price,
		Quantity:    qty,
		Instrument:  sell.Instrument,
		QuoteVolume: price.Mul(qty),
		TradedAt:    e.clock.Now(),
	}
}
