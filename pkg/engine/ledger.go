package engine

import (
	"sync"

	"github.com/mwaaas/OrderBook/pkg/book"
)

// TradeLedger is the append-only record of completed trades, in match
// generation order. It is never reordered or pruned.
type TradeLedger struct {
	mu     sync.RWMutex
	trades []book.Trade
}

func NewTradeLedger() *TradeLedger {
	return &TradeLedger{}
}

func (l *TradeLedger) Append(trades []book.Trade) {
	if len(trades) == 0 {
		return
	}
	l.mu.Lock()
	l.trades = append(l.trades, trades...)
	l.mu.Unlock()
}

// Snapshot returns a copy of the ledger in append order.
func (l *TradeLedger) Snapshot() []book.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]book.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *TradeLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}
