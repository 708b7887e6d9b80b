package book

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceLevel holds every resting order at one exact price on one side.
// The queue is FIFO: the head arrived first and is matched first.
type PriceLevel struct {
	Price decimal.Decimal
	queue []*Order
}

func (l *PriceLevel) Append(o *Order) {
	l.queue = append(l.queue, o)
}

// PeekFront returns the head of the queue without removing it, or nil if
// the level is empty.
func (l *PriceLevel) PeekFront() *Order {
	if len(l.queue) == 0 {
		return nil
	}
	return l.queue[0]
}

// PopFront removes and returns the head of the queue.
func (l *PriceLevel) PopFront() *Order {
	if len(l.queue) == 0 {
		return nil
	}
	o := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return o
}

func (l *PriceLevel) Empty() bool { return len(l.queue) == 0 }
func (l *PriceLevel) Len() int    { return len(l.queue) }

// Orders returns a copy of the queue in FIFO order, for snapshots.
func (l *PriceLevel) Orders() []Order {
	out := make([]Order, len(l.queue))
	for i, o := range l.queue {
		out[i] = *o
	}
	return out
}

// SideBook is one side of the order book: price levels kept sorted
// best-first (bids descending, asks ascending) plus a price index for O(1)
// level lookup on insert.
type SideBook struct {
	side    Side
	levels  []*PriceLevel
	byPrice map[string]*PriceLevel
}

func NewSideBook(side Side) *SideBook {
	return &SideBook{
		side:    side,
		byPrice: make(map[string]*PriceLevel),
	}
}

func (b *SideBook) Side() Side { return b.side }
func (b *SideBook) Len() int   { return len(b.levels) }

// better reports whether price a has strictly higher priority than b on
// this side.
func (b *SideBook) better(a, other decimal.Decimal) bool {
	if b.side == Buy {
		return a.GreaterThan(other)
	}
	return a.LessThan(other)
}

// Insert appends the order to the tail of its price level's queue, creating
// the level in sorted position if it does not exist yet.
func (b *SideBook) Insert(o *Order) {
	key := o.Price.String()
	lv, ok := b.byPrice[key]
	if !ok {
		lv = &PriceLevel{Price: o.Price}
		b.byPrice[key] = lv
		i := sort.Search(len(b.levels), func(i int) bool {
			return !b.better(b.levels[i].Price, o.Price)
		})
		b.levels = append(b.levels, nil)
		copy(b.levels[i+1:], b.levels[i:])
		b.levels[i] = lv
	}
	lv.Append(o)
}

// BestLevel returns the priority-extreme level (highest bid / lowest ask),
// or nil if the side is empty.
func (b *SideBook) BestLevel() *PriceLevel {
	if len(b.levels) == 0 {
		return nil
	}
	return b.levels[0]
}

// LevelAt returns the level at priority rank i (0 = best).
func (b *SideBook) LevelAt(i int) *PriceLevel {
	return b.levels[i]
}

// RemoveLevelIfEmpty compacts a drained level out of the book. Reports
// whether the level was removed. A level with resting orders is never
// touched.
func (b *SideBook) RemoveLevelIfEmpty(lv *PriceLevel) bool {
	if !lv.Empty() {
		return false
	}
	key := lv.Price.String()
	if b.byPrice[key] != lv {
		return false
	}
	delete(b.byPrice, key)
	for i, l := range b.levels {
		if l == lv {
			copy(b.levels[i:], b.levels[i+1:])
			b.levels[len(b.levels)-1] = nil
			b.levels = b.levels[:len(b.levels)-1]
			return true
		}
	}
	return false
}

// Snapshot returns every level's queue keyed by price string, FIFO order
// preserved within each level.
func (b *SideBook) Snapshot() map[string][]Order {
	out := make(map[string][]Order, len(b.levels))
	for _, lv := range b.levels {
		out[lv.Price.String()] = lv.Orders()
	}
	return out
}
