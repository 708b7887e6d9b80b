package engine

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mwaaas/OrderBook/pkg/book"
)

func newTestEngine() *Engine {
	return New(Options{})
}

func submit(t *testing.T, e *Engine, side, price, qty string) book.Order {
	t.Helper()
	o, err := e.SubmitOrder(SubmitRequest{
		Side:     side,
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(qty),
	})
	if err != nil {
		t.Fatalf("submit %s %s x %s: %v", side, price, qty, err)
	}
	return o
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// assertNotCrossed checks the post-pass book invariant: either one side is
// empty or the best bid is strictly below the best ask.
func assertNotCrossed(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	bid := e.bids.BestLevel()
	ask := e.asks.BestLevel()
	if bid == nil || ask == nil {
		return
	}
	if !bid.Price.LessThan(ask.Price) {
		t.Errorf("book crossed after pass: best bid %s >= best ask %s", bid.Price, ask.Price)
	}
}

func TestMatchPassOnEmptyBooks(t *testing.T) {
	e := newTestEngine()
	if trades := e.MatchPass(); len(trades) != 0 {
		t.Fatalf("trades on empty books = %d, want 0", len(trades))
	}
}

func TestMatchScenarios(t *testing.T) {
	e := newTestEngine()

	// Two resting sells, no buys: nothing to match.
	sell100 := submit(t, e, "SELL", "100.0", "5.0")
	submit(t, e, "SELL", "200.0", "3.0")
	if trades := e.MatchPass(); len(trades) != 0 {
		t.Fatalf("trades = %d, want 0", len(trades))
	}

	// A buy below the best ask does not cross.
	buy99 := submit(t, e, "BUY", "99.0", "4.0")
	if trades := e.MatchPass(); len(trades) != 0 {
		t.Fatalf("trades = %d, want 0", len(trades))
	}

	// Buy 150 x 6 lifts the 100 ask completely.
	buy150 := submit(t, e, "BUY", "150.0", "6.0")
	trades := e.MatchPass()
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}
	tr := trades[0]
	assertDecimal(t, "trade price", tr.Price, "100.0")
	assertDecimal(t, "trade quantity", tr.Quantity, "5.0")
	assertDecimal(t, "quote volume", tr.QuoteVolume, "500.0")
	if tr.BuyOrderID != buy150.ID {
		t.Errorf("buyOrderId = %s, want %s", tr.BuyOrderID, buy150.ID)
	}
	if tr.SellOrderID != sell100.ID {
		t.Errorf("sellOrderId = %s, want %s", tr.SellOrderID, sell100.ID)
	}
	if tr.TakerSide != "BUY" {
		t.Errorf("takerSide = %s, want BUY (buy arrived later)", tr.TakerSide)
	}
	assertNotCrossed(t, e)

	bids, asks := e.BookSnapshot()
	if _, ok := asks["100"]; ok {
		t.Error("ask level 100 should be compacted away")
	}
	if _, ok := asks["200"]; !ok {
		t.Error("ask level 200 should remain")
	}
	if q := bids["150"]; len(q) != 1 {
		t.Fatalf("bid level 150 orders = %d, want 1", len(q))
	} else {
		assertDecimal(t, "remaining at 150", q[0].Quantity, "1.0")
	}
	if q := bids["99"]; len(q) != 1 {
		t.Fatalf("bid level 99 orders = %d, want 1", len(q))
	} else {
		assertDecimal(t, "remaining at 99", q[0].Quantity, "4.0")
	}

	// Two deep buys at 80: no ask is that cheap yet.
	buy80a := submit(t, e, "BUY", "80.0", "10.0")
	submit(t, e, "BUY", "80.0", "10.0")
	if trades := e.MatchPass(); len(trades) != 0 {
		t.Fatalf("trades = %d, want 0", len(trades))
	}

	// A sell at 80 x 6 walks down the bid side: 150 first, then 99, then
	// the oldest 80.
	sell80 := submit(t, e, "SELL", "80.0", "6.0")
	trades = e.MatchPass()
	if len(trades) != 3 {
		t.Fatalf("trades = %d, want 3", len(trades))
	}
	wantTrades := []struct {
		qty   string
		buyID string
	}{
		{"1.0", buy150.ID},
		{"4.0", buy99.ID},
		{"1.0", buy80a.ID},
	}
	for i, want := range wantTrades {
		assertDecimal(t, "trade price", trades[i].Price, "80.0")
		assertDecimal(t, "trade quantity", trades[i].Quantity, want.qty)
		if trades[i].BuyOrderID != want.buyID {
			t.Errorf("trade %d buyOrderId = %s, want %s", i, trades[i].BuyOrderID, want.buyID)
		}
		if trades[i].SellOrderID != sell80.ID {
			t.Errorf("trade %d sellOrderId = %s, want %s", i, trades[i].SellOrderID, sell80.ID)
		}
		if trades[i].TakerSide != "SELL" {
			t.Errorf("trade %d takerSide = %s, want SELL (sell arrived last)", i, trades[i].TakerSide)
		}
	}
	assertNotCrossed(t, e)

	bids, asks = e.BookSnapshot()
	for _, gone := range []string{"150", "99"} {
		if _, ok := bids[gone]; ok {
			t.Errorf("bid level %s should be compacted away", gone)
		}
	}
	if _, ok := asks["80"]; ok {
		t.Error("ask level 80 should be fully consumed")
	}
	if _, ok := asks["200"]; !ok {
		t.Error("ask level 200 should remain")
	}
	q := bids["80"]
	if len(q) != 2 {
		t.Fatalf("bid level 80 orders = %d, want 2", len(q))
	}
	assertDecimal(t, "first 80 bid remaining", q[0].Quantity, "9.0")
	assertDecimal(t, "second 80 bid remaining", q[1].Quantity, "10.0")

	// Ledger holds all four trades in generation order.
	history := e.TradeHistory()
	if len(history) != 4 {
		t.Fatalf("ledger trades = %d, want 4", len(history))
	}
	assertDecimal(t, "first ledger trade price", history[0].Price, "100.0")
	for i := 1; i < 4; i++ {
		assertDecimal(t, "ledger trade price", history[i].Price, "80.0")
	}
}

func TestMatchPassIsIdempotent(t *testing.T) {
	e := newTestEngine()
	submit(t, e, "SELL", "100.0", "5.0")
	submit(t, e, "BUY", "120.0", "3.0")

	if trades := e.MatchPass(); len(trades) != 1 {
		t.Fatalf("first pass trades = %d, want 1", len(trades))
	}
	if trades := e.MatchPass(); len(trades) != 0 {
		t.Fatalf("second pass trades = %d, want 0", len(trades))
	}
}

func TestFIFOFairnessAtSamePrice(t *testing.T) {
	e := newTestEngine()
	first := submit(t, e, "SELL", "100.0", "5.0")
	second := submit(t, e, "SELL", "100.0", "5.0")
	submit(t, e, "BUY", "100.0", "5.0")

	trades := e.MatchPass()
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}
	if trades[0].SellOrderID != first.ID {
		t.Errorf("matched sell = %s, want the earlier order %s", trades[0].SellOrderID, first.ID)
	}

	_, asks := e.BookSnapshot()
	q := asks["100"]
	if len(q) != 1 || q[0].ID != second.ID {
		t.Fatalf("ask level 100 = %+v, want only the later order %s", q, second.ID)
	}
}

func TestExactMatchRemovesBothAndCompacts(t *testing.T) {
	e := newTestEngine()
	submit(t, e, "BUY", "100.0", "5.0")
	submit(t, e, "SELL", "100.0", "5.0")

	trades := e.MatchPass()
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}
	assertDecimal(t, "trade quantity", trades[0].Quantity, "5.0")

	bids, asks := e.BookSnapshot()
	if len(bids) != 0 || len(asks) != 0 {
		t.Fatalf("books not empty after exact match: bids=%v asks=%v", bids, asks)
	}
}

// Overlapping passes and submissions must serialize: each cross executes
// once, the ledger records every trade exactly once, and nothing reads a
// resting order outside the lock. Run with -race.
func TestConcurrentMatchPasses(t *testing.T) {
	e := newTestEngine()

	const workers = 4
	const perWorker = 40

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				for _, side := range []string{"BUY", "SELL"} {
					_, err := e.SubmitOrder(SubmitRequest{
						Side:     side,
						Price:    decimal.NewFromInt(100),
						Quantity: decimal.NewFromInt(1),
					})
					if err != nil {
						t.Errorf("submit: %v", err)
						return
					}
				}
				e.MatchPass()
			}
		}()
	}
	wg.Wait()
	e.MatchPass()

	assertNotCrossed(t, e)
	bids, asks := e.BookSnapshot()
	if len(bids) != 0 || len(asks) != 0 {
		t.Fatalf("equal buy and sell volume should drain both books: bids=%v asks=%v", bids, asks)
	}

	history := e.TradeHistory()
	want := workers * perWorker
	if len(history) != want {
		t.Fatalf("ledger trades = %d, want %d", len(history), want)
	}
	seen := make(map[string]bool, len(history))
	total := decimal.Zero
	for _, tr := range history {
		if seen[tr.ID] {
			t.Errorf("trade %s recorded twice", tr.ID)
		}
		seen[tr.ID] = true
		total = total.Add(tr.Quantity)
	}
	if !total.Equal(decimal.NewFromInt(int64(want))) {
		t.Errorf("total matched quantity = %s, want %d", total, want)
	}
}

// Conservation: for every order, the initially submitted quantity equals
// the remaining resting quantity plus the sum of its matched quantities.
func TestQuantityConservation(t *testing.T) {
	e := newTestEngine()

	initial := map[string]decimal.Decimal{}
	record := func(o book.Order, qty string) {
		initial[o.ID] = decimal.RequireFromString(qty)
	}

	record(submit(t, e, "SELL", "100.0", "5.0"), "5.0")
	record(submit(t, e, "SELL", "100.0", "2.5"), "2.5")
	record(submit(t, e, "SELL", "110.0", "4.0"), "4.0")
	record(submit(t, e, "BUY", "105.0", "6.0"), "6.0")
	e.MatchPass()
	record(submit(t, e, "BUY", "120.0", "3.0"), "3.0")
	record(submit(t, e, "SELL", "95.0", "1.0"), "1.0")
	e.MatchPass()

	matched := map[string]decimal.Decimal{}
	for _, tr := range e.TradeHistory() {
		for _, id := range []string{tr.BuyOrderID, tr.SellOrderID} {
			matched[id] = matched[id].Add(tr.Quantity)
		}
	}

	remaining := map[string]decimal.Decimal{}
	bids, asks := e.BookSnapshot()
	for _, side := range []map[string][]book.Order{bids, asks} {
		for _, orders := range side {
			for _, o := range orders {
				remaining[o.ID] = o.Quantity
				if !o.Quantity.IsPositive() {
					t.Errorf("order %s resting with non-positive quantity %s", o.ID, o.Quantity)
				}
			}
		}
	}

	for id, init := range initial {
		total := remaining[id].Add(matched[id])
		if !total.Equal(init) {
			t.Errorf("order %s: remaining %s + matched %s != initial %s",
				id, remaining[id], matched[id], init)
		}
	}
	assertNotCrossed(t, e)
}
