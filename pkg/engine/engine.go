package engine

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mwaaas/OrderBook/pkg/book"
	"github.com/mwaaas/OrderBook/pkg/util"
)

const DefaultInstrument = "BTC-USD"

// Options configures an Engine. Zero values get sensible defaults so tests
// can do engine.New(engine.Options{}).
type Options struct {
	Instrument string
	Clock      util.Clock
	Logger     *zap.SugaredLogger
	Registry   prometheus.Registerer

	// OnTrades is invoked from the match worker after each pass that
	// produced trades, outside the book lock. Used by the API layer to
	// feed the websocket hub.
	OnTrades func([]book.Trade)
}

// Engine owns the venue's shared mutable state: both side books and the
// trade ledger. It is an explicit instance handed to collaborators, not a
// process-wide singleton. One mutex serializes every book mutation: order
// intake inserts and the match pass's scan-and-mutate both run under it,
// so a pass always observes a stable book.
type Engine struct {
	mu     sync.Mutex
	bids   *book.SideBook
	asks   *book.SideBook
	seq    uint64 // intake arrival counter, guarded by mu
	ledger *TradeLedger

	clock      util.Clock
	log        *zap.SugaredLogger
	metrics    *Metrics
	onTrades   func([]book.Trade)
	instrument string

	// trigger carries match-pass requests to the single worker. Capacity 1
	// with a non-blocking send: a pending trigger absorbs any number of
	// later ones, which is safe because a pass rescans the whole book.
	trigger chan struct{}
}

func New(opts Options) *Engine {
	if opts.Instrument == "" {
		opts.Instrument = DefaultInstrument
	}
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Engine{
		bids:       book.NewSideBook(book.Buy),
		asks:       book.NewSideBook(book.Sell),
		ledger:     NewTradeLedger(),
		clock:      opts.Clock,
		log:        opts.Logger,
		metrics:    NewMetrics(opts.Registry),
		onTrades:   opts.OnTrades,
		instrument: opts.Instrument,
		trigger:    make(chan struct{}, 1),
	}
}

// NotifyOrderAdded schedules a match pass. Fire-and-forget: the order id is
// informational only, the triggered pass rescans both books regardless of
// which submission caused it.
func (e *Engine) NotifyOrderAdded(orderID string) {
	select {
	case e.trigger <- struct{}{}:
		e.metrics.TriggerBacklog.Set(float64(len(e.trigger)))
	default:
		e.metrics.TriggersCoalesced.Inc()
	}
}

// Run drives the match worker until ctx is cancelled. Exactly one pass is
// in flight at a time; callers start Run in a single goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.log.Infow("match worker started", "instrument", e.instrument)
	for {
		select {
		case <-ctx.Done():
			e.log.Infow("match worker stopped")
			return
		case <-e.trigger:
			e.metrics.TriggerBacklog.Set(float64(len(e.trigger)))
			trades := e.MatchPass()
			if len(trades) > 0 {
				e.log.Infow("match pass executed trades", "count", len(trades))
				if e.onTrades != nil {
					e.onTrades(trades)
				}
			}
		}
	}
}

// BookSnapshot copies the current state of both side books, price-keyed
// with FIFO queues, without mutating anything.
func (e *Engine) BookSnapshot() (bids, asks map[string][]book.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bids.Snapshot(), e.asks.Snapshot()
}

// TradeHistory returns the ledger in append order.
func (e *Engine) TradeHistory() []book.Trade {
	return e.ledger.Snapshot()
}

// Instrument returns the venue's default trading pair tag.
func (e *Engine) Instrument() string { return e.instrument }
