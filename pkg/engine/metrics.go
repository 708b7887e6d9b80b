package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the engine's operational counters. TriggerBacklog is the
// one to watch: the trigger queue is deliberately tiny and coalescing, so a
// persistently full queue means the match worker is falling behind.
type Metrics struct {
	OrdersAccepted    prometheus.Counter
	OrdersRejected    prometheus.Counter
	TradesExecuted    prometheus.Counter
	MatchPasses       prometheus.Counter
	TriggersCoalesced prometheus.Counter
	TriggerBacklog    prometheus.Gauge
	RestingOrders     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "venue_orders_accepted_total", Help: "Orders admitted to the book"}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "venue_orders_rejected_total", Help: "Submit requests failing validation"}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "venue_trades_executed_total", Help: "Trades appended to the ledger"}),
		MatchPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "venue_match_passes_total", Help: "Completed match passes"}),
		TriggersCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "venue_match_triggers_coalesced_total", Help: "Match triggers collapsed into an already-pending one"}),
		TriggerBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "venue_match_trigger_backlog", Help: "Match triggers waiting for the worker"}),
		RestingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "venue_resting_orders", Help: "Orders currently resting across both sides"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.OrdersAccepted, m.OrdersRejected, m.TradesExecuted,
			m.MatchPasses, m.TriggersCoalesced, m.TriggerBacklog, m.RestingOrders,
		)
	}
	return m
}
