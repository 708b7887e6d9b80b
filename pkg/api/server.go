package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mwaaas/OrderBook/pkg/book"
	"github.com/mwaaas/OrderBook/pkg/engine"
)

// Server is the venue's HTTP boundary: order submission, book and trade
// snapshots, health, Prometheus metrics and the WebSocket trade feed. It
// holds an Engine handle and owns no book state of its own.
type Server struct {
	engine   *engine.Engine
	router   *mux.Router
	hub      *Hub
	log      *zap.SugaredLogger
	gatherer prometheus.Gatherer
}

// NewServer wires the routes. gatherer may be nil when /metrics is not
// wanted (tests).
func NewServer(eng *engine.Engine, logger *zap.SugaredLogger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		engine:   eng,
		router:   mux.NewRouter(),
		hub:      NewHub(logger),
		log:      logger,
		gatherer: gatherer,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/order/limit", s.handleSubmitOrder).Methods("POST")
	s.router.HandleFunc("/orderbook", s.handleGetOrderBook).Methods("GET")
	s.router.HandleFunc("/tradehistory", s.handleGetTradeHistory).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
}

// Handler returns the full middleware-wrapped handler and starts the
// WebSocket hub.
func (s *Server) Handler() http.Handler {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Router exposes the bare mux for tests.
func (s *Server) Router() *mux.Router { return s.router }

/* POST /order/limit

Admits a limit order and schedules a match pass.

Sample request:
  {"side": "SELL", "price": 100.0, "quantity": 2.0, "customerOrderId": "test-1"}

Response 201 (application/json):
  {"id": "c6f7b4f6-..."}

Response 400 on a malformed body or invalid side/price/quantity. */
func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := s.engine.SubmitOrder(engine.SubmitRequest{
		Side:          req.Side,
		Price:         req.Price,
		Quantity:      req.Quantity,
		Instrument:    req.CurrencyPair,
		ClientOrderID: req.CustomerOrder,
		TimeInForce:   req.TimeInForce,
		PostOnly:      req.PostOnly,
		AllowMargin:   req.AllowMargin,
		ReduceOnly:    req.ReduceOnly,
	})
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, "invalid order", verr.Error())
			return
		}
		s.log.Errorw("submit failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	s.log.Infow("order submitted", "id", order.ID, "side", order.Side.String(),
		"price", order.Price.String(), "quantity", order.Quantity.String())
	respondJSONStatus(w, http.StatusCreated, SubmitOrderResponse{ID: order.ID})
}

/* GET /orderbook

Returns the current book snapshot: both sides keyed by price, queues in
time priority order.

Response 200 (application/json):
  {"Asks": {}, "Bids": {}} */
func (s *Server) handleGetOrderBook(w http.ResponseWriter, r *http.Request) {
	bids, asks := s.engine.BookSnapshot()
	respondJSON(w, OrderBookResponse{
		Bids: sideInfo(bids),
		Asks: sideInfo(asks),
	})
}

/* GET /tradehistory

Returns every executed trade in match order. */
func (s *Server) handleGetTradeHistory(w http.ResponseWriter, r *http.Request) {
	trades := s.engine.TradeHistory()
	if trades == nil {
		trades = []book.Trade{}
	}
	respondJSON(w, trades)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// BroadcastTrades pushes executed trades to subscribed WebSocket clients.
// Wired as the engine's OnTrades callback.
func (s *Server) BroadcastTrades(trades []book.Trade) {
	for _, t := range trades {
		s.hub.BroadcastToChannel("trades:"+t.Instrument, TradeUpdate{Type: "trade", Trade: t})
	}
}

func sideInfo(side map[string][]book.Order) map[string][]OrderInfo {
	out := make(map[string][]OrderInfo, len(side))
	for price, orders := range side {
		infos := make([]OrderInfo, len(orders))
		for i, o := range orders {
			infos[i] = orderInfo(o)
		}
		out[price] = infos
	}
	return out
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	respondJSONStatus(w, http.StatusOK, data)
}

func respondJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
