// Package api is the HTTP+WebSocket presentation layer in front of
// pkg/manager.OrderManager: a REST snapshot of discovered orders, a
// best-match preview endpoint, and a WebSocket feed that pushes the same
// snapshot on every discovery poll.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ckb-dex/order-core/pkg/fixedpoint"
	"github.com/ckb-dex/order-core/pkg/manager"
	"github.com/ckb-dex/order-core/pkg/ordercell"
	"github.com/ckb-dex/order-core/pkg/ratio"
	"github.com/ckb-dex/order-core/pkg/util"
)

// Server serves the order-matching core's REST/WS surface over an
// OrderManager.
type Server struct {
	om     *manager.OrderManager
	router *mux.Router
	hub    *Hub
	logger *zap.Logger
	clock  util.Clock

	bestMatchOpts manager.BestMatchOptions

	mu       sync.RWMutex
	snapshot []OrderView

	ordersDiscovered prometheus.Gauge
	pollErrors       prometheus.Counter
	bestMatchCalls   prometheus.Counter
}

// NewServer builds a Server around an already-configured OrderManager.
func NewServer(om *manager.OrderManager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		om:            om,
		router:        mux.NewRouter(),
		hub:           newHub(logger),
		logger:        logger,
		clock:         util.RealClock{},
		bestMatchOpts: manager.DefaultBestMatchOptions(),
		ordersDiscovered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "order_core_orders_discovered",
			Help: "Number of order groups found by the last discovery poll.",
		}),
		pollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "order_core_poll_errors_total",
			Help: "Total discovery poll errors.",
		}),
		bestMatchCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "order_core_best_match_requests_total",
			Help: "Total POST /api/v1/best-match requests.",
		}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", s.handleGetOrders).Methods(http.MethodGet)
	api.HandleFunc("/best-match", s.handleBestMatch).Methods(http.MethodPost)

	s.router.HandleFunc("/api/v1/orders/stream", s.handleWebSocket)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		s.logger.Debug("request", zap.String("request_id", reqID), zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving addr behind CORS, and runs the WebSocket hub and the
// background discovery poller in their own goroutines.
func (s *Server) Start(ctx context.Context, addr string, pollInterval time.Duration) error {
	go s.hub.run()
	go s.pollLoop(ctx, pollInterval)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
	})

	srv := &http.Server{Addr: addr, Handler: c.Handler(s.router)}
	s.logger.Info("api server starting", zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// pollLoop re-runs discovery on every tick, refreshes the REST snapshot and
// pushes it to subscribed WebSocket clients. Ticks are driven through
// s.clock rather than a raw time.Ticker so the cadence can be exercised
// with a fake clock in tests, without sleeping in real time.
func (s *Server) pollLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
			s.poll(ctx)
		}
	}
}

func (s *Server) poll(ctx context.Context) {
	started := s.clock.Now()

	groups, errs := s.om.FindOrders(ctx)
	var views []OrderView
	for g := range groups {
		views = append(views, toOrderView(g))
	}
	if err, ok := <-errs; ok && err != nil {
		s.pollErrors.Inc()
		s.logger.Warn("discovery poll failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.snapshot = views
	s.mu.Unlock()
	s.ordersDiscovered.Set(float64(len(views)))
	s.logger.Debug("discovery poll complete", zap.Int("orders", len(views)), zap.Duration("took", s.clock.Now().Sub(started)))

	s.hub.broadcastChannel("orders", OrdersUpdate{Type: "orders", Orders: views})
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	views := s.snapshot
	s.mu.RUnlock()
	if views == nil {
		views = []OrderView{}
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleBestMatch(w http.ResponseWriter, r *http.Request) {
	s.bestMatchCalls.Inc()

	var req BestMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	allowanceCkb, ok := new(big.Int).SetString(req.AllowanceCkb, 10)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid allowanceCkb", req.AllowanceCkb)
		return
	}
	allowanceUdt, ok := new(big.Int).SetString(req.AllowanceUdt, 10)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid allowanceUdt", req.AllowanceUdt)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	groups, errs := s.om.FindOrders(ctx)
	var pool []ordercell.OrderCell
	for g := range groups {
		pool = append(pool, g.Order)
	}
	if err, ok := <-errs; ok && err != nil {
		respondError(w, http.StatusBadGateway, "discovery failed", err.Error())
		return
	}

	allowance := manager.Allowance{Ckb: fixedpoint.FromBig(allowanceCkb), Udt: fixedpoint.FromBig(allowanceUdt)}
	exchangeRate := ratio.Ratio{CkbScale: fixedpoint.Num(req.CkbScale), UdtScale: fixedpoint.Num(req.UdtScale)}
	orderSize := fixedpoint.FromUint64(req.OrderSize)

	result := manager.BestMatch(pool, allowance, exchangeRate, orderSize, s.bestMatchOpts)
	respondJSON(w, http.StatusOK, toBestMatchResponse(result))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{hub: s.hub, conn: conn, send: make(chan []byte, 64), id: uuid.NewString(), subscriptions: map[string]bool{"orders": true}}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toOrderView(g ordercell.OrderGroup) OrderView {
	v := OrderView{
		OutPoint:       fmt.Sprintf("%s:%d", g.Order.Cell.OutPoint.TxHash.Hex(), g.Order.Cell.OutPoint.Index),
		MasterOutPoint: fmt.Sprintf("%s:%d", g.Master.OutPoint.TxHash.Hex(), g.Master.OutPoint.Index),
		UdtAmount:      g.Order.Data.UdtAmount.String(),
		Capacity:       g.Order.Capacity().String(),
		CkbUnoccupied:  g.Order.CkbUnoccupied().String(),
		CkbMinMatchLog: g.Order.Data.Info.CkbMinMatchLog,
		Fulfilled:      g.Order.IsFulfilled(),
	}
	if g.Order.Data.Info.CkbToUdt.IsPopulated() {
		v.CkbToUdt = &RatioView{CkbScale: uint64(g.Order.Data.Info.CkbToUdt.CkbScale), UdtScale: uint64(g.Order.Data.Info.CkbToUdt.UdtScale)}
	}
	if g.Order.Data.Info.UdtToCkb.IsPopulated() {
		v.UdtToCkb = &RatioView{CkbScale: uint64(g.Order.Data.Info.UdtToCkb.CkbScale), UdtScale: uint64(g.Order.Data.Info.UdtToCkb.UdtScale)}
	}
	return v
}

func toBestMatchResponse(c manager.CumulativeMatch) BestMatchResponse {
	partials := make([]PartialView, 0, len(c.Partials))
	for _, p := range c.Partials {
		partials = append(partials, PartialView{
			OutPoint: fmt.Sprintf("%s:%d", p.Order.Cell.OutPoint.TxHash.Hex(), p.Order.Cell.OutPoint.Index),
			CkbOut:   p.CkbOut.String(),
			UdtOut:   p.UdtOut.String(),
		})
	}
	return BestMatchResponse{CkbDelta: c.CkbDelta.String(), UdtDelta: c.UdtDelta.String(), Partials: partials}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg, details string) {
	respondJSON(w, status, ErrorResponse{Error: msg, Details: details})
}
