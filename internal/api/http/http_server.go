package http

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vmartynenko/clob-engine/internal/api/dto"
	"github.com/vmartynenko/clob-engine/internal/core"
	"github.com/vmartynenko/clob-engine/internal/domain"
	"github.com/vmartynenko/clob-engine/internal/middleware"
)

type HTTPServer struct {
	Eng         *core.Engine
	submittedID sync.Map // order_id -> struct{}, for idempotent resubmission
}

func NewHTTPServer(eng *core.Engine) *HTTPServer {
	return &HTTPServer{Eng: eng}
}

func (s *HTTPServer) Run(addr string) error {
	r := gin.Default()

	rl := middleware.NewRateLimiter(100 * time.Millisecond)
	r.Use(rl.Middleware())

	r.POST("/orders", s.submitOrder)
	r.GET("/orders/:id", s.getOrder)
	r.GET("/orders/:id/trades", s.getTrades)
	r.GET("/orderbook", s.getOrderbook)
	r.GET("/stats", s.getStats)
	r.GET("/healthz", s.healthz)

	return r.Run(addr)
}

func (s *HTTPServer) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateOrder(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.OrderID != "" {
		if _, exists := s.submittedID.LoadOrStore(req.OrderID, struct{}{}); exists {
			c.JSON(http.StatusOK, gin.H{"message": "duplicate order", "order_id": req.OrderID})
			return
		}
	}

	o := &domain.Order{
		ClientID: req.ClientID,
		Side:     domain.Side(req.Side),
		Type:     domain.OrderType(req.Type),
		Price:    req.Price,
		Quantity: req.Quantity,
	}

	trades, err := s.Eng.SubmitOrder(c.Request.Context(), o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SubmitOrderResponse{
		OrderID:   o.ID,
		Trades:    convertTrades(trades),
		Remaining: o.Remaining(),
		Status:    string(o.Status),
	})
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	o, err := s.Eng.GetOrder(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.GetOrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	trades := s.Eng.GetTradesForOrder(id)
	c.JSON(http.StatusOK, dto.GetTradesResponse{Trades: convertTrades(trades)})
}

func (s *HTTPServer) getOrderbook(c *gin.Context) {
	snap := s.Eng.GetOrderbook(c.Request.Context())
	c.JSON(http.StatusOK, dto.GetOrderbookResponse{
		Symbol: snap.Symbol,
		Bids:   convertLevels(snap.Bids),
		Asks:   convertLevels(snap.Asks),
	})
}

func (s *HTTPServer) getStats(c *gin.Context) {
	st := s.Eng.Stats()
	c.JSON(http.StatusOK, dto.StatsResponse{
		OrdersProcessed: st.OrdersProcessed,
		TradesExecuted:  st.TradesExecuted,
		QuantityTraded:  st.QuantityTraded,
	})
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func convertOrder(o *domain.Order) dto.Order {
	return dto.Order{
		ID:             o.ID,
		ClientID:       o.ClientID,
		Symbol:         o.Symbol,
		Side:           dto.Side(o.Side),
		Type:           dto.OrderType(o.Type),
		Price:          o.Price,
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		Status:         string(o.Status),
		Timestamp:      o.Timestamp,
	}
}

func convertTrades(trades []*domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = dto.Trade{
			ID:          t.ID,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Quantity:    t.Quantity,
			Timestamp:   t.Timestamp,
		}
	}
	return res
}

func convertLevels(levels []domain.PriceLevelView) []dto.PriceLevel {
	res := make([]dto.PriceLevel, len(levels))
	for i, l := range levels {
		res[i] = dto.PriceLevel{Price: l.Price, Quantity: l.Quantity}
	}
	return res
}

func validateOrder(req *dto.SubmitOrderRequest) error {
	switch req.Side {
	case dto.Buy, dto.Sell:
	default:
		return fmt.Errorf("invalid side: %s", req.Side)
	}
	switch req.Type {
	case dto.Limit, dto.Market:
	default:
		return fmt.Errorf("invalid order type: %s", req.Type)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if req.Type == dto.Limit && !req.Price.IsPositive() {
		return fmt.Errorf("price must be > 0 for LIMIT orders")
	}
	return nil
}
