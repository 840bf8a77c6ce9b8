package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"option-trader/internal/broker"
	"option-trader/internal/model"
	"option-trader/internal/runner"
	"option-trader/internal/storage"
)

type Handler struct {
	runner *runner.Runner
	broker broker.Broker
	store  *storage.Store
	logger *zap.Logger
}

func NewHandler(r *runner.Runner, b broker.Broker, store *storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		runner: r,
		broker: b,
		store:  store,
		logger: logger,
	}
}

// Login establishes the brokerage session and reports both account balances.
func (h *Handler) Login(c *gin.Context) {
	var creds broker.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := broker.Connect(c.Request.Context(), h.broker, creds, h.logger); err != nil {
		h.logger.Error("broker login failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	balances := gin.H{}
	for _, mode := range []string{model.ModeLive, model.ModePractice} {
		if err := h.broker.ChangeBalance(c.Request.Context(), mode); err != nil {
			continue
		}
		if b, err := h.broker.GetBalance(c.Request.Context()); err == nil {
			balances[mode] = b
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"email":    creds.Email,
		"balances": balances,
	})
}

// Trade triggers one synchronous manual cycle.
func (h *Handler) Trade(c *gin.Context) {
	var req struct {
		Mode    string           `json:"mode"`
		Amount  *decimal.Decimal `json:"amount"`
		Execute bool             `json:"execute"`
		Force   bool             `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.runner.ExecuteManual(c.Request.Context(), runner.ManualRequest{
		Mode:    req.Mode,
		Amount:  req.Amount,
		Execute: req.Execute,
		Force:   req.Force,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, model.ErrTradeInFlight):
			status = http.StatusConflict
		case errors.Is(err, model.ErrData), errors.Is(err, model.ErrOrderRejected):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, model.ErrConnection):
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// StartBot launches the autonomous loop. Omitted fields fall back to the
// stock risk profile.
func (h *Handler) StartBot(c *gin.Context) {
	cfg := model.DefaultRunConfig()
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if cfg.Mode != model.ModePractice && cfg.Mode != model.ModeLive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be practice or live"})
		return
	}

	if err := h.runner.Start(cfg); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg})
}

func (h *Handler) StopBot(c *gin.Context) {
	h.runner.Stop()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) BotStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.Status())
}

func (h *Handler) ResetRisk(c *gin.Context) {
	h.runner.ResetRisk()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// History returns the most recent trades, newest first.
func (h *Handler) History(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > storage.MaxTrades {
		limit = storage.MaxTrades
	}

	trades, err := h.store.History(limit)
	if err != nil {
		h.logger.Error("failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// Balance reports the balance of the requested account.
func (h *Handler) Balance(c *gin.Context) {
	mode := c.DefaultQuery("mode", model.ModePractice)
	if err := h.broker.ChangeBalance(c.Request.Context(), mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.broker.GetBalance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "balance": balance})
}
