package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StrategyController serves the strategy catalog, backtests and
// single-ticker advisory endpoints
type StrategyController struct {
	service  AnalyticsServiceInterface
	logger   *logrus.Logger
	validate *validator.Validate
}

func NewStrategyController(service AnalyticsServiceInterface, logger *logrus.Logger) *StrategyController {
	return &StrategyController{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

func (c *StrategyController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/strategies", c.ListStrategies)
	r.POST("/strategies/:strategyId/backtest", c.RunBacktest)
	r.GET("/tickers/:ticker/advisory", c.GetAdvisory)
}

// ListStrategies returns the backtestable strategy catalog
func (c *StrategyController) ListStrategies(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"data": c.service.ListStrategies()})
}

// BacktestRequest is the backtest request payload
type BacktestRequest struct {
	Ticker       string            `json:"ticker" binding:"required"`
	LookbackDays int               `json:"lookback_days"`
	Params       map[string]string `json:"params"`
}

// RunBacktest executes a historical strategy simulation for a ticker
func (c *StrategyController) RunBacktest(ctx *gin.Context) {
	strategyID := ctx.Param("strategyId")

	var req BacktestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.validate.Var(req.Ticker, "required,alphanum,max=12"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "ticker must be alphanumeric, at most 12 characters"})
		return
	}

	result, err := c.service.RunBacktest(ctx.Request.Context(), strategyID, req.Ticker, req.LookbackDays, req.Params)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": result})
}

// GetAdvisory returns the technical advisory for a single ticker
func (c *StrategyController) GetAdvisory(ctx *gin.Context) {
	ticker := ctx.Param("ticker")
	if err := c.validate.Var(ticker, "required,alphanum,max=12"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "ticker must be alphanumeric, at most 12 characters"})
		return
	}

	positionValue := decimal.Zero
	if raw := ctx.Query("position_value"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "position_value must be a non-negative number"})
			return
		}
		positionValue = parsed
	}

	lookbackDays, err := queryInt(ctx, "lookback_days", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lookback_days must be an integer"})
		return
	}

	advisory, err := c.service.GetAdvisory(ctx.Request.Context(), ticker, positionValue, lookbackDays)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": advisory})
}
