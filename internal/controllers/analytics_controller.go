package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
)

// AnalyticsServiceInterface is the service surface the controllers need
type AnalyticsServiceInterface interface {
	GetRiskReport(ctx context.Context, portfolioID, bearerToken, baseCurrency string, confidence float64, horizonDays, lookbackDays int) (*models.RiskReport, error)
	GetCorrelationReport(ctx context.Context, portfolioID, bearerToken string, lookbackDays int) (*models.CorrelationReport, error)
	GetSignals(ctx context.Context, portfolioID, bearerToken string) (*models.PortfolioSignals, error)
	RunBacktest(ctx context.Context, strategyID, ticker string, lookbackDays int, params map[string]string) (*models.BacktestResult, error)
	GetAdvisory(ctx context.Context, ticker string, positionValue decimal.Decimal, lookbackDays int) (*models.TickerAdvisory, error)
	ListStrategies() []models.StrategyDefinition
}

// AnalyticsController serves the portfolio-level analytics endpoints
type AnalyticsController struct {
	service AnalyticsServiceInterface
	logger  *logrus.Logger
}

func NewAnalyticsController(service AnalyticsServiceInterface, logger *logrus.Logger) *AnalyticsController {
	return &AnalyticsController{
		service: service,
		logger:  logger,
	}
}

func (c *AnalyticsController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/portfolios/:portfolioId/risk", c.GetRiskReport)
	r.GET("/portfolios/:portfolioId/correlation", c.GetCorrelationReport)
	r.GET("/portfolios/:portfolioId/signals", c.GetSignals)
}

// GetRiskReport computes the full risk report for a portfolio
func (c *AnalyticsController) GetRiskReport(ctx *gin.Context) {
	portfolioID := ctx.Param("portfolioId")

	confidence, err := queryFloat(ctx, "confidence", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "confidence must be a number"})
		return
	}
	if confidence != 0 && (confidence <= 0 || confidence >= 1) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "confidence must be between 0 and 1"})
		return
	}

	horizonDays, err := queryInt(ctx, "horizon_days", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "horizon_days must be an integer"})
		return
	}

	lookbackDays, err := queryInt(ctx, "lookback_days", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lookback_days must be an integer"})
		return
	}

	baseCurrency := strings.ToUpper(ctx.DefaultQuery("base_currency", "USD"))

	report, err := c.service.GetRiskReport(ctx.Request.Context(), portfolioID, bearerToken(ctx), baseCurrency, confidence, horizonDays, lookbackDays)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": report})
}

// GetCorrelationReport computes the correlation and diversification report
func (c *AnalyticsController) GetCorrelationReport(ctx *gin.Context) {
	portfolioID := ctx.Param("portfolioId")

	lookbackDays, err := queryInt(ctx, "lookback_days", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lookback_days must be an integer"})
		return
	}

	report, err := c.service.GetCorrelationReport(ctx.Request.Context(), portfolioID, bearerToken(ctx), lookbackDays)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": report})
}

// GetSignals returns actionable trade signals for a portfolio
func (c *AnalyticsController) GetSignals(ctx *gin.Context) {
	portfolioID := ctx.Param("portfolioId")

	signals, err := c.service.GetSignals(ctx.Request.Context(), portfolioID, bearerToken(ctx))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": signals})
}

// respondError maps domain errors onto HTTP status codes
func (c *AnalyticsController) respondError(ctx *gin.Context, err error) {
	respondError(ctx, c.logger, err)
}

func respondError(ctx *gin.Context, logger *logrus.Logger, err error) {
	var inputErr *apperrors.InputError
	if errors.As(err, &inputErr) {
		body := gin.H{"error": inputErr.Msg}
		if inputErr.Hint != "" {
			body["hint"] = inputErr.Hint
		}
		ctx.JSON(http.StatusBadRequest, body)
		return
	}

	if apperrors.IsAccess(err) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	logger.Errorf("Request failed: %v", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bearerToken extracts the raw bearer token to forward to the
// portfolio service, which enforces ownership.
func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func queryFloat(ctx *gin.Context, name string, def float64) (float64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func queryInt(ctx *gin.Context, name string, def int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
