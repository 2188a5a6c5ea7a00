package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/models"
)

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) GetRiskReport(ctx context.Context, portfolioID, bearerToken, baseCurrency string, confidence float64, horizonDays, lookbackDays int) (*models.RiskReport, error) {
	args := m.Called(ctx, portfolioID, bearerToken, baseCurrency, confidence, horizonDays, lookbackDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RiskReport), args.Error(1)
}

func (m *MockAnalyticsService) GetCorrelationReport(ctx context.Context, portfolioID, bearerToken string, lookbackDays int) (*models.CorrelationReport, error) {
	args := m.Called(ctx, portfolioID, bearerToken, lookbackDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CorrelationReport), args.Error(1)
}

func (m *MockAnalyticsService) GetSignals(ctx context.Context, portfolioID, bearerToken string) (*models.PortfolioSignals, error) {
	args := m.Called(ctx, portfolioID, bearerToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioSignals), args.Error(1)
}

func (m *MockAnalyticsService) RunBacktest(ctx context.Context, strategyID, ticker string, lookbackDays int, params map[string]string) (*models.BacktestResult, error) {
	args := m.Called(ctx, strategyID, ticker, lookbackDays, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BacktestResult), args.Error(1)
}

func (m *MockAnalyticsService) GetAdvisory(ctx context.Context, ticker string, positionValue decimal.Decimal, lookbackDays int) (*models.TickerAdvisory, error) {
	args := m.Called(ctx, ticker, positionValue, lookbackDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TickerAdvisory), args.Error(1)
}

func (m *MockAnalyticsService) ListStrategies() []models.StrategyDefinition {
	args := m.Called()
	return args.Get(0).([]models.StrategyDefinition)
}

func setupRouter(service AnalyticsServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()

	router := gin.New()
	api := router.Group("/api")

	NewAnalyticsController(service, logger).RegisterRoutes(api)
	NewStrategyController(service, logger).RegisterRoutes(api)

	return router
}

func TestGetRiskReport_OK(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	report := &models.RiskReport{PortfolioID: "p1"}
	service.On("GetRiskReport", mock.Anything, "p1", "tok123", "USD", 0.99, 10, 180).Return(report, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/risk?confidence=0.99&horizon_days=10&lookback_days=180", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.RiskReport `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "p1", body.Data.PortfolioID)
	service.AssertExpectations(t)
}

func TestGetRiskReport_DefaultsWhenParamsOmitted(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	service.On("GetRiskReport", mock.Anything, "p1", "", "USD", 0.0, 0, 0).
		Return(&models.RiskReport{PortfolioID: "p1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/risk", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestGetRiskReport_InvalidConfidence(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/risk?confidence=1.5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "GetRiskReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRiskReport_InputErrorMapsTo400WithHint(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	service.On("GetRiskReport", mock.Anything, "p1", "", "USD", 0.0, 0, 0).
		Return(nil, apperrors.NewInputWithHint("add at least one equity holding", "portfolio has no holdings"))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/risk", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "portfolio has no holdings")
	assert.Contains(t, w.Body.String(), "add at least one equity holding")
}

func TestGetCorrelationReport_AccessErrorMapsTo403(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	service.On("GetCorrelationReport", mock.Anything, "p1", "", 0).
		Return(nil, apperrors.NewAccess("access to portfolio denied"))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/correlation", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetSignals_NotFoundMapsTo404(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	service.On("GetSignals", mock.Anything, "missing", "").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/missing/signals", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSignals_UnexpectedErrorMapsTo500(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	service.On("GetSignals", mock.Anything, "p1", "").Return(nil, errors.New("mongo down"))

	req := httptest.NewRequest(http.MethodGet, "/api/portfolios/p1/signals", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongo down")
}

func TestListStrategies(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	service.On("ListStrategies").Return([]models.StrategyDefinition{
		{ID: "sma_crossover", Name: "SMA Crossover"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sma_crossover")
}

func TestRunBacktest_OK(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	result := &models.BacktestResult{StrategyID: "sma_crossover", Ticker: "AAPL"}
	service.On("RunBacktest", mock.Anything, "sma_crossover", "AAPL", 365, map[string]string{"short_window": "10"}).
		Return(result, nil)

	body := `{"ticker":"AAPL","lookback_days":365,"params":{"short_window":"10"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/strategies/sma_crossover/backtest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestRunBacktest_MissingTicker(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/strategies/sma_crossover/backtest", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "RunBacktest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBacktest_RejectsNonAlphanumericTicker(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	body := `{"ticker":"AA PL; DROP"}`
	req := httptest.NewRequest(http.MethodPost, "/api/strategies/sma_crossover/backtest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAdvisory_OK(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	advisory := &models.TickerAdvisory{Ticker: "AAPL", Recommendation: "BUY"}
	service.On("GetAdvisory", mock.Anything, "AAPL", decimal.NewFromInt(10000), 90).Return(advisory, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tickers/AAPL/advisory?position_value=10000&lookback_days=90", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BUY")
}

func TestGetAdvisory_NegativePositionValue(t *testing.T) {
	service := new(MockAnalyticsService)
	router := setupRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/tickers/AAPL/advisory?position_value=-5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "GetAdvisory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
