package services

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
)

// Interfaces for testing

type CacheInterface interface {
	GetRiskReport(ctx context.Context, key string, dest interface{}) error
	SetRiskReport(ctx context.Context, key string, report interface{}) error
	GetCorrelationReport(ctx context.Context, key string, dest interface{}) error
	SetCorrelationReport(ctx context.Context, key string, report interface{}) error
	GetSignals(ctx context.Context, portfolioID string, dest interface{}) error
	SetSignals(ctx context.Context, portfolioID string, signals interface{}) error
	GetAdvisory(ctx context.Context, key string, dest interface{}) error
	SetAdvisory(ctx context.Context, key string, advisory interface{}) error
	InvalidatePortfolio(ctx context.Context, portfolioID string) error
}

type HoldingsClientInterface interface {
	GetHoldings(ctx context.Context, portfolioID, bearerToken string) ([]models.HoldingSnapshot, error)
}

type RiskEngineInterface interface {
	ComputeRiskAnalytics(ctx context.Context, portfolioID, baseCurrency string, holdings []models.HoldingSnapshot, confidence float64, horizonDays, lookbackDays int) (*models.RiskReport, error)
}

type CorrelationEngineInterface interface {
	AnalyzeCorrelation(ctx context.Context, portfolioID string, holdings []models.HoldingSnapshot, lookbackDays int) (*models.CorrelationReport, error)
}

type StrategyEngineInterface interface {
	Backtest(ctx context.Context, strategyID, ticker string, lookbackDays int, params map[string]string) (*models.BacktestResult, error)
	GenerateSignals(ctx context.Context, portfolioID string, holdings []models.HoldingSnapshot) (*models.PortfolioSignals, error)
	Advise(ctx context.Context, ticker string, positionValue decimal.Decimal, lookbackDays int) (*models.TickerAdvisory, error)
}

type EventPublisherInterface interface {
	PublishReportComputed(ctx context.Context, portfolioID, ticker, reportType string) (string, error)
}

var (
	reportsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_reports_computed_total",
		Help: "Number of analytics reports computed, by report type",
	}, []string{"type"})

	reportCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_report_cache_hits_total",
		Help: "Number of analytics reports served from cache, by report type",
	}, []string{"type"})
)

// AnalyticsService orchestrates the analytics engines behind the HTTP
// API: holdings come from the portfolio service, computed reports are
// cached in Redis and announced on the message bus.
type AnalyticsService struct {
	portfolioClient   HoldingsClientInterface
	riskEngine        RiskEngineInterface
	correlationEngine CorrelationEngineInterface
	strategyEngine    StrategyEngineInterface
	cache             CacheInterface
	publisher         EventPublisherInterface
	catalog           []models.StrategyDefinition
	cfg               config.AnalyticsConfig
	logger            *logrus.Entry
}

func NewAnalyticsService(
	portfolioClient HoldingsClientInterface,
	riskEngine RiskEngineInterface,
	correlationEngine CorrelationEngineInterface,
	strategyEngine StrategyEngineInterface,
	cache CacheInterface,
	publisher EventPublisherInterface,
	catalog []models.StrategyDefinition,
	cfg config.AnalyticsConfig,
) *AnalyticsService {
	return &AnalyticsService{
		portfolioClient:   portfolioClient,
		riskEngine:        riskEngine,
		correlationEngine: correlationEngine,
		strategyEngine:    strategyEngine,
		cache:             cache,
		publisher:         publisher,
		catalog:           catalog,
		cfg:               cfg,
		logger:            logrus.WithField("component", "analytics_service"),
	}
}

// GetRiskReport returns the risk analytics for a portfolio, serving
// from cache when the same parameters were computed recently.
func (s *AnalyticsService) GetRiskReport(ctx context.Context, portfolioID, bearerToken, baseCurrency string, confidence float64, horizonDays, lookbackDays int) (*models.RiskReport, error) {
	confidence, horizonDays, lookbackDays = s.applyDefaults(confidence, horizonDays, lookbackDays)

	cacheKey := fmt.Sprintf("%s:%.2f:%d:%d", portfolioID, confidence, horizonDays, lookbackDays)

	var cached models.RiskReport
	if err := s.cache.GetRiskReport(ctx, cacheKey, &cached); err == nil {
		reportCacheHits.WithLabelValues("risk").Inc()
		return &cached, nil
	}

	holdings, err := s.portfolioClient.GetHoldings(ctx, portfolioID, bearerToken)
	if err != nil {
		return nil, err
	}

	report, err := s.riskEngine.ComputeRiskAnalytics(ctx, portfolioID, baseCurrency, holdings, confidence, horizonDays, lookbackDays)
	if err != nil {
		return nil, err
	}

	reportsComputed.WithLabelValues("risk").Inc()
	if err := s.cache.SetRiskReport(ctx, cacheKey, report); err != nil {
		s.logger.WithError(err).Warn("Failed to cache risk report")
	}
	s.publishEvent(ctx, portfolioID, "", "risk")

	return report, nil
}

// GetCorrelationReport returns the correlation and diversification
// analysis for a portfolio.
func (s *AnalyticsService) GetCorrelationReport(ctx context.Context, portfolioID, bearerToken string, lookbackDays int) (*models.CorrelationReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.DefaultLookbackDays
	}

	cacheKey := fmt.Sprintf("%s:%d", portfolioID, lookbackDays)

	var cached models.CorrelationReport
	if err := s.cache.GetCorrelationReport(ctx, cacheKey, &cached); err == nil {
		reportCacheHits.WithLabelValues("correlation").Inc()
		return &cached, nil
	}

	holdings, err := s.portfolioClient.GetHoldings(ctx, portfolioID, bearerToken)
	if err != nil {
		return nil, err
	}

	report, err := s.correlationEngine.AnalyzeCorrelation(ctx, portfolioID, holdings, lookbackDays)
	if err != nil {
		return nil, err
	}

	reportsComputed.WithLabelValues("correlation").Inc()
	if err := s.cache.SetCorrelationReport(ctx, cacheKey, report); err != nil {
		s.logger.WithError(err).Warn("Failed to cache correlation report")
	}
	s.publishEvent(ctx, portfolioID, "", "correlation")

	return report, nil
}

// GetSignals returns actionable trade signals for every eligible
// holding of a portfolio.
func (s *AnalyticsService) GetSignals(ctx context.Context, portfolioID, bearerToken string) (*models.PortfolioSignals, error) {
	var cached models.PortfolioSignals
	if err := s.cache.GetSignals(ctx, portfolioID, &cached); err == nil {
		reportCacheHits.WithLabelValues("signals").Inc()
		return &cached, nil
	}

	holdings, err := s.portfolioClient.GetHoldings(ctx, portfolioID, bearerToken)
	if err != nil {
		return nil, err
	}

	signals, err := s.strategyEngine.GenerateSignals(ctx, portfolioID, holdings)
	if err != nil {
		return nil, err
	}

	reportsComputed.WithLabelValues("signals").Inc()
	if err := s.cache.SetSignals(ctx, portfolioID, signals); err != nil {
		s.logger.WithError(err).Warn("Failed to cache signals")
	}
	s.publishEvent(ctx, portfolioID, "", "signals")

	return signals, nil
}

// RunBacktest executes a strategy backtest. Results are not cached:
// parameter combinations are effectively unbounded and runs are cheap
// once the price history is local.
func (s *AnalyticsService) RunBacktest(ctx context.Context, strategyID, ticker string, lookbackDays int, params map[string]string) (*models.BacktestResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.DefaultLookbackDays
	}

	result, err := s.strategyEngine.Backtest(ctx, strategyID, ticker, lookbackDays, params)
	if err != nil {
		return nil, err
	}

	reportsComputed.WithLabelValues("backtest").Inc()
	s.publishEvent(ctx, "", ticker, "backtest")

	return result, nil
}

// GetAdvisory returns the technical advisory for a single ticker.
func (s *AnalyticsService) GetAdvisory(ctx context.Context, ticker string, positionValue decimal.Decimal, lookbackDays int) (*models.TickerAdvisory, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.DefaultLookbackDays
	}

	cacheKey := fmt.Sprintf("%s:%s:%d", ticker, positionValue.String(), lookbackDays)

	var cached models.TickerAdvisory
	if err := s.cache.GetAdvisory(ctx, cacheKey, &cached); err == nil {
		reportCacheHits.WithLabelValues("advisory").Inc()
		return &cached, nil
	}

	advisory, err := s.strategyEngine.Advise(ctx, ticker, positionValue, lookbackDays)
	if err != nil {
		return nil, err
	}

	reportsComputed.WithLabelValues("advisory").Inc()
	if err := s.cache.SetAdvisory(ctx, cacheKey, advisory); err != nil {
		s.logger.WithError(err).Warn("Failed to cache advisory")
	}
	s.publishEvent(ctx, "", advisory.Ticker, "advisory")

	return advisory, nil
}

// ListStrategies returns the backtestable strategy catalog.
func (s *AnalyticsService) ListStrategies() []models.StrategyDefinition {
	return s.catalog
}

// InvalidatePortfolio drops every cached report for a portfolio. Wired
// to portfolio change events from the message bus.
func (s *AnalyticsService) InvalidatePortfolio(ctx context.Context, portfolioID string) error {
	if err := s.cache.InvalidatePortfolio(ctx, portfolioID); err != nil {
		return fmt.Errorf("failed to invalidate cache for portfolio %s: %w", portfolioID, err)
	}
	s.logger.WithField("portfolio_id", portfolioID).Debug("Invalidated cached reports")
	return nil
}

func (s *AnalyticsService) applyDefaults(confidence float64, horizonDays, lookbackDays int) (float64, int, int) {
	if confidence <= 0 {
		confidence = s.cfg.DefaultConfidence
	}
	if horizonDays <= 0 {
		horizonDays = s.cfg.DefaultHorizonDays
	}
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.DefaultLookbackDays
	}
	return confidence, horizonDays, lookbackDays
}

// publishEvent announces a computed report. A broker outage must not
// fail the request that produced the report.
func (s *AnalyticsService) publishEvent(ctx context.Context, portfolioID, ticker, reportType string) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishReportComputed(ctx, portfolioID, ticker, reportType); err != nil {
		s.logger.WithError(err).WithField("report_type", reportType).Warn("Failed to publish report event")
	}
}
