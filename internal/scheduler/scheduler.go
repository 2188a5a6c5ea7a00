package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
)

// QuoteSource provides live quotes for the daily price sync
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker string) (models.Quote, error)
}

// PriceStore is the slice of the price history repository the
// scheduler needs
type PriceStore interface {
	ListTickers(ctx context.Context) ([]string, error)
	UpsertBars(ctx context.Context, ticker string, bars models.PriceSeries) (int, error)
	CountBars(ctx context.Context, ticker string) (int64, error)
}

// Scheduler runs the background jobs: a daily price sync that appends
// the latest close for every tracked ticker, and a periodic coverage
// check that reports how much history each ticker has.
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.SchedulerConfig
	quotes QuoteSource
	store  PriceStore
	logger *logrus.Entry
}

func NewScheduler(cfg config.SchedulerConfig, quotes QuoteSource, store PriceStore) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		cfg:    cfg,
		quotes: quotes,
		store:  store,
		logger: logrus.WithField("component", "scheduler"),
	}, nil
}

// Start registers the cron jobs and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.PriceSyncInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		s.SyncPrices(jobCtx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.CacheWarmInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		s.ReportCoverage(jobCtx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"price_sync": s.cfg.PriceSyncInterval,
		"coverage":   s.cfg.CacheWarmInterval,
	}).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() error {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

// SyncPrices appends today's close for every tracked ticker. Upserts
// make a rerun on the same day harmless.
func (s *Scheduler) SyncPrices(ctx context.Context) {
	tickers, err := s.store.ListTickers(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Price sync: failed to list tickers")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	synced := 0

	for _, ticker := range tickers {
		quote, err := s.quotes.GetQuote(ctx, ticker)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Price sync: failed to fetch quote")
			continue
		}
		if !quote.Price.IsPositive() {
			continue
		}

		price := quote.Price.InexactFloat64()
		bar := models.PricePoint{
			Date:  today,
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}

		if _, err := s.store.UpsertBars(ctx, ticker, models.PriceSeries{bar}); err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Price sync: failed to store bar")
			continue
		}
		synced++
	}

	s.logger.WithFields(logrus.Fields{
		"tickers": len(tickers),
		"synced":  synced,
	}).Info("Price sync completed")
}

// ReportCoverage logs how many bars each tracked ticker has, which is
// the first place gaps show up after an ingest problem.
func (s *Scheduler) ReportCoverage(ctx context.Context) {
	tickers, err := s.store.ListTickers(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Coverage check: failed to list tickers")
		return
	}

	var thin []string
	for _, ticker := range tickers {
		count, err := s.store.CountBars(ctx, ticker)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Coverage check: count failed")
			continue
		}
		if count < 50 {
			thin = append(thin, ticker)
		}
	}

	entry := s.logger.WithField("tickers", len(tickers))
	if len(thin) > 0 {
		entry.WithField("thin_history", thin).Warn("Coverage check: tickers below backtest minimum")
		return
	}
	entry.Info("Coverage check completed")
}
