package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
)

// MarketDataClient talks to the external market data service for live
// quotes, FX rates and company profiles. Historical bars come from the
// local price history store, not from here.
type MarketDataClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	retries    int
}

func NewMarketDataClient(cfg config.ExternalAPIsConfig) *MarketDataClient {
	return &MarketDataClient{
		baseURL: cfg.MarketDataAPI.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:  cfg.MarketDataAPI.APIKey,
		retries: cfg.RetryCount,
	}
}

// GetQuote retrieves the live price for a ticker. A 404 maps to
// apperrors.ErrNotFound so callers can fall back to historical closes.
func (mdc *MarketDataClient) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	url := fmt.Sprintf("%s/quote/%s", mdc.baseURL, strings.ToUpper(ticker))

	var response struct {
		Data struct {
			Price         decimal.Decimal `json:"c"`
			ChangePercent *float64        `json:"dp"`
		} `json:"data"`
	}

	if err := mdc.makeRequest(ctx, http.MethodGet, url, &response); err != nil {
		return models.Quote{}, fmt.Errorf("failed to get quote for %s: %w", ticker, err)
	}

	return models.Quote{
		Price:         response.Data.Price,
		ChangePercent: response.Data.ChangePercent,
	}, nil
}

// GetExchangeRate retrieves the conversion rate between two currencies.
func (mdc *MarketDataClient) GetExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/exchange-rate?from=%s&to=%s",
		mdc.baseURL, strings.ToUpper(from), strings.ToUpper(to))

	var response struct {
		Data struct {
			Rate decimal.Decimal `json:"rate"`
		} `json:"data"`
	}

	if err := mdc.makeRequest(ctx, http.MethodGet, url, &response); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get exchange rate %s/%s: %w", from, to, err)
	}

	return response.Data.Rate, nil
}

// GetCompanyProfile retrieves descriptive company data for a ticker.
func (mdc *MarketDataClient) GetCompanyProfile(ctx context.Context, ticker string) (models.CompanyProfile, error) {
	url := fmt.Sprintf("%s/profile/%s", mdc.baseURL, strings.ToUpper(ticker))

	var response struct {
		Data struct {
			Name     string `json:"name"`
			Industry string `json:"finnhubIndustry"`
		} `json:"data"`
	}

	if err := mdc.makeRequest(ctx, http.MethodGet, url, &response); err != nil {
		return models.CompanyProfile{}, fmt.Errorf("failed to get profile for %s: %w", ticker, err)
	}

	return models.CompanyProfile{
		Name:     response.Data.Name,
		Industry: response.Data.Industry,
	}, nil
}

// makeRequest performs an HTTP request with exponential backoff. 404
// short-circuits the retry loop: a missing entity will not appear on
// the next attempt.
func (mdc *MarketDataClient) makeRequest(ctx context.Context, method, url string, response interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= mdc.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Portfolio-Analytics-API/1.0")
		if mdc.apiKey != "" {
			req.Header.Set("X-API-Key", mdc.apiKey)
		}

		resp, err := mdc.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return apperrors.ErrNotFound
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited")
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: request failed", resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(response)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to decode response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", mdc.retries+1, lastErr)
}

// IsHealthy checks if the market data service is reachable.
func (mdc *MarketDataClient) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mdc.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := mdc.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
