package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"portfolio-analytics-api/internal/apperrors"
	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/models"
)

// PortfolioClient fetches holding snapshots from the portfolio service,
// which owns positions and decides access. The caller's bearer token is
// forwarded so authorization stays with that service.
type PortfolioClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	retries    int
}

func NewPortfolioClient(cfg config.ExternalAPIsConfig) *PortfolioClient {
	return &PortfolioClient{
		baseURL: cfg.PortfolioAPI.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:  cfg.PortfolioAPI.APIKey,
		retries: cfg.RetryCount,
	}
}

// GetHoldings retrieves the current holdings of a portfolio on behalf
// of the requesting user. A 403 from the portfolio service maps to an
// AccessError, a 404 to ErrNotFound.
func (pc *PortfolioClient) GetHoldings(ctx context.Context, portfolioID, bearerToken string) ([]models.HoldingSnapshot, error) {
	url := fmt.Sprintf("%s/portfolios/%s/holdings", pc.baseURL, portfolioID)

	var response struct {
		Data []models.HoldingSnapshot `json:"data"`
	}

	if err := pc.makeRequest(ctx, http.MethodGet, url, bearerToken, &response); err != nil {
		return nil, fmt.Errorf("failed to get holdings for portfolio %s: %w", portfolioID, err)
	}

	return response.Data, nil
}

// makeRequest performs an HTTP request with exponential backoff.
// Authorization failures and missing portfolios short-circuit the retry
// loop; retrying cannot change either outcome.
func (pc *PortfolioClient) makeRequest(ctx context.Context, method, url, bearerToken string, response interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= pc.retries; attempt++ {
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
		if bearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+bearerToken)
		}
		if pc.apiKey != "" {
			req.Header.Set("X-API-Key", pc.apiKey)
		}

		resp, err := pc.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return apperrors.NewAccess("access to portfolio denied")
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return apperrors.ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited")
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
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

	return fmt.Errorf("request failed after %d attempts: %w", pc.retries+1, lastErr)
}

// IsHealthy checks if the portfolio service is reachable.
func (pc *PortfolioClient) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
