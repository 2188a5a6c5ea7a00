package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-analytics-api/internal/config"
)

// ErrNotFound is returned when a key is not found in cache
var ErrNotFound = errors.New("key not found in cache")

// RedisClient represents Redis cache client
type RedisClient struct {
	client *redis.Client
	config config.CacheConfig
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg config.CacheConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConnections,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: rdb,
		config: cfg,
	}, nil
}

// Set stores a value with TTL
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.Set(ctx, key, data, ttl).Err()
}

// Get retrieves a value and unmarshals it
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

// Delete removes a key
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Exists checks if a key exists
func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	return count > 0, err
}

// TTL returns the time to live for a key
func (r *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, key).Result()
}

// Keys returns keys matching a pattern
func (r *RedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.client.Keys(ctx, pattern).Result()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetStats returns cache statistics
func (r *RedisClient) GetStats(ctx context.Context) (map[string]string, error) {
	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		return nil, err
	}

	stats := make(map[string]string)
	lines := strings.Split(info, "\r\n")
	for _, line := range lines {
		if strings.Contains(line, ":") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				stats[parts[0]] = parts[1]
			}
		}
	}

	return stats, nil
}

// Analytics-specific cache methods

// SetRiskReport caches a computed risk report
func (r *RedisClient) SetRiskReport(ctx context.Context, key string, report interface{}) error {
	return r.Set(ctx, "risk:"+key, report, r.config.RiskReportTTL)
}

// GetRiskReport retrieves a cached risk report
func (r *RedisClient) GetRiskReport(ctx context.Context, key string, dest interface{}) error {
	return r.Get(ctx, "risk:"+key, dest)
}

// SetCorrelationReport caches a correlation analysis
func (r *RedisClient) SetCorrelationReport(ctx context.Context, key string, report interface{}) error {
	return r.Set(ctx, "correlation:"+key, report, r.config.CorrelationTTL)
}

// GetCorrelationReport retrieves a cached correlation analysis
func (r *RedisClient) GetCorrelationReport(ctx context.Context, key string, dest interface{}) error {
	return r.Get(ctx, "correlation:"+key, dest)
}

// SetSignals caches portfolio trade signals
func (r *RedisClient) SetSignals(ctx context.Context, portfolioID string, signals interface{}) error {
	return r.Set(ctx, "signals:"+portfolioID, signals, r.config.SignalsTTL)
}

// GetSignals retrieves cached portfolio trade signals
func (r *RedisClient) GetSignals(ctx context.Context, portfolioID string, dest interface{}) error {
	return r.Get(ctx, "signals:"+portfolioID, dest)
}

// SetAdvisory caches a ticker advisory
func (r *RedisClient) SetAdvisory(ctx context.Context, key string, advisory interface{}) error {
	return r.Set(ctx, "advisory:"+key, advisory, r.config.AdvisoryTTL)
}

// GetAdvisory retrieves a cached ticker advisory
func (r *RedisClient) GetAdvisory(ctx context.Context, key string, dest interface{}) error {
	return r.Get(ctx, "advisory:"+key, dest)
}

// InvalidatePortfolio removes every cached report for a portfolio
func (r *RedisClient) InvalidatePortfolio(ctx context.Context, portfolioID string) error {
	keys, err := r.Keys(ctx, fmt.Sprintf("*:%s*", portfolioID))
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.Delete(ctx, keys...)
	}

	return nil
}
