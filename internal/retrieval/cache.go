package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// ResponseCache stores deterministic router responses.
type ResponseCache struct {
	client cache.Client
	logger *observability.Logger
	config ResponseCacheConfig
}

// ResponseCacheConfig configures the response cache.
type ResponseCacheConfig struct {
	// DefaultTTL is the default cache TTL
	DefaultTTL time.Duration
	// AnswerTTL applies to curated QA answers, which do not depend on the catalog
	AnswerTTL time.Duration
	// KeyPrefix is the cache key prefix
	KeyPrefix string
	// Enabled controls whether caching is active
	Enabled bool
}

// DefaultResponseCacheConfig returns default cache configuration.
func DefaultResponseCacheConfig() ResponseCacheConfig {
	return ResponseCacheConfig{
		DefaultTTL: 5 * time.Minute,
		AnswerTTL:  30 * time.Minute,
		KeyPrefix:  "query:response:",
		Enabled:    true,
	}
}

// NewResponseCache creates a new response cache. A nil client disables caching.
func NewResponseCache(client cache.Client, logger *observability.Logger, config ResponseCacheConfig) *ResponseCache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "query:response:"
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.AnswerTTL == 0 {
		config.AnswerTTL = config.DefaultTTL
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &ResponseCache{
		client: client,
		logger: logger,
		config: config,
	}
}

// CacheKey derives a key from the catalog version, the normalized question and the cursor.
func (c *ResponseCache) CacheKey(version, question string, page, pageSize int) string {
	parts := version + "|" + normalizeQuestion(question) + "|" + strconv.Itoa(page) + "|" + strconv.Itoa(pageSize)
	hash := sha256.Sum256([]byte(parts))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:16])
}

// CachedResponse represents a cached router response.
type CachedResponse struct {
	Response  *Response `json:"response"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a cached response if available.
func (c *ResponseCache) Get(ctx context.Context, key string) (*Response, bool) {
	if !c.config.Enabled || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Debug().Err(err).Str("key", key).Msg("Cache get error")
		}
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached response")
		return nil, false
	}

	if cached.Response == nil || time.Now().After(cached.ExpiresAt) {
		return nil, false
	}

	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return cached.Response, true
}

// Set caches a response.
func (c *ResponseCache) Set(ctx context.Context, key string, resp *Response) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}

	ttl := c.ttlFor(resp)
	now := time.Now()
	data, err := json.Marshal(CachedResponse{
		Response:  resp,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		return err
	}

	c.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached response")
	return nil
}

// Invalidate drops every cached response.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}
	c.logger.Info().Msg("Invalidating response cache")
	return c.client.DeleteByPrefix(ctx, c.config.KeyPrefix)
}

func (c *ResponseCache) ttlFor(resp *Response) time.Duration {
	if resp.Outcome == OutcomeQAHit {
		return c.config.AnswerTTL
	}
	return c.config.DefaultTTL
}
