// Package scryfall is a minimal Scryfall API client used to backfill
// mana values missing from the cube feed.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	baseURL        = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 10 req/sec, per Scryfall guidance
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Card is the subset of Scryfall's card object the drafter needs.
type Card struct {
	Name            string  `json:"name"`
	Set             string  `json:"set"`
	CollectorNumber string  `json:"collector_number"`
	CMC             float64 `json:"cmc"`
}

// Client is a rate-limited Scryfall API client.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	baseURL     string
}

// NewClient creates a new Scryfall API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "cube-drafter/1.0",
		baseURL:     baseURL,
	}
}

// NewClientWithBaseURL creates a client pointed at an alternate API
// root, used in tests.
func NewClientWithBaseURL(url string) *Client {
	c := NewClient()
	c.baseURL = url
	return c
}

// GetCard retrieves a card by set code and collector number.
func (c *Client) GetCard(ctx context.Context, set, collectorNumber string) (*Card, error) {
	url := fmt.Sprintf("%s/cards/%s/%s", c.baseURL, set, collectorNumber)

	var card Card
	if err := c.doRequest(ctx, url, &card); err != nil {
		return nil, fmt.Errorf("get card %s/%s: %w", set, collectorNumber, err)
	}
	return &card, nil
}

// doRequest performs a GET with rate limiting and retry on transient
// failures.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("read response body: %w", readErr)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("parse JSON response: %w", err)
			}
			return nil

		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		case http.StatusNotFound:
			return fmt.Errorf("not found (HTTP 404)")

		default:
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 500 && attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}
	}

	return lastErr
}
