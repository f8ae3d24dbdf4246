package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"NewsMarkets/internal/config"
	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
)

const batchSize = 5

// Client pushes finished markets to the remote content store. All
// connection details are supplied at construction from environment-backed
// configuration.
type Client struct {
	baseURL    string
	token      string
	maxRetries int
	retryDelay time.Duration
	batchDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Publisher = (*Client)(nil)

// NewClient builds a publish client from configuration.
func NewClient(cfg config.PublishConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay(),
		batchDelay: time.Second,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

// IsConfigured reports whether both endpoint and credential are present.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.token != ""
}

// HealthCheck probes the store's health endpoint, falling back to the base
// URL when the dedicated endpoint is unavailable.
func (c *Client) HealthCheck(ctx context.Context) (bool, string) {
	if ok := c.probe(ctx, c.baseURL+"/_health"); ok {
		return true, "content store is healthy"
	}
	if ok := c.probe(ctx, c.baseURL); ok {
		return true, "content store is healthy"
	}
	return false, "content store health check failed"
}

func (c *Client) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// publishMarket is the wire shape the content store expects; the market id
// travels as externalId.
type publishMarket struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	Tags                  []string `json:"tags"`
	Status                string   `json:"status"`
	CreatedAt             string   `json:"createdAt"`
	EndTime               string   `json:"endTime"`
	ResolutionTime        string   `json:"resolutionTime"`
	YesCount              int      `json:"yesCount"`
	NoCount               int      `json:"noCount"`
	CurrentYesProbability float64  `json:"currentYesProbability"`
	CurrentNoProbability  float64  `json:"currentNoProbability"`
	ResolutionSource      string   `json:"resolutionSource"`
	ExternalID            string   `json:"externalId"`
}

// SendMarkets pushes markets in small batches and returns the subset that
// was accepted. Failures never propagate; the caller preserves unsent
// markets separately.
func (c *Client) SendMarkets(ctx context.Context, markets []domain.Market, retryOnError bool) []domain.Market {
	if !c.IsConfigured() {
		c.warn("content store not configured, skipping publish")
		return nil
	}

	if healthy, message := c.HealthCheck(ctx); !healthy {
		c.warn("health check failed before batch send", "message", message)
		if !retryOnError {
			return nil
		}
	}

	var sent []domain.Market
	for start := 0; start < len(markets); start += batchSize {
		end := min(start+batchSize, len(markets))
		for _, market := range markets[start:end] {
			if err := c.sendMarket(ctx, market, retryOnError); err != nil {
				c.warn("failed to send market", "title", market.Title, "error", err)
				continue
			}
			sent = append(sent, market)
		}
		if end < len(markets) {
			time.Sleep(c.batchDelay)
		}
	}

	c.info("publish finished", "sent", len(sent), "total", len(markets))
	return sent
}

func (c *Client) sendMarket(ctx context.Context, market domain.Market, retryOnError bool) error {
	payload, err := json.Marshal(map[string]publishMarket{"data": toPublishMarket(market)})
	if err != nil {
		return fmt.Errorf("marshal market: %w", err)
	}

	endpoint := c.baseURL + "/api/prediction-markets"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if !retryOnError {
				break
			}
			time.Sleep(c.retryDelay)
		}

		lastErr = c.post(ctx, endpoint, payload)
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content store %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func toPublishMarket(market domain.Market) publishMarket {
	return publishMarket{
		Title:                 market.Title,
		Description:           market.Description,
		Category:              market.Category,
		Tags:                  market.Tags,
		Status:                string(market.Status),
		CreatedAt:             market.CreatedAt,
		EndTime:               market.EndTime,
		ResolutionTime:        market.ResolutionTime,
		YesCount:              market.YesCount,
		NoCount:               market.NoCount,
		CurrentYesProbability: market.CurrentYesProbability,
		CurrentNoProbability:  market.CurrentNoProbability,
		ResolutionSource:      market.ResolutionSource,
		ExternalID:            market.ID,
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Client) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
