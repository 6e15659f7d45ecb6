package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"sun_transit/internal/models"

	"golang.org/x/time/rate"
)

const (
	DefaultADSBExchangeURL  = "https://adsbexchange-com1.p.rapidapi.com"
	DefaultADSBExchangeHost = "adsbexchange-com1.p.rapidapi.com"
)

// ADSBExchangeConfig holds the RapidAPI connection settings.
type ADSBExchangeConfig struct {
	BaseURL   string
	Host      string // Value of the X-RapidAPI-Host header
	APIKey    string
	RateLimit float64 // Requests per second
	Timeout   time.Duration
	Retry     RetryConfig
}

// ADSBExchangeClient queries the ADS-B Exchange v2 API through RapidAPI.
type ADSBExchangeClient struct {
	baseURL    string
	host       string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig
}

type adsbxResponse struct {
	Aircraft []Aircraft `json:"ac"`
	Msg      string     `json:"msg"`
	Total    int        `json:"total"`
}

// NewADSBExchangeClient creates a client. Zero values fall back to the public
// endpoint, one request per second and a ten second timeout.
func NewADSBExchangeClient(cfg ADSBExchangeConfig) *ADSBExchangeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultADSBExchangeURL
	}
	if cfg.Host == "" {
		cfg.Host = DefaultADSBExchangeHost
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &ADSBExchangeClient{
		baseURL:    cfg.BaseURL,
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		retry:      cfg.Retry,
	}
}

// Fetch implements Source. The API takes its radius in nautical miles.
func (c *ADSBExchangeClient) Fetch(ctx context.Context, center models.Observer, radiusKm float64) ([]models.AircraftReport, error) {
	url := fmt.Sprintf("%s/v2/lat/%s/lon/%s/dist/%s/",
		c.baseURL,
		formatCoord(center.Latitude),
		formatCoord(center.Longitude),
		strconv.FormatFloat(radiusKm/KmPerNauticalMile, 'f', 0, 64),
	)

	return retryWithBackoff(ctx, c.retry, func(ctx context.Context) ([]models.AircraftReport, error) {
		return c.get(ctx, url)
	})
}

func (c *ADSBExchangeClient) get(ctx context.Context, url string) ([]models.AircraftReport, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aircraft data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp adsbxResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w: %w", ErrMalformedResponse, err)
	}

	return Reports(apiResp.Aircraft), nil
}

// Close implements Source.
func (c *ADSBExchangeClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
