// Package dump1090 reads aircraft from a local dump1090 or readsb receiver.
package dump1090

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sun_transit/internal/feed"
	"sun_transit/internal/geometry"
	"sun_transit/internal/models"
)

// DefaultURL is where dump1090-fa serves its aircraft list.
const DefaultURL = "http://localhost:8080/data/aircraft.json"

// Client polls a receiver's aircraft.json. The receiver only knows what it can
// hear, so the search radius is applied here rather than by the server.
type Client struct {
	url        string
	httpClient *http.Client
}

type aircraftList struct {
	Now      float64         `json:"now"`
	Messages int             `json:"messages"`
	Aircraft []feed.Aircraft `json:"aircraft"`
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch implements feed.Source. Aircraft without a position are kept so the
// detector sees the full snapshot; only positioned aircraft outside the
// radius are dropped.
func (c *Client) Fetch(ctx context.Context, center models.Observer, radiusKm float64) ([]models.AircraftReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &feed.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var list aircraftList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse aircraft.json: %w: %w", feed.ErrMalformedResponse, err)
	}

	reports := make([]models.AircraftReport, 0, len(list.Aircraft))
	for _, r := range feed.Reports(list.Aircraft) {
		if r.Lat != nil && r.Lon != nil && radiusKm > 0 {
			dist := geometry.GroundDistance(center.Latitude, center.Longitude, *r.Lat, *r.Lon)
			if dist > radiusKm*1000 {
				continue
			}
		}
		reports = append(reports, r)
	}

	return reports, nil
}

// Close implements feed.Source.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
