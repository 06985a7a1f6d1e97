// Package feed holds the HTTP clients for the external call feed, station
// rosters, dispatch log sink and call registry.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/resq112/core/ingest"
	"github.com/kilianp07/resq112/core/logger"
	"github.com/kilianp07/resq112/core/model"
)

// ExhaustedMessage is the sentinel body the feed returns when no further
// emergencies exist for the session.
const ExhaustedMessage = "No emergency available"

const defaultTimeout = 10 * time.Second

// Authorizer stamps outbound service requests with credentials. It is
// satisfied by auth.ClientCred.
type Authorizer interface {
	SetAuthHeader(*http.Request) error
}

// Client fetches emergency calls and station rosters over HTTP.
type Client struct {
	http     *http.Client
	endpoint string
	auth     Authorizer
	log      logger.Logger
}

// NewClient creates a feed client for the given emergency endpoint.
func NewClient(endpoint string, log logger.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		endpoint: endpoint,
		log:      log,
	}
}

// SetHTTPClient overrides the underlying HTTP client, used by tests.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetAuth attaches a credential source; every request carries its token.
func (c *Client) SetAuth(a Authorizer) { c.auth = a }

func (c *Client) authorize(req *http.Request) error {
	if c.auth == nil {
		return nil
	}
	return c.auth.SetAuthHeader(req)
}

// Fetch retrieves the current batch of candidate calls. The feed returns
// either a single call object, an array of calls, or the exhaustion
// sentinel, which maps to ingest.ErrFeedExhausted. Fetch implements
// ingest.Fetcher.
func (c *Client) Fetch(ctx context.Context) ([]model.RawCall, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, fmt.Errorf("feed auth: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed read: %w", err)
	}
	calls, err := decodeBatch(body)
	if err == nil && c.log != nil {
		c.log.Debugf("fetched %d candidate calls", len(calls))
	}
	return calls, err
}

// decodeBatch handles the three feed body shapes: sentinel object, single
// call, call array.
func decodeBatch(body []byte) ([]model.RawCall, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var batch []model.RawCall
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, fmt.Errorf("feed decode: %w", err)
		}
		return batch, nil
	}
	var sentinel struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &sentinel); err == nil && sentinel.Message == ExhaustedMessage {
		return nil, ingest.ErrFeedExhausted
	}
	var single model.RawCall
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("feed decode: %w", err)
	}
	return []model.RawCall{single}, nil
}

// stationWire is the flat roster shape served by the station endpoints.
type stationWire struct {
	City      string  `json:"city"`
	County    string  `json:"county"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Quantity  int     `json:"quantity"`
}

// FetchRoster retrieves the station roster from the given endpoint. The
// endpoint may return a single station or an array.
func (c *Client) FetchRoster(ctx context.Context, endpoint string) ([]model.Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("roster request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, fmt.Errorf("roster auth: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roster fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster fetch: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("roster read: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	var wires []stationWire
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wires); err != nil {
			return nil, fmt.Errorf("roster decode: %w", err)
		}
	} else {
		var one stationWire
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("roster decode: %w", err)
		}
		wires = []stationWire{one}
	}
	stations := make([]model.Station, 0, len(wires))
	for _, w := range wires {
		stations = append(stations, model.Station{
			City:      w.City,
			County:    w.County,
			Location:  model.Coordinate{Lat: w.Latitude, Lon: w.Longitude},
			Available: w.Quantity,
		})
	}
	return stations, nil
}
