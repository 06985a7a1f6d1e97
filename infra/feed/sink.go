package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/resq112/core/model"
)

// logWire is the dispatch log body expected by the remote sink. One endpoint
// exists per resource type, so the type itself is not part of the body.
type logWire struct {
	SourceCounty string `json:"sourceCounty"`
	SourceCity   string `json:"sourceCity"`
	TargetCounty string `json:"targetCounty"`
	TargetCity   string `json:"targetCity"`
	Quantity     int    `json:"quantity"`
}

// LogSink POSTs dispatch log entries to one per-type remote endpoint. It
// implements the coordinator's audit sink interface.
type LogSink struct {
	http     *http.Client
	endpoint string
	auth     Authorizer
}

// NewLogSink creates a sink for the given dispatch log endpoint.
func NewLogSink(endpoint string) *LogSink {
	return &LogSink{
		http:     &http.Client{Timeout: defaultTimeout},
		endpoint: endpoint,
	}
}

// SetHTTPClient overrides the underlying HTTP client, used by tests.
func (s *LogSink) SetHTTPClient(h *http.Client) { s.http = h }

// SetAuth attaches a credential source; every request carries its token.
func (s *LogSink) SetAuth(a Authorizer) { s.auth = a }

// Record POSTs one dispatch log entry.
func (s *LogSink) Record(ctx context.Context, entry model.DispatchLogEntry) error {
	body, err := json.Marshal(logWire{
		SourceCounty: entry.SourceCounty,
		SourceCity:   entry.SourceCity,
		TargetCounty: entry.TargetCounty,
		TargetCity:   entry.TargetCity,
		Quantity:     entry.Quantity,
	})
	if err != nil {
		return fmt.Errorf("dispatch log encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dispatch log request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.auth != nil {
		if err := s.auth.SetAuthHeader(req); err != nil {
			return fmt.Errorf("dispatch log auth: %w", err)
		}
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch log post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("dispatch log post: unexpected status %d", resp.StatusCode)
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// callWire is the registry PATCH body: the full updated call in feed shape.
type callWire struct {
	ID        string          `json:"id"`
	City      string          `json:"city"`
	County    string          `json:"county"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Requests  []model.Request `json:"requests"`
	Timestamp time.Time       `json:"timestamp"`
}

// Registry propagates post-dispatch call state to the external call
// registry. It implements the coordinator's registry sync interface.
type Registry struct {
	http     *http.Client
	endpoint string
	auth     Authorizer
}

// NewRegistry creates a registry client rooted at the emergency endpoint;
// individual calls are PATCHed at <endpoint>/<id>.
func NewRegistry(endpoint string) *Registry {
	return &Registry{
		http:     &http.Client{Timeout: defaultTimeout},
		endpoint: endpoint,
	}
}

// SetHTTPClient overrides the underlying HTTP client, used by tests.
func (r *Registry) SetHTTPClient(h *http.Client) { r.http = h }

// SetAuth attaches a credential source; every request carries its token.
func (r *Registry) SetAuth(a Authorizer) { r.auth = a }

// SyncCall PATCHes the updated call so other observers converge.
func (r *Registry) SyncCall(ctx context.Context, call *model.EmergencyCall) error {
	body, err := json.Marshal(callWire{
		ID:        call.ID,
		City:      call.City,
		County:    call.County,
		Latitude:  call.Location.Lat,
		Longitude: call.Location.Lon,
		Requests:  call.RequestsWire(),
		Timestamp: call.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("registry encode: %w", err)
	}
	url := fmt.Sprintf("%s/%s", r.endpoint, call.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("registry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.auth != nil {
		if err := r.auth.SetAuthHeader(req); err != nil {
			return fmt.Errorf("registry auth: %w", err)
		}
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry patch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("registry patch: unexpected status %d", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
