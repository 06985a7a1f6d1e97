package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/resq112/core/ingest"
	"github.com/kilianp07/resq112/core/model"
	"github.com/kilianp07/resq112/infra/logger"
)

func TestFetchSingleCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Brasov","county":"Brasov","latitude":45.6,"longitude":25.5,"requests":[{"Type":"Medical","Quantity":3}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NopLogger{})
	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "Brasov", batch[0].City)
	assert.Equal(t, 3, batch[0].Requests[0].Quantity)
}

func TestFetchArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"city":"A","county":"A","latitude":45.1,"longitude":25.1,"requests":[]},{"city":"B","county":"B","latitude":45.2,"longitude":25.2,"requests":[]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NopLogger{})
	batch, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestFetchExhaustedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"No emergency available"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NopLogger{})
	_, err := c.Fetch(context.Background())
	assert.True(t, errors.Is(err, ingest.ErrFeedExhausted), "err = %v", err)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NopLogger{})
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ingest.ErrFeedExhausted))
}

func TestFetchRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"city":"Brasov","county":"Brasov","latitude":45.65,"longitude":25.61,"quantity":7}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NopLogger{})
	stations, err := c.FetchRoster(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, 7, stations[0].Available)
	assert.Equal(t, "Brasov/Brasov", stations[0].Key())
	assert.InDelta(t, 45.65, stations[0].Location.Lat, 1e-9)
}

func TestLogSinkPostsEntry(t *testing.T) {
	var got logWire
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink := NewLogSink(srv.URL)
	err := sink.Record(context.Background(), model.DispatchLogEntry{
		SourceCounty: "Brasov",
		SourceCity:   "Brasov",
		TargetCounty: "Brasov",
		TargetCity:   "Fagaras",
		Type:         model.ResourceMedical,
		Quantity:     3,
		Timestamp:    time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fagaras", got.TargetCity)
	assert.Equal(t, 3, got.Quantity)
}

func TestLogSinkRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewLogSink(srv.URL)
	err := sink.Record(context.Background(), model.DispatchLogEntry{})
	assert.Error(t, err)
}

func TestRegistryPatchesCall(t *testing.T) {
	var gotPath string
	var got callWire
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	reg := NewRegistry(srv.URL)
	call := &model.EmergencyCall{
		ID:       "abc-123",
		City:     "Brasov",
		County:   "Brasov",
		Location: model.Coordinate{Lat: 45.6, Lon: 25.5},
		Needs:    map[model.ResourceType]int{model.ResourceMedical: 2},
		Initial:  map[model.ResourceType]int{model.ResourceMedical: 5},
	}
	require.NoError(t, reg.SyncCall(context.Background(), call))
	assert.Equal(t, "/abc-123", gotPath)
	require.Len(t, got.Requests, 1)
	assert.Equal(t, "Medical", got.Requests[0].Type)
	assert.Equal(t, 2, got.Requests[0].Quantity)
}
