package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/resq112/core/model"
	"github.com/kilianp07/resq112/infra/feed"
	"github.com/kilianp07/resq112/qa/scenarios"
)

func newTestServer(t *testing.T, calls int) (*Server, *httptest.Server) {
	t.Helper()
	s := NewWithRegistry(Config{Calls: calls, Seed: 1}, prometheus.NewRegistry())
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestFeedServesThenExhausts(t *testing.T) {
	_, ts := newTestServer(t, 2)
	client := feed.NewClient(ts.URL+"/api/emergency", nil)

	for i := 0; i < 2; i++ {
		calls, err := client.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, calls, 1)
		assert.True(t, calls[0].HasPositiveRequest())
		assert.False(t, calls[0].Location().IsZero())
	}

	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFeedGetOnCallIDDoesNotConsumeScript(t *testing.T) {
	_, ts := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/api/emergency/some-id")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the one scripted call is still there
	client := feed.NewClient(ts.URL+"/api/emergency", nil)
	calls, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, calls, 1)
}

func TestRosterShape(t *testing.T) {
	_, ts := newTestServer(t, 1)
	client := feed.NewClient(ts.URL+"/api/emergency", nil)

	stations, err := client.FetchRoster(context.Background(), ts.URL+"/api/police")
	require.NoError(t, err)
	require.NotEmpty(t, stations)
	for _, st := range stations {
		assert.NotEmpty(t, st.City)
		assert.NotEmpty(t, st.County)
		assert.Greater(t, st.Available, 0)
		assert.True(t, st.Location.Valid())
	}
}

func TestDispatchLogAccepted(t *testing.T) {
	s, ts := newTestServer(t, 1)

	entry := model.DispatchLogEntry{
		SourceCounty: "Brasov",
		SourceCity:   "Brasov",
		TargetCounty: "Cluj",
		TargetCity:   "Cluj-Napoca",
		Type:         model.ResourceFire,
		Quantity:     2,
	}
	body, err := json.Marshal(entry)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/dispatch/fire", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, s.DispatchLogs(), 1)
}

func TestScriptedScenario(t *testing.T) {
	s, ts := newTestServer(t, 10)
	s.LoadScenario(&scenarios.Scenario{
		Rosters: map[string][]scenarios.StationDef{
			"fire": {{City: "Brasov", County: "Brasov", Latitude: 45.6427, Longitude: 25.5887, Quantity: 3}},
		},
		Calls: []scenarios.CallDef{
			{City: "Brasov", County: "Brasov", Latitude: 45.6430, Longitude: 25.5890,
				Requests: []scenarios.RequestDef{{Type: "fire", Quantity: 2}}},
		},
	})
	client := feed.NewClient(ts.URL+"/api/emergency", nil)

	calls, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "Brasov", calls[0].City)

	// the script had one call, so the next poll reports exhaustion
	_, err = client.Fetch(context.Background())
	assert.Error(t, err)

	stations, err := client.FetchRoster(context.Background(), ts.URL+"/api/firetrucks")
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, 3, stations[0].Available)
}

func TestPatchCallStored(t *testing.T) {
	s, ts := newTestServer(t, 1)

	body := []byte(`{"city":"Brasov","requests":[]}`)
	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/emergency/call-1", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stored, ok := s.PatchedCall("call-1")
	require.True(t, ok)
	assert.JSONEq(t, string(body), string(stored))
}
