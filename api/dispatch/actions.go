package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"

	coredispatch "github.com/kilianp07/resq112/core/dispatch"
	"github.com/kilianp07/resq112/core/model"
)

// actionRequest is the POST body for one dispatch action: which station
// releases units of which type, and where the operator dropped them.
type actionRequest struct {
	Type      string  `json:"type"`
	City      string  `json:"city"`
	County    string  `json:"county"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// actionResponse reports the outcome of a dispatch action.
type actionResponse struct {
	Outcome      string  `json:"outcome"`
	CallID       string  `json:"call_id,omitempty"`
	Quantity     int     `json:"quantity,omitempty"`
	CallResolved bool    `json:"call_resolved,omitempty"`
	DistanceM    float64 `json:"distance_m,omitempty"`
}

// NewActionHandler returns an HTTP handler that triggers one dispatch action
// per POST. It is the transport equivalent of a drag-release on the map.
func NewActionHandler(coord *coredispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
			return
		}
		t, ok := model.ResourceTypeFromString(req.Type)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown resource type %q", req.Type), http.StatusBadRequest)
			return
		}
		stationKey := fmt.Sprintf("%s/%s", req.City, req.County)
		target := model.Coordinate{Lat: req.Latitude, Lon: req.Longitude}

		res, err := coord.Dispatch(r.Context(), t, stationKey, target)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(actionResponse{
			Outcome:      res.Outcome.String(),
			CallID:       res.CallID,
			Quantity:     res.Quantity,
			CallResolved: res.CallResolved,
			DistanceM:    res.DistanceM,
		})
	})
}
