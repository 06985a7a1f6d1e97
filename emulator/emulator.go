// Package emulator provides a local stand-in for the external emergency
// services: the call feed, the station rosters, the dispatch log sink and
// the call registry. It exists for development and end-to-end tests; the
// engine talks to it exactly as it would to the real services.
package emulator

import (
	"context"
	"encoding/json"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/resq112/core/logger"
	"github.com/kilianp07/resq112/core/model"
	infralogger "github.com/kilianp07/resq112/infra/logger"
	"github.com/kilianp07/resq112/qa/scenarios"
)

// Config describes the emulator server.
type Config struct {
	Address string `json:"address"`
	// Calls is how many scripted emergencies the feed serves before the
	// exhaustion sentinel.
	Calls int `json:"calls"`
	// Seed makes the scripted scenario reproducible. Zero seeds from the
	// clock.
	Seed int64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.Calls == 0 {
		c.Calls = 50
	}
}

// Server emulates the external services over HTTP.
type Server struct {
	cfg    Config
	log    logger.Logger
	srv    *http.Server
	rng    *rand.Rand
	served prometheus.Counter
	logged *prometheus.CounterVec

	mu        sync.Mutex
	remaining int
	script    []model.RawCall
	rosters   map[model.ResourceType][]model.Station
	patched   map[string]json.RawMessage
	dispatch  []json.RawMessage
}

// New creates an emulator server and registers its metrics on the default
// Prometheus registerer.
func New(cfg Config) *Server {
	return NewWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates an emulator server and registers metrics on the
// provided registerer. If reg is nil the default registerer is used.
func NewWithRegistry(cfg Config, reg prometheus.Registerer) *Server {
	cfg.SetDefaults()
	log := infralogger.New("emulator")
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	served := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emulator_calls_served_total",
		Help: "Emergency calls served by the emulated feed",
	})
	logged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emulator_dispatch_logs_total",
		Help: "Dispatch log entries accepted by the emulated sink",
	}, []string{"resource_type"})

	if err := reg.Register(served); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				served = exist
			}
		}
	}
	if err := reg.Register(logged); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				logged = exist
			}
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Server{
		cfg:       cfg,
		log:       log,
		rng:       rand.New(rand.NewSource(seed)),
		served:    served,
		logged:    logged,
		remaining: cfg.Calls,
		patched:   make(map[string]json.RawMessage),
	}
	s.rosters = s.buildRosters()
	return s
}

// LoadScenario replaces the generated rosters and call script with a
// scripted scenario, making the run deterministic.
func (s *Server) LoadScenario(sc *scenarios.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rosters := sc.RostersByType(); len(rosters) > 0 {
		s.rosters = rosters
	}
	s.script = sc.RawCalls()
	s.remaining = len(s.script)
}

// counties used to script calls and rosters.
var counties = []struct {
	city   string
	county string
	lat    float64
	lon    float64
}{
	{"Brasov", "Brasov", 45.6427, 25.5887},
	{"Bucuresti", "Ilfov", 44.4268, 26.1025},
	{"Cluj-Napoca", "Cluj", 46.7712, 23.6236},
	{"Timisoara", "Timis", 45.7489, 21.2087},
	{"Iasi", "Iasi", 47.1585, 27.6014},
	{"Constanta", "Constanta", 44.1598, 28.6348},
}

func (s *Server) buildRosters() map[model.ResourceType][]model.Station {
	rosters := make(map[model.ResourceType][]model.Station)
	for _, t := range model.ResourceTypes {
		for _, c := range counties {
			rosters[t] = append(rosters[t], model.Station{
				City:      c.city,
				County:    c.county,
				Location:  model.Coordinate{Lat: c.lat + s.jitter(), Lon: c.lon + s.jitter()},
				Available: 2 + s.rng.Intn(8),
			})
		}
	}
	return rosters
}

// jitter offsets a coordinate by up to ~500 m so stations and calls do not
// stack on one point.
func (s *Server) jitter() float64 {
	return (s.rng.Float64() - 0.5) * 0.009
}

func (s *Server) nextCall() model.RawCall {
	c := counties[s.rng.Intn(len(counties))]
	reqs := make([]model.Request, 0, len(model.ResourceTypes))
	for _, t := range model.ResourceTypes {
		if s.rng.Intn(2) == 0 {
			continue
		}
		reqs = append(reqs, model.Request{Type: t.String(), Quantity: 1 + s.rng.Intn(4)})
	}
	if len(reqs) == 0 {
		reqs = append(reqs, model.Request{Type: model.ResourceMedical.String(), Quantity: 1 + s.rng.Intn(4)})
	}
	return model.RawCall{
		City:      c.city,
		County:    c.county,
		Latitude:  c.lat + s.jitter(),
		Longitude: c.lon + s.jitter(),
		Requests:  reqs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleEmergency(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// only the collection endpoint serves calls; a GET on a call id
		// must not consume the script
		if r.URL.Path != "/api/emergency" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if s.remaining <= 0 {
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "No emergency available"})
			return
		}
		s.remaining--
		s.served.Inc()
		if len(s.script) > 0 {
			call := s.script[0]
			s.script = s.script[1:]
			_ = json.NewEncoder(w).Encode(call)
			return
		}
		_ = json.NewEncoder(w).Encode(s.nextCall())
	case http.MethodPatch:
		id := strings.TrimPrefix(r.URL.Path, "/api/emergency/")
		if id == "" || strings.Contains(id, "/") {
			http.Error(w, "missing call id", http.StatusBadRequest)
			return
		}
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.patched[id] = body
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRoster(t model.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		roster := s.rosters[t]
		s.mu.Unlock()
		type wire struct {
			City      string  `json:"city"`
			County    string  `json:"county"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Quantity  int     `json:"quantity"`
		}
		out := make([]wire, 0, len(roster))
		for _, st := range roster {
			out = append(out, wire{st.City, st.County, st.Location.Lat, st.Location.Lon, st.Available})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func (s *Server) handleDispatchLog(t model.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.dispatch = append(s.dispatch, body)
		s.mu.Unlock()
		s.logged.WithLabelValues(t.String()).Inc()
		s.log.Debugf("accepted %s dispatch log", t)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

// Routes returns the emulator HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/emergency", s.handleEmergency)
	mux.HandleFunc("/api/emergency/", s.handleEmergency)
	mux.HandleFunc("/api/ambulances", s.handleRoster(model.ResourceMedical))
	mux.HandleFunc("/api/police", s.handleRoster(model.ResourcePolice))
	mux.HandleFunc("/api/firetrucks", s.handleRoster(model.ResourceFire))
	mux.HandleFunc("/api/rescue", s.handleRoster(model.ResourceRescue))
	mux.HandleFunc("/api/utility", s.handleRoster(model.ResourceUtility))
	mux.HandleFunc("/api/dispatch/ambulance", s.handleDispatchLog(model.ResourceMedical))
	mux.HandleFunc("/api/dispatch/police", s.handleDispatchLog(model.ResourcePolice))
	mux.HandleFunc("/api/dispatch/fire", s.handleDispatchLog(model.ResourceFire))
	mux.HandleFunc("/api/dispatch/rescue", s.handleDispatchLog(model.ResourceRescue))
	mux.HandleFunc("/api/dispatch/utility", s.handleDispatchLog(model.ResourceUtility))
	return mux
}

// Start listens on the configured address until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.srv = &http.Server{Handler: s.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("emulator shutdown: %v", err)
		}
	}()
	s.log.Infof("emulator listening on %s", ln.Addr())
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// DispatchLogs returns the raw dispatch log bodies accepted so far.
func (s *Server) DispatchLogs() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]json.RawMessage, len(s.dispatch))
	copy(out, s.dispatch)
	return out
}

// PatchedCall returns the last PATCHed body for the given call id.
func (s *Server) PatchedCall(id string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.patched[id]
	return b, ok
}
