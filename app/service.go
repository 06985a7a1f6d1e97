package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kilianp07/resq112/api/dispatch"
	"github.com/kilianp07/resq112/auth"
	"github.com/kilianp07/resq112/config"
	"github.com/kilianp07/resq112/core/callset"
	coredispatch "github.com/kilianp07/resq112/core/dispatch"
	"github.com/kilianp07/resq112/core/dispatch/logging"
	"github.com/kilianp07/resq112/core/ingest"
	"github.com/kilianp07/resq112/core/inventory"
	"github.com/kilianp07/resq112/core/logger"
	coremetrics "github.com/kilianp07/resq112/core/metrics"
	"github.com/kilianp07/resq112/core/model"
	"github.com/kilianp07/resq112/infra/feed"
	infralogger "github.com/kilianp07/resq112/infra/logger"
	"github.com/kilianp07/resq112/infra/metrics"
	"github.com/kilianp07/resq112/internal/eventbus"
)

// Service wires the allocation engine together: rosters become inventories,
// the feed drives the call set, and the coordinator handles dispatch actions
// coming in over the API.
type Service struct {
	Calls       *callset.CallSet
	Coordinator *coredispatch.Coordinator
	Pipeline    *ingest.Pipeline

	store    logging.Store
	bus      *eventbus.Bus
	log      logger.Logger
	apiAddr  string
	promAddr string
	apiToken string
}

// New creates a Service from the configuration. It fetches the station
// rosters once at startup; a roster endpoint that cannot be reached fails
// construction rather than dispatching from an empty inventory.
func New(cfg *config.Config) (*Service, error) {
	logg := infralogger.New("service")
	client := feed.NewClient(cfg.Feed.Endpoint, infralogger.New("feed"))
	var creds *auth.ClientCred
	if cfg.Feed.Auth.Enabled() {
		creds = auth.NewClientCred(cfg.Feed.Auth)
		client.SetAuth(creds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := newAuditStore(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	localSink := logging.Sink{Store: store}
	logEndpoints := cfg.Dispatch.LogEndpointsByType()

	targets := make(map[model.ResourceType]coredispatch.Target)
	for t, endpoint := range cfg.Rosters.ByType() {
		roster, err := client.FetchRoster(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("roster %s: %w", t, err)
		}
		sinks := coredispatch.MultiSink{localSink}
		if url, ok := logEndpoints[t]; ok {
			remote := feed.NewLogSink(url)
			if creds != nil {
				remote.SetAuth(creds)
			}
			sinks = append(sinks, remote)
		}
		targets[t] = coredispatch.Target{
			Inventory: inventory.FromRoster(t, roster),
			Sink:      sinks,
		}
		logg.Infof("loaded %d %s stations", len(roster), t)
	}

	var gate coredispatch.ConfirmationGate = coredispatch.AutoApprove{}
	if cfg.Dispatch.Confirmation == "deny" {
		gate = coredispatch.GateFunc(func(context.Context, coredispatch.Action) bool { return false })
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PromAddress != "" {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics.Influx))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	registry := feed.NewRegistry(cfg.Feed.Endpoint)
	if creds != nil {
		registry.SetAuth(creds)
	}

	bus := eventbus.New()
	calls := callset.New()
	coord, err := coredispatch.NewCoordinator(calls, targets, gate, logg,
		coredispatch.WithRadius(cfg.Dispatch.RadiusMeters),
		coredispatch.WithEventBus(bus),
		coredispatch.WithMetrics(sink),
		coredispatch.WithRegistrySync(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	pipeline := ingest.NewPipeline(client, calls, infralogger.New("ingest"),
		ingest.WithInterval(time.Duration(cfg.Feed.PollIntervalSeconds)*time.Second),
		ingest.WithEventBus(bus),
	)

	return &Service{
		Calls:       calls,
		Coordinator: coord,
		Pipeline:    pipeline,
		store:       store,
		bus:         bus,
		log:         logg,
		apiAddr:     cfg.API.Address,
		promAddr:    cfg.Metrics.PromAddress,
		apiToken:    cfg.API.Token,
	}, nil
}

func newAuditStore(cfg config.AuditConfig) (logging.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return logging.NewSQLiteStore(cfg.Path)
	case "rotating":
		return logging.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return logging.NewJSONLStore(cfg.Path)
	}
}

// Routes returns the engine's HTTP API handler.
func (s *Service) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/logs", dispatch.NewLogHandler(s.store, s.apiToken))
	mux.Handle("/api/actions", dispatch.NewActionHandler(s.Coordinator))
	return mux
}

// Run starts ingestion, the API server and the metrics endpoint, blocking
// until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Pipeline.Run(ctx)

	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", s.apiAddr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{Handler: s.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Pipeline.Stop()
	s.bus.Close()
	return s.store.Close()
}
