package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	votingengine "assembly/contexts/assembly/voting-engine"
	"assembly/contexts/assembly/voting-engine/adapters/memory"
	postgresadapter "assembly/contexts/assembly/voting-engine/adapters/postgres"
	sqliteadapter "assembly/contexts/assembly/voting-engine/adapters/sqlite"
	"assembly/contexts/assembly/voting-engine/ports"
	"assembly/internal/platform/config"
	"assembly/internal/platform/db"
	"assembly/internal/platform/httpserver"
	"assembly/internal/platform/messaging"
	"assembly/internal/platform/metrics"
	platformotel "assembly/internal/platform/otel"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Drivers are picked from config here so module code never sees them.

const shutdownTimeout = 10 * time.Second

type eventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

type APIApp struct {
	server  *httpserver.Server
	workers *votingengine.Workers
	closers []func(context.Context) error
	logger  *slog.Logger
}

type WorkerApp struct {
	workers votingengine.Workers
	closers []func(context.Context) error
	logger  *slog.Logger
}

// runtime carries what both processes share once config is loaded.
type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Prometheus
	module  votingengine.Module
	closers []func(context.Context) error
}

// BuildAPI wires the HTTP process. With the in-process bus the relay and
// consumers run inside the API as well, since nothing else can see its events.
func BuildAPI(ctx context.Context) (*APIApp, error) {
	rt, err := buildRuntime(ctx, "api")
	if err != nil {
		return nil, err
	}

	app := &APIApp{
		server: httpserver.New(rt.module, rt.metrics.Handler(), rt.logger, normalizeAddr(rt.cfg.HTTPPort)),
		logger: rt.logger,
	}
	if rt.cfg.BusDriver == config.BusDriverInProcess {
		bus, closer, err := openBus(ctx, rt.cfg, rt.logger)
		if err != nil {
			_ = closeAll(ctx, rt.closers)
			return nil, err
		}
		rt.closers = append(rt.closers, closer)
		workers := rt.module.Workers(workerDependencies(rt, bus))
		app.workers = &workers
	}
	app.closers = rt.closers
	return app, nil
}

// BuildWorker wires the background process. It needs a store and a bus that
// outlive a single process, so the memory store and in-process bus are
// rejected.
func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver == config.StoreDriverMemory {
		return nil, fmt.Errorf("worker requires STORE_DRIVER %s or %s", config.StoreDriverPostgres, config.StoreDriverSQLite)
	}
	if cfg.BusDriver != config.BusDriverNATS {
		return nil, fmt.Errorf("worker requires BUS_DRIVER %s", config.BusDriverNATS)
	}

	rt, err := buildRuntimeFromConfig(ctx, cfg, "worker")
	if err != nil {
		return nil, err
	}
	bus, closer, err := openBus(ctx, rt.cfg, rt.logger)
	if err != nil {
		_ = closeAll(ctx, rt.closers)
		return nil, err
	}
	rt.closers = append(rt.closers, closer)
	return &WorkerApp{
		workers: rt.module.Workers(workerDependencies(rt, bus)),
		closers: rt.closers,
		logger:  rt.logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.workers != nil {
		if err := startConsumers(gctx, *a.workers); err != nil {
			return err
		}
		g.Go(func() error { return a.workers.Relay.Run(gctx) })
	}
	g.Go(a.server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_workers", a.workers != nil,
	)
	return g.Wait()
}

func (a *APIApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return closeAll(ctx, a.closers)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := startConsumers(ctx, w.workers); err != nil {
		return err
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.workers.Relay.PollInterval.String(),
	)
	return w.workers.Relay.Run(ctx)
}

func (w *WorkerApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return closeAll(ctx, w.closers)
}

func buildRuntime(ctx context.Context, process string) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildRuntimeFromConfig(ctx, cfg, process)
}

func buildRuntimeFromConfig(ctx context.Context, cfg config.Config, process string) (*runtime, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With("service", cfg.ServiceName, "process", process)
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger, metrics: metrics.NewPrometheus()}

	shutdownTracing, err := platformotel.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	rt.closers = append(rt.closers, shutdownTracing)

	deps, closer, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = closeAll(ctx, rt.closers)
		return nil, err
	}
	rt.closers = append(rt.closers, closer)

	deps.Metrics = rt.metrics
	deps.Logger = logger
	rt.module = votingengine.NewModule(deps)

	logger.Info("runtime ready",
		"event", "bootstrap_runtime_ready",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"store_driver", cfg.StoreDriver,
		"bus_driver", cfg.BusDriver,
		"tracing", strings.TrimSpace(cfg.OTelEndpoint) != "",
	)
	return rt, nil
}

// openStore returns module dependencies with Store, Clock and IDGen filled in.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (votingengine.Dependencies, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pg, err := db.Connect(ctx, cfg.PostgresDSN, db.DefaultPoolOptions(), logger)
		if err != nil {
			return votingengine.Dependencies{}, nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return votingengine.Dependencies{}, nil, err
		}
		return votingengine.Dependencies{
			Store: repo,
			Clock: postgresadapter.SystemClock{},
			IDGen: postgresadapter.UUIDGenerator{},
		}, func(context.Context) error { return pg.Close() }, nil
	case config.StoreDriverSQLite:
		store, err := sqliteadapter.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return votingengine.Dependencies{}, nil, err
		}
		return votingengine.Dependencies{
			Store: store,
			Clock: postgresadapter.SystemClock{},
			IDGen: postgresadapter.UUIDGenerator{},
		}, func(context.Context) error { return store.Close() }, nil
	case config.StoreDriverMemory:
		store := memory.NewStore()
		return votingengine.Dependencies{
			Store: store,
			Clock: store,
			IDGen: store,
		}, func(context.Context) error { return nil }, nil
	default:
		return votingengine.Dependencies{}, nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openBus(ctx context.Context, cfg config.Config, logger *slog.Logger) (eventBus, func(context.Context) error, error) {
	switch cfg.BusDriver {
	case config.BusDriverNATS:
		js, err := messaging.NewJetStream(
			ctx,
			cfg.NATSURL,
			cfg.NATSStream,
			cfg.ConsumerMaxDeliver,
			cfg.ConsumerRedeliveryDelay,
			logger,
		)
		if err != nil {
			return nil, nil, err
		}
		return js, func(context.Context) error { return js.Close() }, nil
	case config.BusDriverInProcess:
		return messaging.NewInProcess(cfg.ConsumerMaxDeliver, logger), func(context.Context) error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported BUS_DRIVER %q", cfg.BusDriver)
	}
}

func workerDependencies(rt *runtime, bus eventBus) votingengine.WorkerDependencies {
	return votingengine.WorkerDependencies{
		Publisher:           bus,
		Subscriber:          bus,
		Clock:               postgresadapter.SystemClock{},
		Metrics:             rt.metrics,
		BatchSize:           rt.cfg.RelayBatchSize,
		PollInterval:        rt.cfg.RelayPollInterval,
		DisableBallotReplay: !rt.cfg.EnableBallotReplayConsumer,
		DisableLifecycle:    !rt.cfg.EnableLifecycleAuditConsumer,
		Logger:              rt.logger,
	}
}

func startConsumers(ctx context.Context, workers votingengine.Workers) error {
	if err := workers.Replay.Start(ctx); err != nil {
		return err
	}
	return workers.Lifecycle.Start(ctx)
}

// closeAll runs closers in reverse order and joins their errors.
func closeAll(ctx context.Context, closers []func(context.Context) error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] == nil {
			continue
		}
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
