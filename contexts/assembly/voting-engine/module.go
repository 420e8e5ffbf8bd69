package votingengine

import (
	"log/slog"
	"time"

	httpadapter "assembly/contexts/assembly/voting-engine/adapters/http"
	"assembly/contexts/assembly/voting-engine/adapters/memory"
	"assembly/contexts/assembly/voting-engine/application/commands"
	"assembly/contexts/assembly/voting-engine/application/queries"
	"assembly/contexts/assembly/voting-engine/application/workers"
	"assembly/contexts/assembly/voting-engine/ports"
)

// Store is everything the module needs from a persistence adapter. The
// memory, postgres and sqlite adapters all satisfy it.
type Store interface {
	ports.SessionRepository
	ports.AgendaRepository
	ports.BallotStore
	ports.OutboxRepository
}

type Module struct {
	Handler httpadapter.Handler
	Signal  *workers.RelaySignal
	Store   Store
}

type Dependencies struct {
	Store   Store
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	signal := workers.NewRelaySignal()
	return Module{
		Handler: httpadapter.Handler{
			Sessions: commands.SessionUseCase{
				Sessions: deps.Store,
				Notifier: signal,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Logger:   deps.Logger,
			},
			Agenda: commands.AgendaUseCase{
				Sessions: deps.Store,
				Agenda:   deps.Store,
				Notifier: signal,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Logger:   deps.Logger,
			},
			Ballots: commands.BallotUseCase{
				Agenda:   deps.Store,
				Ballots:  deps.Store,
				Notifier: signal,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			Tallies: queries.TallyUseCase{
				Agenda:  deps.Store,
				Ballots: deps.Store,
				Clock:   deps.Clock,
				Logger:  deps.Logger,
			},
		},
		Signal: signal,
		Store:  deps.Store,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	return NewModule(Dependencies{
		Store:  store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
}

// WorkerDependencies configures the background side of the module.
type WorkerDependencies struct {
	Publisher           ports.EventPublisher
	Subscriber          ports.EventSubscriber
	Clock               ports.Clock
	Metrics             ports.Metrics
	BatchSize           int
	PollInterval        time.Duration
	DisableBallotReplay bool
	DisableLifecycle    bool
	Logger              *slog.Logger
}

type Workers struct {
	Relay     workers.OutboxRelay
	Replay    workers.BallotReplayConsumer
	Lifecycle workers.LifecycleAuditConsumer
}

// Workers builds the relay and consumers over the module's store. The relay
// listens on the module's signal, so wakeups only reach it when the request
// path runs in the same process.
func (m Module) Workers(deps WorkerDependencies) Workers {
	return Workers{
		Relay: workers.OutboxRelay{
			Outbox:       m.Store,
			Publisher:    deps.Publisher,
			Clock:        deps.Clock,
			Signal:       m.Signal,
			Metrics:      deps.Metrics,
			BatchSize:    deps.BatchSize,
			PollInterval: deps.PollInterval,
			Logger:       deps.Logger,
		},
		Replay: workers.BallotReplayConsumer{
			Subscriber: deps.Subscriber,
			Agenda:     m.Store,
			Ballots:    m.Store,
			Metrics:    deps.Metrics,
			Disabled:   deps.DisableBallotReplay,
			Logger:     deps.Logger,
		},
		Lifecycle: workers.LifecycleAuditConsumer{
			Subscriber: deps.Subscriber,
			Disabled:   deps.DisableLifecycle,
			Logger:     deps.Logger,
		},
	}
}
