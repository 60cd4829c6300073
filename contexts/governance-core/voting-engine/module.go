package votingengine

import (
	"log/slog"
	"time"

	"agora/contexts/governance-core/voting-engine/adapters/executor"
	httpadapter "agora/contexts/governance-core/voting-engine/adapters/http"
	"agora/contexts/governance-core/voting-engine/adapters/memory"
	"agora/contexts/governance-core/voting-engine/application/commands"
	"agora/contexts/governance-core/voting-engine/application/queries"
	"agora/contexts/governance-core/voting-engine/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Engine    *commands.EngineUseCase
	Store     *memory.Store
	Executors *executor.Registry
}

type Dependencies struct {
	Repo            ports.EngineRepository
	Ledger          ports.CreditLedger
	Executor        ports.ProposalExecutor
	Outbox          ports.OutboxWriter
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	OrganizerID     string
	EngineAccount   string
	UnitPrice       int64
	ExecutorTimeout time.Duration
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	engine := &commands.EngineUseCase{
		Repo:            deps.Repo,
		Ledger:          deps.Ledger,
		Executor:        deps.Executor,
		Outbox:          deps.Outbox,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		OrganizerID:     deps.OrganizerID,
		EngineAccount:   deps.EngineAccount,
		UnitPrice:       deps.UnitPrice,
		ExecutorTimeout: deps.ExecutorTimeout,
		Logger:          deps.Logger,
	}
	proposalQueries := queries.ProposalQueries{Repo: deps.Repo}
	return Module{
		Handler: httpadapter.Handler{
			Engine:    engine,
			Proposals: proposalQueries,
			Logger:    deps.Logger,
		},
		Engine: engine,
	}
}

// NewInMemoryModule wires the engine fully in process: the memory store
// backs state, ledger, outbox, clock and ids, and an executor registry
// stands in for external executable targets.
func NewInMemoryModule(creditCap int64, organizerID string, engineAccount string, unitPrice int64, logger *slog.Logger) Module {
	store := memory.NewStore(creditCap, engineAccount)
	registry := executor.NewRegistry(logger)
	module := NewModule(Dependencies{
		Repo:          store,
		Ledger:        store,
		Executor:      registry,
		Outbox:        store,
		Clock:         store,
		IDGen:         store,
		OrganizerID:   organizerID,
		EngineAccount: engineAccount,
		UnitPrice:     unitPrice,
		Logger:        logger,
	})
	module.Store = store
	module.Executors = registry
	return module
}
