package creditledger

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/credit-ledger/adapters/http"
	"agora/contexts/governance-core/credit-ledger/adapters/memory"
	"agora/contexts/governance-core/credit-ledger/application/commands"
	"agora/contexts/governance-core/credit-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Ledger  *commands.LedgerUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Accounts  ports.AccountRepository
	Clock     ports.Clock
	Authority string
	Operator  string
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ledger := &commands.LedgerUseCase{
		Accounts:  deps.Accounts,
		Clock:     deps.Clock,
		Authority: deps.Authority,
		Operator:  deps.Operator,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger: ledger,
			Logger: deps.Logger,
		},
		Ledger: ledger,
	}
}

// NewInMemoryModule wires the ledger against the in-process store with the
// given supply cap. The authority and operator are usually both the engine
// service account.
func NewInMemoryModule(cap int64, authority string, operator string, logger *slog.Logger) Module {
	store := memory.NewStore(cap)
	module := NewModule(Dependencies{
		Accounts:  store,
		Clock:     store,
		Authority: authority,
		Operator:  operator,
		Logger:    logger,
	})
	module.Store = store
	return module
}
