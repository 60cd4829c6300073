package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	application "agora/contexts/governance-core/voting-engine/application"
	"agora/contexts/governance-core/voting-engine/ports"
)

const executionGasLimit = 100_000

// EngineUseCase owns every state-mutating entry point of the voting engine.
// A single mutex serializes mutating calls, so the effect observed by
// threshold evaluation is exactly the order in which calls were accepted and
// no partially applied operation is ever visible.
type EngineUseCase struct {
	mu sync.Mutex

	Repo     ports.EngineRepository
	Ledger   ports.CreditLedger
	Executor ports.ProposalExecutor
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator

	// OrganizerID opens/closes rounds and receives the close-time sweep.
	// EngineAccount is the ledger account holding staked credit in custody.
	OrganizerID     string
	EngineAccount   string
	UnitPrice       int64
	ExecutorTimeout time.Duration
	Logger          *slog.Logger
}

func (uc *EngineUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc *EngineUseCase) logger() *slog.Logger {
	return application.ResolveLogger(uc.Logger)
}

func (uc *EngineUseCase) executorTimeout() time.Duration {
	if uc.ExecutorTimeout <= 0 {
		return 2 * time.Second
	}
	return uc.ExecutorTimeout
}

// execute invokes the external target under the engine's time ceiling, the
// wall-clock analog of the fixed gas allowance carried on the call.
func (uc *EngineUseCase) execute(ctx context.Context, call ports.ExecutionCall) error {
	call.GasLimit = executionGasLimit
	execCtx, cancel := context.WithTimeout(ctx, uc.executorTimeout())
	defer cancel()
	return uc.Executor.Execute(execCtx, call)
}
