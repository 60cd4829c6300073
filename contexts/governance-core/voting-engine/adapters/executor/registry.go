package executor

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
)

// HandlerFunc is one executable target. It receives the approval payload
// and the disbursed value; an error aborts the engine operation that
// triggered it.
type HandlerFunc func(ctx context.Context, call ports.ExecutionCall) error

// Registry resolves opaque target references to registered handlers at call
// time, the in-process analog of dispatching to an unknown external
// contract.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

func (r *Registry) Register(target string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.TrimSpace(target)] = handler
}

func (r *Registry) Execute(ctx context.Context, call ports.ExecutionCall) error {
	r.mu.RLock()
	handler, ok := r.handlers[strings.TrimSpace(call.Target)]
	r.mu.RUnlock()

	if !ok || handler == nil {
		r.logger.Warn("unknown executable target",
			"event", "governance_executor_unknown_target",
			"module", "governance-core/voting-engine",
			"layer", "adapter",
			"target", call.Target,
			"proposal_id", call.ProposalID,
		)
		return domainerrors.ErrExecutionFailed
	}

	r.logger.Info("executable target invoked",
		"event", "governance_executor_invoked",
		"module", "governance-core/voting-engine",
		"layer", "adapter",
		"target", call.Target,
		"proposal_id", call.ProposalID,
		"value", call.Value,
		"gas_limit", call.GasLimit,
	)
	return handler(ctx, call)
}
