package commands

import (
	"context"
	"strings"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
)

type OpenRoundCommand struct {
	CallerID      string
	InitialBudget int64
}

type OpenRoundResult struct {
	Round entities.Round
}

type CloseRoundCommand struct {
	CallerID string
}

type CloseRoundResult struct {
	Round entities.Round
	Swept int64
}

// OpenRound starts a fresh voting round. Pending-funding and signaling sets
// are cleared wholesale; proposals from earlier periods stay in the arena
// and become inert through the period check on every operation.
func (uc *EngineUseCase) OpenRound(ctx context.Context, cmd OpenRoundCommand) (OpenRoundResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := uc.logger()
	logger.Info("round open requested",
		"event", "governance_round_open_started",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"caller_id", strings.TrimSpace(cmd.CallerID),
		"initial_budget", cmd.InitialBudget,
	)

	if strings.TrimSpace(cmd.CallerID) != uc.OrganizerID {
		return OpenRoundResult{}, domainerrors.ErrNotOrganizer
	}
	if cmd.InitialBudget <= 0 {
		return OpenRoundResult{}, domainerrors.ErrInvalidBudget
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return OpenRoundResult{}, err
	}
	if round.State != entities.RoundStateClosed {
		return OpenRoundResult{}, domainerrors.ErrRoundNotClosed
	}

	if err := uc.Repo.ClearSet(ctx, entities.SetPendingFunding); err != nil {
		return OpenRoundResult{}, err
	}
	if err := uc.Repo.ClearSet(ctx, entities.SetSignaling); err != nil {
		return OpenRoundResult{}, err
	}

	now := uc.now()
	round.State = entities.RoundStateOpen
	round.Budget = cmd.InitialBudget
	round.UpdatedAt = now
	if err := uc.Repo.SaveRound(ctx, round); err != nil {
		return OpenRoundResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "round.opened", "round", now, map[string]any{
		"period": round.Period,
		"budget": round.Budget,
	}); err != nil {
		return OpenRoundResult{}, err
	}

	logger.Info("round opened",
		"event", "governance_round_opened",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"period", round.Period,
		"budget", round.Budget,
	)
	return OpenRoundResult{Round: round}, nil
}

// CloseRound transitions to closed, bumps the period and sweeps the unspent
// budget to the organizer. It deliberately never iterates proposals or
// voters; refunds and signaling execution are pull-based afterwards.
func (uc *EngineUseCase) CloseRound(ctx context.Context, cmd CloseRoundCommand) (CloseRoundResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := uc.logger()
	if strings.TrimSpace(cmd.CallerID) != uc.OrganizerID {
		return CloseRoundResult{}, domainerrors.ErrNotOrganizer
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return CloseRoundResult{}, err
	}
	if round.State != entities.RoundStateOpen {
		return CloseRoundResult{}, domainerrors.ErrRoundNotOpen
	}

	now := uc.now()
	swept := round.Budget
	round.State = entities.RoundStateClosed
	round.Period++
	round.Budget = 0
	round.UpdatedAt = now
	if err := uc.Repo.SaveRound(ctx, round); err != nil {
		return CloseRoundResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "round.closed", "round", now, map[string]any{
		"period":   round.Period,
		"swept":    swept,
		"swept_to": uc.OrganizerID,
	}); err != nil {
		return CloseRoundResult{}, err
	}

	logger.Info("round closed",
		"event", "governance_round_closed",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"period", round.Period,
		"swept", swept,
	)
	return CloseRoundResult{Round: round, Swept: swept}, nil
}
