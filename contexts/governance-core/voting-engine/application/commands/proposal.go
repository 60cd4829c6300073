package commands

import (
	"context"
	"strings"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
)

type AddProposalCommand struct {
	CallerID    string
	Title       string
	Description string
	Budget      int64
	Target      string
}

type AddProposalResult struct {
	Proposal entities.Proposal
}

type CancelProposalCommand struct {
	CallerID   string
	ProposalID uint64
}

// AddProposal allocates the next id, pins the proposal to the current
// period and places it into pending-funding (budget>0) or signaling
// (budget==0).
func (uc *EngineUseCase) AddProposal(ctx context.Context, cmd AddProposalCommand) (AddProposalResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := uc.logger()
	caller := strings.TrimSpace(cmd.CallerID)
	if caller == "" || strings.TrimSpace(cmd.Title) == "" || cmd.Budget < 0 {
		return AddProposalResult{}, domainerrors.ErrInvalidProposalInput
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return AddProposalResult{}, err
	}
	if round.State != entities.RoundStateOpen {
		return AddProposalResult{}, domainerrors.ErrRoundNotOpen
	}
	active, err := uc.Repo.IsParticipant(ctx, caller)
	if err != nil {
		return AddProposalResult{}, err
	}
	if !active {
		return AddProposalResult{}, domainerrors.ErrNotParticipant
	}

	id, err := uc.Repo.NextProposalID(ctx)
	if err != nil {
		return AddProposalResult{}, err
	}

	now := uc.now()
	proposal := entities.Proposal{
		ID:           id,
		Creator:      caller,
		Title:        cmd.Title,
		Description:  cmd.Description,
		Budget:       cmd.Budget,
		Target:       strings.TrimSpace(cmd.Target),
		VotesByVoter: map[string]int64{},
		Period:       round.Period,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	set := entities.SetSignaling
	if proposal.Kind() == entities.ProposalKindFunding {
		set = entities.SetPendingFunding
	}
	slot, err := uc.Repo.AppendToSet(ctx, set, id)
	if err != nil {
		return AddProposalResult{}, err
	}
	proposal.SlotIndex = slot
	if err := uc.Repo.SaveProposal(ctx, proposal); err != nil {
		return AddProposalResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "proposal.created", proposalPartition(id), now, map[string]any{
		"proposal_id": id,
		"creator_id":  caller,
		"kind":        string(proposal.Kind()),
		"budget":      proposal.Budget,
		"period":      proposal.Period,
	}); err != nil {
		return AddProposalResult{}, err
	}

	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"proposal_id", id,
		"kind", string(proposal.Kind()),
		"budget", proposal.Budget,
		"period", proposal.Period,
	)
	return AddProposalResult{Proposal: proposal}, nil
}

// CancelProposal is creator-initiated and only valid while the proposal is
// still pending in its own period. The proposal moves to the refundable set
// so voters can pull their locked credit back one claim at a time.
func (uc *EngineUseCase) CancelProposal(ctx context.Context, cmd CancelProposalCommand) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	caller := strings.TrimSpace(cmd.CallerID)
	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return err
	}
	proposal, err := uc.Repo.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return err
	}
	if proposal.Creator != caller {
		return domainerrors.ErrNotCreator
	}
	if proposal.Finalized() {
		return domainerrors.ErrProposalFinalized
	}
	if proposal.Period != round.Period {
		return domainerrors.ErrPeriodMismatch
	}

	set := entities.SetSignaling
	if proposal.Kind() == entities.ProposalKindFunding {
		set = entities.SetPendingFunding
	}
	if err := uc.removeFromSet(ctx, set, &proposal); err != nil {
		return err
	}

	now := uc.now()
	proposal.Canceled = true
	// Nothing locked means nothing to claim; queueing the proposal would
	// leave an entry no refund can ever drop.
	if proposal.TotalTokens > 0 {
		slot, err := uc.Repo.AppendToSet(ctx, entities.SetRefundable, proposal.ID)
		if err != nil {
			return err
		}
		proposal.SlotIndex = slot
		proposal.Refundable = true
	}
	proposal.UpdatedAt = now
	if err := uc.Repo.SaveProposal(ctx, proposal); err != nil {
		return err
	}

	if err := uc.appendEngineEvent(ctx, "proposal.canceled", proposalPartition(proposal.ID), now, map[string]any{
		"proposal_id":  proposal.ID,
		"total_tokens": proposal.TotalTokens,
	}); err != nil {
		return err
	}

	uc.logger().Info("proposal canceled",
		"event", "governance_proposal_canceled",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"total_tokens", proposal.TotalTokens,
	)
	return nil
}

// removeFromSet swap-removes the proposal from set and repoints the slot
// index of whichever member was moved into the vacated slot.
func (uc *EngineUseCase) removeFromSet(ctx context.Context, set entities.SetName, proposal *entities.Proposal) error {
	moved, hasMoved, err := uc.Repo.SwapRemoveAt(ctx, set, proposal.SlotIndex)
	if err != nil {
		return err
	}
	if hasMoved && moved != proposal.ID {
		movedProposal, err := uc.Repo.GetProposal(ctx, moved)
		if err != nil {
			return err
		}
		movedProposal.SlotIndex = proposal.SlotIndex
		if err := uc.Repo.SaveProposal(ctx, movedProposal); err != nil {
			return err
		}
	}
	return nil
}
