package commands

import (
	"context"
	"strings"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
)

type ClaimRefundCommand struct {
	CallerID   string
	ProposalID uint64
}

type ClaimRefundResult struct {
	Refund           int64
	RemainingTokens  int64
	DroppedFromQueue bool
}

type ExecuteSignalingCommand struct {
	CallerID   string
	ProposalID uint64
}

// ClaimRefund is the pull-based replacement for any bulk refund loop: each
// voter reclaims votes² credit for a canceled proposal, or for an unapproved
// proposal from a superseded period. Superseded proposals enter the
// refundable queue lazily on the first claim; the proposal leaves the queue
// once the last locked token is reclaimed.
func (uc *EngineUseCase) ClaimRefund(ctx context.Context, cmd ClaimRefundCommand) (ClaimRefundResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	voter := strings.TrimSpace(cmd.CallerID)
	if voter == "" {
		return ClaimRefundResult{}, domainerrors.ErrNotParticipant
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return ClaimRefundResult{}, err
	}
	proposal, err := uc.Repo.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return ClaimRefundResult{}, err
	}

	superseded := !proposal.Approved && proposal.Period < round.Period
	if !proposal.Canceled && !superseded {
		return ClaimRefundResult{}, domainerrors.ErrNotRefundable
	}

	votes := proposal.Votes(voter)
	if votes == 0 {
		return ClaimRefundResult{}, domainerrors.ErrNothingToRefund
	}
	refund := votes * votes

	if err := uc.Ledger.Transfer(ctx, uc.EngineAccount, voter, refund); err != nil {
		return ClaimRefundResult{}, err
	}

	now := uc.now()
	ledger := proposal.CloneVotes()
	delete(ledger, voter)
	proposal.VotesByVoter = ledger
	proposal.TotalVotes -= votes
	proposal.TotalTokens -= refund
	proposal.UpdatedAt = now

	dropped := false
	if proposal.TotalTokens == 0 {
		if proposal.Refundable {
			if err := uc.removeFromSet(ctx, entities.SetRefundable, &proposal); err != nil {
				return ClaimRefundResult{}, err
			}
			proposal.Refundable = false
			proposal.SlotIndex = 0
		}
		dropped = true
	} else if !proposal.Refundable {
		slot, err := uc.Repo.AppendToSet(ctx, entities.SetRefundable, proposal.ID)
		if err != nil {
			return ClaimRefundResult{}, err
		}
		proposal.SlotIndex = slot
		proposal.Refundable = true
	}
	if err := uc.Repo.SaveProposal(ctx, proposal); err != nil {
		return ClaimRefundResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "refund.claimed", proposalPartition(proposal.ID), now, map[string]any{
		"proposal_id":      proposal.ID,
		"voter_id":         voter,
		"refund":           refund,
		"remaining_tokens": proposal.TotalTokens,
	}); err != nil {
		return ClaimRefundResult{}, err
	}

	uc.logger().Info("refund claimed",
		"event", "governance_refund_claimed",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"voter_id", voter,
		"refund", refund,
		"remaining_tokens", proposal.TotalTokens,
	)
	return ClaimRefundResult{
		Refund:           refund,
		RemainingTokens:  proposal.TotalTokens,
		DroppedFromQueue: dropped,
	}, nil
}

// ExecuteSignaling runs a signaling proposal's target after its round has
// closed. Callable by anyone, once per proposal, with no value attached.
func (uc *EngineUseCase) ExecuteSignaling(ctx context.Context, cmd ExecuteSignalingCommand) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return err
	}
	proposal, err := uc.Repo.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return err
	}
	if proposal.Kind() != entities.ProposalKindSignaling {
		return domainerrors.ErrNotSignaling
	}
	if proposal.Canceled {
		return domainerrors.ErrProposalFinalized
	}
	if proposal.Approved {
		return domainerrors.ErrAlreadyExecuted
	}
	if proposal.Period >= round.Period {
		return domainerrors.ErrRoundStillOpen
	}

	if err := uc.execute(ctx, ports.ExecutionCall{
		Target:      proposal.Target,
		ProposalID:  proposal.ID,
		TotalVotes:  proposal.TotalVotes,
		TotalTokens: proposal.TotalTokens,
	}); err != nil {
		uc.logger().Warn("signaling execution failed",
			"event", "governance_signaling_execution_failed",
			"module", "governance-core/voting-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"target", proposal.Target,
			"error", err.Error(),
		)
		return domainerrors.ErrExecutionFailed
	}

	now := uc.now()
	proposal.Approved = true
	proposal.UpdatedAt = now
	if err := uc.Repo.SaveProposal(ctx, proposal); err != nil {
		return err
	}

	if err := uc.appendEngineEvent(ctx, "proposal.executed", proposalPartition(proposal.ID), now, map[string]any{
		"proposal_id":  proposal.ID,
		"total_votes":  proposal.TotalVotes,
		"total_tokens": proposal.TotalTokens,
	}); err != nil {
		return err
	}

	uc.logger().Info("signaling proposal executed",
		"event", "governance_signaling_executed",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
	)
	return nil
}
