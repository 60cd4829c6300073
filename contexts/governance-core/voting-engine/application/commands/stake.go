package commands

import (
	"context"
	"strings"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
)

type StakeCommand struct {
	CallerID        string
	ProposalID      uint64
	AdditionalVotes int64
}

type StakeResult struct {
	Proposal entities.Proposal
	Cost     int64
	Approved bool
}

type WithdrawCommand struct {
	CallerID        string
	ProposalID      uint64
	VotesToWithdraw int64
}

type WithdrawResult struct {
	Proposal entities.Proposal
	Refund   int64
}

// Stake charges quadratic marginal cost new²−old² for additionalVotes and,
// for funding proposals, runs the approval threshold on the post-stake
// totals. The external calls are sequenced so a failing executable target
// leaves no observable mutation: credit custody moves first, the burn and
// execution follow, and each failure unwinds the steps before it.
func (uc *EngineUseCase) Stake(ctx context.Context, cmd StakeCommand) (StakeResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := uc.logger()
	voter := strings.TrimSpace(cmd.CallerID)
	logger.Info("stake requested",
		"event", "governance_stake_started",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"caller_id", voter,
		"proposal_id", cmd.ProposalID,
		"additional_votes", cmd.AdditionalVotes,
	)

	if voter == "" {
		return StakeResult{}, domainerrors.ErrNotParticipant
	}
	if cmd.AdditionalVotes <= 0 {
		return StakeResult{}, domainerrors.ErrInvalidVoteCount
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return StakeResult{}, err
	}
	if round.State != entities.RoundStateOpen {
		return StakeResult{}, domainerrors.ErrRoundNotOpen
	}
	active, err := uc.Repo.IsParticipant(ctx, voter)
	if err != nil {
		return StakeResult{}, err
	}
	if !active {
		return StakeResult{}, domainerrors.ErrNotParticipant
	}

	proposal, err := uc.Repo.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return StakeResult{}, err
	}
	if proposal.Period != round.Period {
		return StakeResult{}, domainerrors.ErrPeriodMismatch
	}
	if proposal.Finalized() {
		return StakeResult{}, domainerrors.ErrProposalFinalized
	}

	oldVotes := proposal.Votes(voter)
	newVotes := oldVotes + cmd.AdditionalVotes
	cost := newVotes*newVotes - oldVotes*oldVotes

	balance, err := uc.Ledger.BalanceOf(ctx, voter)
	if err != nil {
		return StakeResult{}, err
	}
	if balance < cost {
		return StakeResult{}, domainerrors.ErrInsufficientCredit
	}

	newTotalVotes := proposal.TotalVotes + cmd.AdditionalVotes
	newTotalTokens := proposal.TotalTokens + cost

	willApprove := false
	if proposal.Kind() == entities.ProposalKindFunding {
		pendingCount, err := uc.Repo.SetLen(ctx, entities.SetPendingFunding)
		if err != nil {
			return StakeResult{}, err
		}
		willApprove = meetsApproval(newTotalVotes, proposal.Budget, round.Budget, round.ParticipantCount, pendingCount)
	}

	if err := uc.Ledger.TransferFrom(ctx, uc.EngineAccount, voter, uc.EngineAccount, cost); err != nil {
		return StakeResult{}, err
	}

	if willApprove {
		// Burn first: a later re-mint of the same amount always fits the
		// supply cap, which keeps the unwind path viable.
		if err := uc.Ledger.Burn(ctx, uc.EngineAccount, newTotalTokens); err != nil {
			uc.unwindStakeTransfer(ctx, voter, cost)
			return StakeResult{}, err
		}
		if err := uc.execute(ctx, ports.ExecutionCall{
			Target:      proposal.Target,
			ProposalID:  proposal.ID,
			TotalVotes:  newTotalVotes,
			TotalTokens: newTotalTokens,
			Value:       proposal.Budget,
		}); err != nil {
			logger.Warn("executable target failed; unwinding stake",
				"event", "governance_stake_execution_failed",
				"module", "governance-core/voting-engine",
				"layer", "application",
				"proposal_id", proposal.ID,
				"target", proposal.Target,
				"error", err.Error(),
			)
			if mintErr := uc.Ledger.Mint(ctx, uc.EngineAccount, newTotalTokens); mintErr == nil {
				uc.unwindStakeTransfer(ctx, voter, cost)
			}
			return StakeResult{}, domainerrors.ErrExecutionFailed
		}
	}

	now := uc.now()
	votes := proposal.CloneVotes()
	votes[voter] = newVotes
	proposal.VotesByVoter = votes
	proposal.TotalVotes = newTotalVotes
	proposal.TotalTokens = newTotalTokens
	proposal.UpdatedAt = now

	if willApprove {
		proposal.Approved = true
		if err := uc.removeFromSet(ctx, entities.SetPendingFunding, &proposal); err != nil {
			return StakeResult{}, err
		}
		slot, err := uc.Repo.AppendToSet(ctx, entities.SetApprovedFunding, proposal.ID)
		if err != nil {
			return StakeResult{}, err
		}
		proposal.SlotIndex = slot

		round.Budget -= proposal.Budget
		round.UpdatedAt = now
		if err := uc.Repo.SaveRound(ctx, round); err != nil {
			return StakeResult{}, err
		}
	}
	if err := uc.Repo.SaveProposal(ctx, proposal); err != nil {
		return StakeResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "vote.staked", proposalPartition(proposal.ID), now, map[string]any{
		"proposal_id": proposal.ID,
		"voter_id":    voter,
		"votes":       newVotes,
		"cost":        cost,
	}); err != nil {
		return StakeResult{}, err
	}
	if willApprove {
		if err := uc.appendEngineEvent(ctx, "proposal.approved", proposalPartition(proposal.ID), now, map[string]any{
			"proposal_id":  proposal.ID,
			"total_votes":  proposal.TotalVotes,
			"total_tokens": proposal.TotalTokens,
			"disbursed":    proposal.Budget,
		}); err != nil {
			return StakeResult{}, err
		}
		logger.Info("funding proposal approved",
			"event", "governance_proposal_approved",
			"module", "governance-core/voting-engine",
			"layer", "application",
			"proposal_id", proposal.ID,
			"total_votes", proposal.TotalVotes,
			"disbursed", proposal.Budget,
		)
	}

	return StakeResult{Proposal: proposal, Cost: cost, Approved: willApprove}, nil
}

// WithdrawFromProposal returns old²−(old−n)² credit to the caller using the
// same squared-difference arithmetic as Stake, so a stake followed by a full
// withdraw is a net no-op on the proposal totals and the caller's balance.
func (uc *EngineUseCase) WithdrawFromProposal(ctx context.Context, cmd WithdrawCommand) (WithdrawResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	voter := strings.TrimSpace(cmd.CallerID)
	if voter == "" {
		return WithdrawResult{}, domainerrors.ErrNotParticipant
	}
	if cmd.VotesToWithdraw <= 0 {
		return WithdrawResult{}, domainerrors.ErrInvalidVoteCount
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return WithdrawResult{}, err
	}
	if round.State != entities.RoundStateOpen {
		return WithdrawResult{}, domainerrors.ErrRoundNotOpen
	}

	proposal, err := uc.Repo.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return WithdrawResult{}, err
	}
	if proposal.Period != round.Period {
		return WithdrawResult{}, domainerrors.ErrPeriodMismatch
	}
	if proposal.Finalized() {
		return WithdrawResult{}, domainerrors.ErrProposalFinalized
	}

	oldVotes := proposal.Votes(voter)
	if cmd.VotesToWithdraw > oldVotes {
		return WithdrawResult{}, domainerrors.ErrNoVotesToWithdraw
	}
	newVotes := oldVotes - cmd.VotesToWithdraw
	refund := oldVotes*oldVotes - newVotes*newVotes

	if err := uc.Ledger.Transfer(ctx, uc.EngineAccount, voter, refund); err != nil {
		return WithdrawResult{}, err
	}

	now := uc.now()
	votes := proposal.CloneVotes()
	if newVotes == 0 {
		delete(votes, voter)
	} else {
		votes[voter] = newVotes
	}
	proposal.VotesByVoter = votes
	proposal.TotalVotes -= cmd.VotesToWithdraw
	proposal.TotalTokens -= refund
	proposal.UpdatedAt = now
	if err := uc.Repo.SaveProposal(ctx, proposal); err != nil {
		return WithdrawResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "vote.withdrawn", proposalPartition(proposal.ID), now, map[string]any{
		"proposal_id": proposal.ID,
		"voter_id":    voter,
		"votes":       newVotes,
		"refund":      refund,
	}); err != nil {
		return WithdrawResult{}, err
	}

	uc.logger().Info("votes withdrawn",
		"event", "governance_votes_withdrawn",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"proposal_id", proposal.ID,
		"voter_id", voter,
		"refund", refund,
	)
	return WithdrawResult{Proposal: proposal, Refund: refund}, nil
}

// unwindStakeTransfer sends custody credit back to the voter after a failed
// approval step. Failures here are logged; custody invariants make them
// unreachable in practice.
func (uc *EngineUseCase) unwindStakeTransfer(ctx context.Context, voter string, cost int64) {
	if err := uc.Ledger.Transfer(ctx, uc.EngineAccount, voter, cost); err != nil {
		uc.logger().Error("stake unwind transfer failed",
			"event", "governance_stake_unwind_failed",
			"module", "governance-core/voting-engine",
			"layer", "application",
			"voter_id", voter,
			"cost", cost,
			"error", err.Error(),
		)
	}
}
