package unit

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/governance-core/voting-engine/application/commands"
	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
)

func TestStakeThenFullWithdrawIsANetNoOp(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "signal only",
		Budget:   0,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 3,
	}); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	if got := balanceOf(t, module, "voter-1"); got != 91 {
		t.Fatalf("expected balance 91 after 3-vote stake, got %d", got)
	}

	partial, err := module.Engine.WithdrawFromProposal(context.Background(), commands.WithdrawCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		VotesToWithdraw: 2,
	})
	if err != nil {
		t.Fatalf("partial withdraw failed: %v", err)
	}
	if partial.Refund != 8 {
		t.Fatalf("expected refund 3²−1²=8, got %d", partial.Refund)
	}

	full, err := module.Engine.WithdrawFromProposal(context.Background(), commands.WithdrawCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		VotesToWithdraw: 1,
	})
	if err != nil {
		t.Fatalf("final withdraw failed: %v", err)
	}
	if full.Refund != 1 {
		t.Fatalf("expected refund 1, got %d", full.Refund)
	}
	if got := balanceOf(t, module, "voter-1"); got != 100 {
		t.Fatalf("expected balance restored to 100, got %d", got)
	}
	if full.Proposal.TotalVotes != 0 || full.Proposal.TotalTokens != 0 {
		t.Fatalf("expected zeroed totals, got %+v", full.Proposal)
	}

	if _, err := module.Engine.WithdrawFromProposal(context.Background(), commands.WithdrawCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		VotesToWithdraw: 1,
	}); !errors.Is(err, domainerrors.ErrNoVotesToWithdraw) {
		t.Fatalf("expected ErrNoVotesToWithdraw, got %v", err)
	}
}

func TestSplitStakesCostTheSquareOfTotalVotes(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "signal only",
		Budget:   0,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	total := int64(0)
	for i := 0; i < 3; i++ {
		result, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
			CallerID:        "voter-1",
			ProposalID:      created.Proposal.ID,
			AdditionalVotes: 1,
		})
		if err != nil {
			t.Fatalf("stake %d failed: %v", i+1, err)
		}
		total += result.Cost
	}
	if total != 9 {
		t.Fatalf("three single-vote stakes must cost 3²=9, got %d", total)
	}
}

func TestCancelMakesProposalRefundable(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)
	buyCredit(t, module, "voter-2", 100)
	buyCredit(t, module, "voter-3", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "community signal",
		Budget:   0,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-2",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 3,
	}); err != nil {
		t.Fatalf("voter-2 stake failed: %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-3",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 4,
	}); err != nil {
		t.Fatalf("voter-3 stake failed: %v", err)
	}

	if err := module.Engine.CancelProposal(context.Background(), commands.CancelProposalCommand{
		CallerID:   "voter-2",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if err := module.Engine.CancelProposal(context.Background(), commands.CancelProposalCommand{
		CallerID:   "voter-1",
		ProposalID: created.Proposal.ID,
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	refundable, err := module.Store.ListSet(context.Background(), entities.SetRefundable)
	if err != nil {
		t.Fatalf("list refundable failed: %v", err)
	}
	if len(refundable) != 1 || refundable[0] != created.Proposal.ID {
		t.Fatalf("expected refundable [%d], got %v", created.Proposal.ID, refundable)
	}

	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-2",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	}); !errors.Is(err, domainerrors.ErrProposalFinalized) {
		t.Fatalf("expected ErrProposalFinalized after cancel, got %v", err)
	}

	first, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-2",
		ProposalID: created.Proposal.ID,
	})
	if err != nil {
		t.Fatalf("voter-2 refund failed: %v", err)
	}
	if first.Refund != 9 || first.RemainingTokens != 16 || first.DroppedFromQueue {
		t.Fatalf("unexpected first claim: %+v", first)
	}

	if _, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-2",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrNothingToRefund) {
		t.Fatalf("expected ErrNothingToRefund on double claim, got %v", err)
	}

	second, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-3",
		ProposalID: created.Proposal.ID,
	})
	if err != nil {
		t.Fatalf("voter-3 refund failed: %v", err)
	}
	if second.Refund != 16 || second.RemainingTokens != 0 || !second.DroppedFromQueue {
		t.Fatalf("unexpected final claim: %+v", second)
	}

	refundable, err = module.Store.ListSet(context.Background(), entities.SetRefundable)
	if err != nil {
		t.Fatalf("list refundable failed: %v", err)
	}
	if len(refundable) != 0 {
		t.Fatalf("expected empty refundable set after last claim, got %v", refundable)
	}

	if got := balanceOf(t, module, "voter-2"); got != 100 {
		t.Fatalf("expected voter-2 balance 100, got %d", got)
	}
	if got := balanceOf(t, module, "voter-3"); got != 100 {
		t.Fatalf("expected voter-3 balance 100, got %d", got)
	}
}

func TestCancelWithoutStakesSkipsRefundQueue(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "never staked",
		Budget:   0,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if err := module.Engine.CancelProposal(context.Background(), commands.CancelProposalCommand{
		CallerID:   "voter-1",
		ProposalID: created.Proposal.ID,
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	refundable, err := module.Store.ListSet(context.Background(), entities.SetRefundable)
	if err != nil {
		t.Fatalf("list refundable failed: %v", err)
	}
	if len(refundable) != 0 {
		t.Fatalf("empty cancellation must not enter the refund queue, got %v", refundable)
	}

	proposal, err := module.Store.GetProposal(context.Background(), created.Proposal.ID)
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if !proposal.Canceled || proposal.Refundable {
		t.Fatalf("expected canceled non-refundable proposal, got %+v", proposal)
	}

	if _, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-1",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
}

func TestClaimRefundRejectsLiveProposal(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)
	buyCredit(t, module, "voter-2", 100)
	buyCredit(t, module, "voter-3", 100)

	// threshold = floor((0.2 + 0.5) * 3) + 1 = 3 votes, so one vote stays pending
	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "still pending",
		Budget:   500,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	}); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	if _, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-1",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
}
