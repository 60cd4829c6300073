package unit

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/governance-core/voting-engine/application/commands"
	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
)

func TestCloseRoundSweepsBudgetAndBumpsPeriod(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 500)

	result, err := module.Engine.CloseRound(context.Background(), commands.CloseRoundCommand{
		CallerID: organizerID,
	})
	if err != nil {
		t.Fatalf("close round failed: %v", err)
	}
	if result.Swept != 500 {
		t.Fatalf("expected swept 500, got %d", result.Swept)
	}
	if result.Round.State != entities.RoundStateClosed || result.Round.Period != 2 || result.Round.Budget != 0 {
		t.Fatalf("unexpected round after close: %+v", result.Round)
	}

	if _, err := module.Engine.CloseRound(context.Background(), commands.CloseRoundCommand{
		CallerID: organizerID,
	}); !errors.Is(err, domainerrors.ErrRoundNotOpen) {
		t.Fatalf("expected ErrRoundNotOpen on double close, got %v", err)
	}
}

func TestReopenClearsWorkingSetsAndStrandsOldProposals(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "period one proposal",
		Budget:   900,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if _, err := module.Engine.CloseRound(context.Background(), commands.CloseRoundCommand{
		CallerID: organizerID,
	}); err != nil {
		t.Fatalf("close round failed: %v", err)
	}
	openRound(t, module, 2000)

	pending, err := module.Store.ListSet(context.Background(), entities.SetPendingFunding)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected cleared pending set after reopen, got %v", pending)
	}

	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	}); !errors.Is(err, domainerrors.ErrPeriodMismatch) {
		t.Fatalf("expected ErrPeriodMismatch on stale proposal, got %v", err)
	}
	if err := module.Engine.CancelProposal(context.Background(), commands.CancelProposalCommand{
		CallerID:   "voter-1",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrPeriodMismatch) {
		t.Fatalf("expected ErrPeriodMismatch on stale cancel, got %v", err)
	}
}

func TestSupersededProposalRefundsLazily(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)
	buyCredit(t, module, "voter-2", 100)
	buyCredit(t, module, "voter-3", 100)

	// threshold = floor((0.2 + 0.9) * 3) + 1 = 4 votes; the stakes below stay under it
	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "never approved",
		Budget:   900,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-2",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 2,
	}); err != nil {
		t.Fatalf("voter-2 stake failed: %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-3",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	}); err != nil {
		t.Fatalf("voter-3 stake failed: %v", err)
	}

	if _, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-2",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable before the period ends, got %v", err)
	}

	if _, err := module.Engine.CloseRound(context.Background(), commands.CloseRoundCommand{
		CallerID: organizerID,
	}); err != nil {
		t.Fatalf("close round failed: %v", err)
	}

	first, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-2",
		ProposalID: created.Proposal.ID,
	})
	if err != nil {
		t.Fatalf("voter-2 refund failed: %v", err)
	}
	if first.Refund != 4 || first.DroppedFromQueue {
		t.Fatalf("unexpected first claim: %+v", first)
	}

	// First claim with tokens left behind parks the proposal in the
	// refundable queue for discovery.
	refundable, err := module.Store.ListSet(context.Background(), entities.SetRefundable)
	if err != nil {
		t.Fatalf("list refundable failed: %v", err)
	}
	if len(refundable) != 1 || refundable[0] != created.Proposal.ID {
		t.Fatalf("expected refundable [%d], got %v", created.Proposal.ID, refundable)
	}

	second, err := module.Engine.ClaimRefund(context.Background(), commands.ClaimRefundCommand{
		CallerID:   "voter-3",
		ProposalID: created.Proposal.ID,
	})
	if err != nil {
		t.Fatalf("voter-3 refund failed: %v", err)
	}
	if second.Refund != 1 || !second.DroppedFromQueue {
		t.Fatalf("unexpected final claim: %+v", second)
	}

	refundable, err = module.Store.ListSet(context.Background(), entities.SetRefundable)
	if err != nil {
		t.Fatalf("list refundable failed: %v", err)
	}
	if len(refundable) != 0 {
		t.Fatalf("expected drained refundable set, got %v", refundable)
	}
}

func TestExecuteSignalingAfterClose(t *testing.T) {
	module := newEngineModule()

	var calls []ports.ExecutionCall
	module.Executors.Register("webhook:announce", func(_ context.Context, call ports.ExecutionCall) error {
		calls = append(calls, call)
		return nil
	})

	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "announce the results",
		Budget:   0,
		Target:   "webhook:announce",
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

	if err := module.Engine.ExecuteSignaling(context.Background(), commands.ExecuteSignalingCommand{
		CallerID:   "anyone",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrRoundStillOpen) {
		t.Fatalf("expected ErrRoundStillOpen, got %v", err)
	}

	if _, err := module.Engine.CloseRound(context.Background(), commands.CloseRoundCommand{
		CallerID: organizerID,
	}); err != nil {
		t.Fatalf("close round failed: %v", err)
	}

	if err := module.Engine.ExecuteSignaling(context.Background(), commands.ExecuteSignalingCommand{
		CallerID:   "anyone",
		ProposalID: created.Proposal.ID,
	}); err != nil {
		t.Fatalf("execute signaling failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected exactly one execution, got %d", len(calls))
	}
	if calls[0].TotalVotes != 3 || calls[0].TotalTokens != 9 || calls[0].Value != 0 {
		t.Fatalf("unexpected execution call: %+v", calls[0])
	}

	if err := module.Engine.ExecuteSignaling(context.Background(), commands.ExecuteSignalingCommand{
		CallerID:   "anyone",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
}

func TestExecuteSignalingRejectsFundingProposals(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "funding",
		Budget:   10,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if err := module.Engine.ExecuteSignaling(context.Background(), commands.ExecuteSignalingCommand{
		CallerID:   "anyone",
		ProposalID: created.Proposal.ID,
	}); !errors.Is(err, domainerrors.ErrNotSignaling) {
		t.Fatalf("expected ErrNotSignaling, got %v", err)
	}
}

func TestRemoveParticipantDropsCount(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)
	buyCredit(t, module, "voter-2", 100)

	if err := module.Engine.RemoveParticipant(context.Background(), commands.RemoveParticipantCommand{
		CallerID: "voter-1",
	}); err != nil {
		t.Fatalf("remove participant failed: %v", err)
	}

	round, err := module.Store.GetRound(context.Background())
	if err != nil {
		t.Fatalf("get round failed: %v", err)
	}
	if round.ParticipantCount != 1 {
		t.Fatalf("expected participant count 1, got %d", round.ParticipantCount)
	}

	if err := module.Engine.RemoveParticipant(context.Background(), commands.RemoveParticipantCommand{
		CallerID: "voter-1",
	}); !errors.Is(err, domainerrors.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant on double removal, got %v", err)
	}
}
