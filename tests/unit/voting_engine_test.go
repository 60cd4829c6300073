package unit

import (
	"context"
	"errors"
	"testing"

	votingengine "agora/contexts/governance-core/voting-engine"
	"agora/contexts/governance-core/voting-engine/application/commands"
	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"
)

const (
	organizerID   = "organizer-1"
	engineAccount = "engine-account"
	unitPrice     = int64(1)
	creditCap     = int64(1_000_000)
)

func newEngineModule() votingengine.Module {
	return votingengine.NewInMemoryModule(creditCap, organizerID, engineAccount, unitPrice, nil)
}

func openRound(t *testing.T, module votingengine.Module, budget int64) {
	t.Helper()
	if _, err := module.Engine.OpenRound(context.Background(), commands.OpenRoundCommand{
		CallerID:      organizerID,
		InitialBudget: budget,
	}); err != nil {
		t.Fatalf("open round failed: %v", err)
	}
}

func buyCredit(t *testing.T, module votingengine.Module, voter string, payment int64) {
	t.Helper()
	if _, err := module.Engine.BuyCredit(context.Background(), commands.BuyCreditCommand{
		CallerID: voter,
		Payment:  payment,
	}); err != nil {
		t.Fatalf("buy credit for %s failed: %v", voter, err)
	}
}

func balanceOf(t *testing.T, module votingengine.Module, address string) int64 {
	t.Helper()
	balance, err := module.Store.BalanceOf(context.Background(), address)
	if err != nil {
		t.Fatalf("balance of %s failed: %v", address, err)
	}
	return balance
}

func TestOpenRoundGuards(t *testing.T) {
	module := newEngineModule()

	if _, err := module.Engine.OpenRound(context.Background(), commands.OpenRoundCommand{
		CallerID:      "not-the-organizer",
		InitialBudget: 100,
	}); !errors.Is(err, domainerrors.ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer, got %v", err)
	}
	if _, err := module.Engine.OpenRound(context.Background(), commands.OpenRoundCommand{
		CallerID:      organizerID,
		InitialBudget: 0,
	}); !errors.Is(err, domainerrors.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}

	openRound(t, module, 100)
	if _, err := module.Engine.OpenRound(context.Background(), commands.OpenRoundCommand{
		CallerID:      organizerID,
		InitialBudget: 100,
	}); !errors.Is(err, domainerrors.ErrRoundNotClosed) {
		t.Fatalf("expected ErrRoundNotClosed, got %v", err)
	}
}

func TestBuyCreditMintsAndRegisters(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)

	result, err := module.Engine.BuyCredit(context.Background(), commands.BuyCreditCommand{
		CallerID: "voter-1",
		Payment:  100,
	})
	if err != nil {
		t.Fatalf("buy credit failed: %v", err)
	}
	if result.Units != 100 || !result.Registered || result.Balance != 100 {
		t.Fatalf("unexpected purchase result: %+v", result)
	}

	again, err := module.Engine.BuyCredit(context.Background(), commands.BuyCreditCommand{
		CallerID: "voter-1",
		Payment:  50,
	})
	if err != nil {
		t.Fatalf("second buy failed: %v", err)
	}
	if again.Registered {
		t.Fatalf("second purchase must not re-register")
	}

	round, err := module.Store.GetRound(context.Background())
	if err != nil {
		t.Fatalf("get round failed: %v", err)
	}
	if round.ParticipantCount != 1 {
		t.Fatalf("expected 1 participant, got %d", round.ParticipantCount)
	}
	if round.Treasury != 150 {
		t.Fatalf("expected treasury 150, got %d", round.Treasury)
	}
}

func TestSellCreditBurnsAgainstTreasury(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 100)

	result, err := module.Engine.SellCredit(context.Background(), commands.SellCreditCommand{
		CallerID: "voter-1",
		Amount:   40,
	})
	if err != nil {
		t.Fatalf("sell credit failed: %v", err)
	}
	if result.Refund != 40 || result.Balance != 60 {
		t.Fatalf("unexpected sale result: %+v", result)
	}

	if _, err := module.Engine.SellCredit(context.Background(), commands.SellCreditCommand{
		CallerID: "voter-1",
		Amount:   100,
	}); !errors.Is(err, domainerrors.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}
}

func TestStakeAutoApprovesAtThreshold(t *testing.T) {
	module := newEngineModule()

	var captured *ports.ExecutionCall
	module.Executors.Register("treasury:grants", func(_ context.Context, call ports.ExecutionCall) error {
		captured = &call
		return nil
	})

	openRound(t, module, 1000)
	for _, voter := range []string{"voter-1", "voter-2", "voter-3", "voter-4", "voter-5"} {
		buyCredit(t, module, voter, 100)
	}

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "fund the docs sprint",
		Budget:   100,
		Target:   "treasury:grants",
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	// threshold = floor((0.2 + 100/1000) * 5) + 1 pending = 2 votes
	below, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-2",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	})
	if err != nil {
		t.Fatalf("first stake failed: %v", err)
	}
	if below.Approved {
		t.Fatalf("one vote must not reach the threshold")
	}
	if below.Cost != 1 {
		t.Fatalf("expected cost 1 for first vote, got %d", below.Cost)
	}

	result, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-2",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	})
	if err != nil {
		t.Fatalf("approving stake failed: %v", err)
	}
	if !result.Approved {
		t.Fatalf("expected approval at the threshold")
	}
	if result.Cost != 3 {
		t.Fatalf("expected marginal cost 2²−1²=3, got %d", result.Cost)
	}

	if captured == nil {
		t.Fatalf("executable target was not invoked")
	}
	if captured.ProposalID != created.Proposal.ID || captured.TotalVotes != 2 || captured.TotalTokens != 4 || captured.Value != 100 {
		t.Fatalf("unexpected execution call: %+v", captured)
	}
	if captured.GasLimit == 0 {
		t.Fatalf("expected a gas ceiling on the execution call")
	}

	round, err := module.Store.GetRound(context.Background())
	if err != nil {
		t.Fatalf("get round failed: %v", err)
	}
	if round.Budget != 900 {
		t.Fatalf("expected budget 900 after disbursal, got %d", round.Budget)
	}

	// The staked tokens were burned on approval, so engine custody is empty.
	if got := balanceOf(t, module, engineAccount); got != 0 {
		t.Fatalf("expected empty engine custody, got %d", got)
	}
	if got := balanceOf(t, module, "voter-2"); got != 96 {
		t.Fatalf("expected voter-2 balance 96, got %d", got)
	}

	pending, err := module.Store.ListSet(context.Background(), entities.SetPendingFunding)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %v", pending)
	}
	approved, err := module.Store.ListSet(context.Background(), entities.SetApprovedFunding)
	if err != nil {
		t.Fatalf("list approved failed: %v", err)
	}
	if len(approved) != 1 || approved[0] != created.Proposal.ID {
		t.Fatalf("expected approved set [%d], got %v", created.Proposal.ID, approved)
	}

	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-3",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	}); !errors.Is(err, domainerrors.ErrProposalFinalized) {
		t.Fatalf("expected ErrProposalFinalized on approved proposal, got %v", err)
	}
}

func TestStakeUnwindsWhenExecutionFails(t *testing.T) {
	module := newEngineModule()
	module.Executors.Register("broken:target", func(_ context.Context, _ ports.ExecutionCall) error {
		return errors.New("target exploded")
	})

	openRound(t, module, 1000)
	for _, voter := range []string{"voter-1", "voter-2"} {
		buyCredit(t, module, voter, 100)
	}

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "doomed proposal",
		Budget:   100,
		Target:   "broken:target",
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	// threshold = floor((0.2 + 0.1) * 2) + 1 = 1 vote
	_, err = module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-2",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	})
	if !errors.Is(err, domainerrors.ErrExecutionFailed) {
		t.Fatalf("expected ErrExecutionFailed, got %v", err)
	}

	if got := balanceOf(t, module, "voter-2"); got != 100 {
		t.Fatalf("expected voter balance restored to 100, got %d", got)
	}
	if got := balanceOf(t, module, engineAccount); got != 0 {
		t.Fatalf("expected empty engine custody after unwind, got %d", got)
	}

	proposal, err := module.Store.GetProposal(context.Background(), created.Proposal.ID)
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if proposal.Approved || proposal.TotalVotes != 0 || proposal.TotalTokens != 0 {
		t.Fatalf("expected untouched proposal after failed execution, got %+v", proposal)
	}

	round, err := module.Store.GetRound(context.Background())
	if err != nil {
		t.Fatalf("get round failed: %v", err)
	}
	if round.Budget != 1000 {
		t.Fatalf("expected untouched budget, got %d", round.Budget)
	}
}

func TestStakeGuards(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 10)

	created, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "small proposal",
		Budget:   500,
	})
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "stranger",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 1,
	}); !errors.Is(err, domainerrors.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 0,
	}); !errors.Is(err, domainerrors.ErrInvalidVoteCount) {
		t.Fatalf("expected ErrInvalidVoteCount, got %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-1",
		ProposalID:      created.Proposal.ID,
		AdditionalVotes: 4,
	}); !errors.Is(err, domainerrors.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit for 16-token stake on 10 balance, got %v", err)
	}
	if _, err := module.Engine.Stake(context.Background(), commands.StakeCommand{
		CallerID:        "voter-1",
		ProposalID:      999,
		AdditionalVotes: 1,
	}); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestAddProposalClassifiesByBudget(t *testing.T) {
	module := newEngineModule()
	openRound(t, module, 1000)
	buyCredit(t, module, "voter-1", 10)

	funding, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "funding",
		Budget:   10,
	})
	if err != nil {
		t.Fatalf("add funding proposal failed: %v", err)
	}
	signaling, err := module.Engine.AddProposal(context.Background(), commands.AddProposalCommand{
		CallerID: "voter-1",
		Title:    "signaling",
		Budget:   0,
	})
	if err != nil {
		t.Fatalf("add signaling proposal failed: %v", err)
	}

	pending, _ := module.Store.ListSet(context.Background(), entities.SetPendingFunding)
	signalingSet, _ := module.Store.ListSet(context.Background(), entities.SetSignaling)
	if len(pending) != 1 || pending[0] != funding.Proposal.ID {
		t.Fatalf("expected pending [%d], got %v", funding.Proposal.ID, pending)
	}
	if len(signalingSet) != 1 || signalingSet[0] != signaling.Proposal.ID {
		t.Fatalf("expected signaling [%d], got %v", signaling.Proposal.ID, signalingSet)
	}
}
