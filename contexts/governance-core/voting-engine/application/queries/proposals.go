package queries

import (
	"context"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	"agora/contexts/governance-core/voting-engine/ports"
)

type ProposalQueries struct {
	Repo ports.EngineRepository
}

// ProposalSummary is the read shape for indexed-set listings, in slot order.
type ProposalSummary struct {
	ID          uint64
	Title       string
	Kind        entities.ProposalKind
	Budget      int64
	TotalVotes  int64
	TotalTokens int64
	Period      uint64
	Approved    bool
	Canceled    bool
}

func (uc ProposalQueries) Round(ctx context.Context) (entities.Round, error) {
	return uc.Repo.GetRound(ctx)
}

func (uc ProposalQueries) Proposal(ctx context.Context, id uint64) (entities.Proposal, error) {
	return uc.Repo.GetProposal(ctx, id)
}

func (uc ProposalQueries) PendingFunding(ctx context.Context) ([]ProposalSummary, error) {
	return uc.listSet(ctx, entities.SetPendingFunding)
}

func (uc ProposalQueries) ApprovedFunding(ctx context.Context) ([]ProposalSummary, error) {
	return uc.listSet(ctx, entities.SetApprovedFunding)
}

func (uc ProposalQueries) Signaling(ctx context.Context) ([]ProposalSummary, error) {
	return uc.listSet(ctx, entities.SetSignaling)
}

func (uc ProposalQueries) Refundable(ctx context.Context) ([]ProposalSummary, error) {
	return uc.listSet(ctx, entities.SetRefundable)
}

func (uc ProposalQueries) listSet(ctx context.Context, set entities.SetName) ([]ProposalSummary, error) {
	ids, err := uc.Repo.ListSet(ctx, set)
	if err != nil {
		return nil, err
	}
	items := make([]ProposalSummary, 0, len(ids))
	for _, id := range ids {
		proposal, err := uc.Repo.GetProposal(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, ProposalSummary{
			ID:          proposal.ID,
			Title:       proposal.Title,
			Kind:        proposal.Kind(),
			Budget:      proposal.Budget,
			TotalVotes:  proposal.TotalVotes,
			TotalTokens: proposal.TotalTokens,
			Period:      proposal.Period,
			Approved:    proposal.Approved,
			Canceled:    proposal.Canceled,
		})
	}
	return items, nil
}
