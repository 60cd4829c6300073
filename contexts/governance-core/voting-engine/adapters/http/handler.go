package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/governance-core/voting-engine/application/commands"
	"agora/contexts/governance-core/voting-engine/application/queries"
	"agora/contexts/governance-core/voting-engine/domain/entities"
	httptransport "agora/contexts/governance-core/voting-engine/transport/http"
)

type Handler struct {
	Engine    *commands.EngineUseCase
	Proposals queries.ProposalQueries
	Logger    *slog.Logger
}

func (h Handler) OpenRoundHandler(ctx context.Context, callerID string, req httptransport.OpenRoundRequest) (httptransport.RoundResponse, error) {
	result, err := h.Engine.OpenRound(ctx, commands.OpenRoundCommand{
		CallerID:      callerID,
		InitialBudget: req.InitialBudget,
	})
	if err != nil {
		return httptransport.RoundResponse{}, err
	}
	return mapRound(result.Round), nil
}

func (h Handler) CloseRoundHandler(ctx context.Context, callerID string) (httptransport.CloseRoundResponse, error) {
	result, err := h.Engine.CloseRound(ctx, commands.CloseRoundCommand{CallerID: callerID})
	if err != nil {
		return httptransport.CloseRoundResponse{}, err
	}
	return httptransport.CloseRoundResponse{
		Round: mapRound(result.Round),
		Swept: result.Swept,
	}, nil
}

func (h Handler) RoundHandler(ctx context.Context) (httptransport.RoundResponse, error) {
	round, err := h.Proposals.Round(ctx)
	if err != nil {
		return httptransport.RoundResponse{}, err
	}
	return mapRound(round), nil
}

func (h Handler) BuyCreditHandler(ctx context.Context, callerID string, req httptransport.BuyCreditRequest) (httptransport.BuyCreditResponse, error) {
	result, err := h.Engine.BuyCredit(ctx, commands.BuyCreditCommand{
		CallerID: callerID,
		Payment:  req.Payment,
	})
	if err != nil {
		return httptransport.BuyCreditResponse{}, err
	}
	return httptransport.BuyCreditResponse{
		Units:      result.Units,
		Registered: result.Registered,
		Balance:    result.Balance,
	}, nil
}

func (h Handler) SellCreditHandler(ctx context.Context, callerID string, req httptransport.SellCreditRequest) (httptransport.SellCreditResponse, error) {
	result, err := h.Engine.SellCredit(ctx, commands.SellCreditCommand{
		CallerID: callerID,
		Amount:   req.Amount,
	})
	if err != nil {
		return httptransport.SellCreditResponse{}, err
	}
	return httptransport.SellCreditResponse{
		Refund:  result.Refund,
		Balance: result.Balance,
	}, nil
}

func (h Handler) RemoveParticipantHandler(ctx context.Context, callerID string) error {
	return h.Engine.RemoveParticipant(ctx, commands.RemoveParticipantCommand{CallerID: callerID})
}

func (h Handler) AddProposalHandler(ctx context.Context, callerID string, req httptransport.AddProposalRequest) (httptransport.ProposalResponse, error) {
	result, err := h.Engine.AddProposal(ctx, commands.AddProposalCommand{
		CallerID:    callerID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Target:      req.Target,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(result.Proposal), nil
}

func (h Handler) CancelProposalHandler(ctx context.Context, callerID string, proposalID uint64) error {
	return h.Engine.CancelProposal(ctx, commands.CancelProposalCommand{
		CallerID:   callerID,
		ProposalID: proposalID,
	})
}

func (h Handler) StakeHandler(ctx context.Context, callerID string, proposalID uint64, req httptransport.StakeRequest) (httptransport.StakeResponse, error) {
	result, err := h.Engine.Stake(ctx, commands.StakeCommand{
		CallerID:        callerID,
		ProposalID:      proposalID,
		AdditionalVotes: req.AdditionalVotes,
	})
	if err != nil {
		return httptransport.StakeResponse{}, err
	}
	return httptransport.StakeResponse{
		Proposal: mapProposal(result.Proposal),
		Cost:     result.Cost,
		Approved: result.Approved,
	}, nil
}

func (h Handler) WithdrawHandler(ctx context.Context, callerID string, proposalID uint64, req httptransport.WithdrawRequest) (httptransport.WithdrawResponse, error) {
	result, err := h.Engine.WithdrawFromProposal(ctx, commands.WithdrawCommand{
		CallerID:        callerID,
		ProposalID:      proposalID,
		VotesToWithdraw: req.VotesToWithdraw,
	})
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	return httptransport.WithdrawResponse{
		Proposal: mapProposal(result.Proposal),
		Refund:   result.Refund,
	}, nil
}

func (h Handler) ClaimRefundHandler(ctx context.Context, callerID string, proposalID uint64) (httptransport.ClaimRefundResponse, error) {
	result, err := h.Engine.ClaimRefund(ctx, commands.ClaimRefundCommand{
		CallerID:   callerID,
		ProposalID: proposalID,
	})
	if err != nil {
		return httptransport.ClaimRefundResponse{}, err
	}
	return httptransport.ClaimRefundResponse{
		Refund:           result.Refund,
		RemainingTokens:  result.RemainingTokens,
		DroppedFromQueue: result.DroppedFromQueue,
	}, nil
}

func (h Handler) ExecuteSignalingHandler(ctx context.Context, callerID string, proposalID uint64) error {
	return h.Engine.ExecuteSignaling(ctx, commands.ExecuteSignalingCommand{
		CallerID:   callerID,
		ProposalID: proposalID,
	})
}

func (h Handler) ProposalHandler(ctx context.Context, proposalID uint64) (httptransport.ProposalResponse, error) {
	proposal, err := h.Proposals.Proposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) PendingFundingHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	items, err := h.Proposals.PendingFunding(ctx)
	return mapList(items), err
}

func (h Handler) ApprovedFundingHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	items, err := h.Proposals.ApprovedFunding(ctx)
	return mapList(items), err
}

func (h Handler) SignalingHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	items, err := h.Proposals.Signaling(ctx)
	return mapList(items), err
}

func (h Handler) RefundableHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	items, err := h.Proposals.Refundable(ctx)
	return mapList(items), err
}

func mapRound(round entities.Round) httptransport.RoundResponse {
	return httptransport.RoundResponse{
		State:            string(round.State),
		Period:           round.Period,
		Budget:           round.Budget,
		Treasury:         round.Treasury,
		ParticipantCount: round.ParticipantCount,
	}
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		ProposalID:  proposal.ID,
		Creator:     proposal.Creator,
		Title:       proposal.Title,
		Description: proposal.Description,
		Kind:        string(proposal.Kind()),
		Budget:      proposal.Budget,
		Target:      proposal.Target,
		TotalVotes:  proposal.TotalVotes,
		TotalTokens: proposal.TotalTokens,
		Approved:    proposal.Approved,
		Canceled:    proposal.Canceled,
		Period:      proposal.Period,
	}
}

func mapList(items []queries.ProposalSummary) httptransport.ProposalListResponse {
	out := make([]httptransport.ProposalListItem, 0, len(items))
	for _, item := range items {
		out = append(out, httptransport.ProposalListItem{
			ProposalID:  item.ID,
			Title:       item.Title,
			Kind:        string(item.Kind),
			Budget:      item.Budget,
			TotalVotes:  item.TotalVotes,
			TotalTokens: item.TotalTokens,
			Period:      item.Period,
			Approved:    item.Approved,
			Canceled:    item.Canceled,
		})
	}
	return httptransport.ProposalListResponse{Items: out}
}
