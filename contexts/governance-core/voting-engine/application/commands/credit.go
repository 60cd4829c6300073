package commands

import (
	"context"
	"strings"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
)

type BuyCreditCommand struct {
	CallerID string
	Payment  int64
}

type BuyCreditResult struct {
	Units      int64
	Registered bool
	Balance    int64
}

type SellCreditCommand struct {
	CallerID string
	Amount   int64
}

type SellCreditResult struct {
	Refund  int64
	Balance int64
}

type RemoveParticipantCommand struct {
	CallerID string
}

// BuyCredit mints floor(payment/unitPrice) credit units to the caller and
// registers first-time callers as participants. The full payment accrues to
// the treasury that backs later SellCredit refunds. RegisterParticipant is
// the same entry point under its registration-flavored name.
func (uc *EngineUseCase) BuyCredit(ctx context.Context, cmd BuyCreditCommand) (BuyCreditResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := uc.logger()
	caller := strings.TrimSpace(cmd.CallerID)
	logger.Info("credit purchase requested",
		"event", "governance_credit_buy_started",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"caller_id", caller,
		"payment", cmd.Payment,
	)

	if caller == "" {
		return BuyCreditResult{}, domainerrors.ErrNotParticipant
	}
	if cmd.Payment <= 0 {
		return BuyCreditResult{}, domainerrors.ErrInvalidPayment
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return BuyCreditResult{}, err
	}
	if round.State != entities.RoundStateOpen {
		return BuyCreditResult{}, domainerrors.ErrRoundNotOpen
	}
	if cmd.Payment < uc.UnitPrice {
		return BuyCreditResult{}, domainerrors.ErrPaymentBelowUnitPrice
	}

	units := cmd.Payment / uc.UnitPrice
	if err := uc.Ledger.Mint(ctx, caller, units); err != nil {
		logger.Warn("credit mint rejected",
			"event", "governance_credit_mint_rejected",
			"module", "governance-core/voting-engine",
			"layer", "application",
			"caller_id", caller,
			"units", units,
			"error", err.Error(),
		)
		return BuyCreditResult{}, err
	}

	now := uc.now()
	registered := false
	active, err := uc.Repo.IsParticipant(ctx, caller)
	if err != nil {
		return BuyCreditResult{}, err
	}
	if !active {
		if err := uc.Repo.SetParticipant(ctx, caller, true); err != nil {
			return BuyCreditResult{}, err
		}
		round.ParticipantCount++
		registered = true
	}
	round.Treasury += cmd.Payment
	round.UpdatedAt = now
	if err := uc.Repo.SaveRound(ctx, round); err != nil {
		return BuyCreditResult{}, err
	}

	balance, err := uc.Ledger.BalanceOf(ctx, caller)
	if err != nil {
		return BuyCreditResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "credit.purchased", caller, now, map[string]any{
		"caller_id":  caller,
		"payment":    cmd.Payment,
		"units":      units,
		"registered": registered,
	}); err != nil {
		return BuyCreditResult{}, err
	}

	logger.Info("credit purchased",
		"event", "governance_credit_purchased",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"caller_id", caller,
		"units", units,
		"registered", registered,
	)
	return BuyCreditResult{Units: units, Registered: registered, Balance: balance}, nil
}

// SellCredit burns credit and refunds amount*unitPrice from the treasury.
// Staked credit sits in the engine account, so the caller's ledger balance
// is exactly their unlocked credit.
func (uc *EngineUseCase) SellCredit(ctx context.Context, cmd SellCreditCommand) (SellCreditResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	caller := strings.TrimSpace(cmd.CallerID)
	if caller == "" {
		return SellCreditResult{}, domainerrors.ErrNotParticipant
	}
	if cmd.Amount <= 0 {
		return SellCreditResult{}, domainerrors.ErrInvalidPayment
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return SellCreditResult{}, err
	}
	if round.State != entities.RoundStateOpen {
		return SellCreditResult{}, domainerrors.ErrRoundNotOpen
	}

	balance, err := uc.Ledger.BalanceOf(ctx, caller)
	if err != nil {
		return SellCreditResult{}, err
	}
	if balance < cmd.Amount {
		return SellCreditResult{}, domainerrors.ErrInsufficientCredit
	}

	refund := cmd.Amount * uc.UnitPrice
	if round.Treasury < refund {
		return SellCreditResult{}, domainerrors.ErrInsufficientTreasury
	}

	if err := uc.Ledger.Burn(ctx, caller, cmd.Amount); err != nil {
		return SellCreditResult{}, err
	}

	now := uc.now()
	round.Treasury -= refund
	round.UpdatedAt = now
	if err := uc.Repo.SaveRound(ctx, round); err != nil {
		return SellCreditResult{}, err
	}

	if err := uc.appendEngineEvent(ctx, "credit.sold", caller, now, map[string]any{
		"caller_id": caller,
		"amount":    cmd.Amount,
		"refund":    refund,
	}); err != nil {
		return SellCreditResult{}, err
	}

	uc.logger().Info("credit sold",
		"event", "governance_credit_sold",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"caller_id", caller,
		"amount", cmd.Amount,
		"refund", refund,
	)
	return SellCreditResult{Refund: refund, Balance: balance - cmd.Amount}, nil
}

// RemoveParticipant clears the caller's registration flag. Held credit is
// intentionally left with the caller.
func (uc *EngineUseCase) RemoveParticipant(ctx context.Context, cmd RemoveParticipantCommand) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	caller := strings.TrimSpace(cmd.CallerID)
	if caller == "" {
		return domainerrors.ErrNotParticipant
	}
	active, err := uc.Repo.IsParticipant(ctx, caller)
	if err != nil {
		return err
	}
	if !active {
		return domainerrors.ErrNotParticipant
	}

	round, err := uc.Repo.GetRound(ctx)
	if err != nil {
		return err
	}

	now := uc.now()
	if err := uc.Repo.SetParticipant(ctx, caller, false); err != nil {
		return err
	}
	round.ParticipantCount--
	round.UpdatedAt = now
	if err := uc.Repo.SaveRound(ctx, round); err != nil {
		return err
	}

	if err := uc.appendEngineEvent(ctx, "participant.removed", caller, now, map[string]any{
		"caller_id": caller,
	}); err != nil {
		return err
	}

	uc.logger().Info("participant removed",
		"event", "governance_participant_removed",
		"module", "governance-core/voting-engine",
		"layer", "application",
		"caller_id", caller,
	)
	return nil
}
