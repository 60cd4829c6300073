package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/governance-core/credit-ledger/application/commands"
	httptransport "agora/contexts/governance-core/credit-ledger/transport/http"
)

type Handler struct {
	Ledger *commands.LedgerUseCase
	Logger *slog.Logger
}

func (h Handler) BalanceHandler(ctx context.Context, address string) (httptransport.BalanceResponse, error) {
	balance, err := h.Ledger.BalanceOf(ctx, address)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{
		Address: address,
		Balance: balance,
	}, nil
}

func (h Handler) SupplyHandler(ctx context.Context) (httptransport.SupplyResponse, error) {
	supply, err := h.Ledger.Supply(ctx)
	if err != nil {
		return httptransport.SupplyResponse{}, err
	}
	return httptransport.SupplyResponse{
		Cap:       supply.Cap,
		Minted:    supply.Minted,
		Remaining: supply.Remaining(),
	}, nil
}
