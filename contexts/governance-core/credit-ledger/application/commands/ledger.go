package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "agora/contexts/governance-core/credit-ledger/application"
	"agora/contexts/governance-core/credit-ledger/domain/entities"
	domainerrors "agora/contexts/governance-core/credit-ledger/domain/errors"
	"agora/contexts/governance-core/credit-ledger/ports"
)

// LedgerUseCase enforces the capability boundary of the credit ledger:
// mint/burn gated on the registered authority, transfer-from gated on the
// registered operator, and cumulative live supply bounded by the cap. A
// mutex serializes mutations so balance checks and writes cannot interleave.
type LedgerUseCase struct {
	mu sync.Mutex

	Accounts  ports.AccountRepository
	Clock     ports.Clock
	Authority string
	Operator  string
	Logger    *slog.Logger
}

func (uc *LedgerUseCase) Mint(ctx context.Context, caller string, to string, amount int64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(caller) != uc.Authority {
		return domainerrors.ErrUnauthorizedAuthority
	}
	if amount <= 0 {
		return domainerrors.ErrInvalidAmount
	}

	supply, err := uc.Accounts.GetSupply(ctx)
	if err != nil {
		return err
	}
	if supply.Cap > 0 && supply.Minted+amount > supply.Cap {
		logger.Warn("mint rejected by supply cap",
			"event", "ledger_mint_cap_rejected",
			"module", "governance-core/credit-ledger",
			"layer", "application",
			"to", strings.TrimSpace(to),
			"amount", amount,
			"remaining", supply.Remaining(),
		)
		return domainerrors.ErrSupplyCapExceeded
	}

	now := uc.now()
	account, err := uc.loadOrZero(ctx, to)
	if err != nil {
		return err
	}
	account.Balance += amount
	account.UpdatedAt = now
	if err := uc.Accounts.SaveAccount(ctx, account); err != nil {
		return err
	}
	supply.Minted += amount
	supply.UpdatedAt = now
	if err := uc.Accounts.SaveSupply(ctx, supply); err != nil {
		return err
	}

	logger.Info("credit minted",
		"event", "ledger_minted",
		"module", "governance-core/credit-ledger",
		"layer", "application",
		"to", account.Address,
		"amount", amount,
	)
	return nil
}

func (uc *LedgerUseCase) Burn(ctx context.Context, caller string, from string, amount int64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if strings.TrimSpace(caller) != uc.Authority {
		return domainerrors.ErrUnauthorizedAuthority
	}
	if amount <= 0 {
		return domainerrors.ErrInvalidAmount
	}

	account, err := uc.loadOrZero(ctx, from)
	if err != nil {
		return err
	}
	if account.Balance < amount {
		return domainerrors.ErrInsufficientBalance
	}
	supply, err := uc.Accounts.GetSupply(ctx)
	if err != nil {
		return err
	}

	now := uc.now()
	account.Balance -= amount
	account.UpdatedAt = now
	if err := uc.Accounts.SaveAccount(ctx, account); err != nil {
		return err
	}
	supply.Minted -= amount
	supply.UpdatedAt = now
	if err := uc.Accounts.SaveSupply(ctx, supply); err != nil {
		return err
	}

	application.ResolveLogger(uc.Logger).Info("credit burned",
		"event", "ledger_burned",
		"module", "governance-core/credit-ledger",
		"layer", "application",
		"from", account.Address,
		"amount", amount,
	)
	return nil
}

func (uc *LedgerUseCase) BalanceOf(ctx context.Context, address string) (int64, error) {
	account, err := uc.Accounts.GetAccount(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

func (uc *LedgerUseCase) Supply(ctx context.Context) (entities.Supply, error) {
	return uc.Accounts.GetSupply(ctx)
}

// Transfer moves credit on behalf of from itself (caller == from).
func (uc *LedgerUseCase) Transfer(ctx context.Context, from string, to string, amount int64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.move(ctx, from, to, amount)
}

// TransferFrom moves credit pulled by the operator account.
func (uc *LedgerUseCase) TransferFrom(ctx context.Context, operator string, from string, to string, amount int64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if strings.TrimSpace(operator) != uc.Operator {
		return domainerrors.ErrUnauthorizedOperator
	}
	return uc.move(ctx, from, to, amount)
}

func (uc *LedgerUseCase) move(ctx context.Context, from string, to string, amount int64) error {
	if amount <= 0 {
		return domainerrors.ErrInvalidAmount
	}
	source, err := uc.loadOrZero(ctx, from)
	if err != nil {
		return err
	}
	if source.Balance < amount {
		return domainerrors.ErrInsufficientBalance
	}
	// Self-transfers end at the balance check. Loading the account a second
	// time would save a stale copy over the debit and create credit.
	if source.Address == strings.TrimSpace(to) {
		return nil
	}
	target, err := uc.loadOrZero(ctx, to)
	if err != nil {
		return err
	}

	now := uc.now()
	source.Balance -= amount
	source.UpdatedAt = now
	target.Balance += amount
	target.UpdatedAt = now
	if err := uc.Accounts.SaveAccount(ctx, source); err != nil {
		return err
	}
	return uc.Accounts.SaveAccount(ctx, target)
}

func (uc *LedgerUseCase) loadOrZero(ctx context.Context, address string) (entities.Account, error) {
	address = strings.TrimSpace(address)
	account, err := uc.Accounts.GetAccount(ctx, address)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Account{Address: address}, nil
		}
		return entities.Account{}, err
	}
	return account, nil
}

func (uc *LedgerUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
