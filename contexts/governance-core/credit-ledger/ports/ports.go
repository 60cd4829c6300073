package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/credit-ledger/domain/entities"
)

type AccountRepository interface {
	GetAccount(ctx context.Context, address string) (entities.Account, error)
	SaveAccount(ctx context.Context, account entities.Account) error
	GetSupply(ctx context.Context) (entities.Supply, error)
	SaveSupply(ctx context.Context, supply entities.Supply) error
}

type Clock interface {
	Now() time.Time
}
