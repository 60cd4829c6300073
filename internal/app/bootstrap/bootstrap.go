package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	creditledger "agora/contexts/governance-core/credit-ledger"
	ledgerpostgres "agora/contexts/governance-core/credit-ledger/adapters/postgres"
	ledgercommands "agora/contexts/governance-core/credit-ledger/application/commands"
	ledgererrors "agora/contexts/governance-core/credit-ledger/domain/errors"
	votingengine "agora/contexts/governance-core/voting-engine"
	"agora/contexts/governance-core/voting-engine/adapters/executor"
	enginememory "agora/contexts/governance-core/voting-engine/adapters/memory"
	workerapp "agora/contexts/governance-core/voting-engine/application/workers"
	engineerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server        *httpserver.Server
	postgres      *db.Postgres
	relay         workerapp.OutboxRelay
	relayInterval time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	// The credit ledger persists to Postgres when a DSN is configured and
	// otherwise runs in process. The engine account is both the mint/burn
	// authority and the transfer-from operator.
	var (
		pg           *db.Postgres
		ledgerModule creditledger.Module
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := ledgerpostgres.Migrate(pg.DB, cfg.CreditCap); err != nil {
			_ = pg.Close()
			return nil, err
		}
		ledgerModule = creditledger.NewModule(creditledger.Dependencies{
			Accounts:  ledgerpostgres.NewRepository(pg.DB, logger),
			Authority: cfg.EngineAccountID,
			Operator:  cfg.EngineAccountID,
			Logger:    logger,
		})
	} else {
		ledgerModule = creditledger.NewInMemoryModule(cfg.CreditCap, cfg.EngineAccountID, cfg.EngineAccountID, logger)
	}

	store := enginememory.NewStore(cfg.CreditCap, cfg.EngineAccountID)
	registry := executor.NewRegistry(logger)
	engineModule := votingengine.NewModule(votingengine.Dependencies{
		Repo: store,
		Ledger: ledgerBridge{
			ledger:        ledgerModule.Ledger,
			engineAccount: cfg.EngineAccountID,
		},
		Executor:        registry,
		Outbox:          store,
		Clock:           store,
		IDGen:           store,
		OrganizerID:     cfg.OrganizerID,
		EngineAccount:   cfg.EngineAccountID,
		UnitPrice:       cfg.UnitPrice,
		ExecutorTimeout: cfg.ExecutorTimeout,
		Logger:          logger,
	})
	engineModule.Store = store
	engineModule.Executors = registry

	bus := messaging.NewBus(logger)
	server := httpserver.New(engineModule, ledgerModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		relay: workerapp.OutboxRelay{
			Outbox:    store,
			Publisher: bus,
			Clock:     store,
			BatchSize: cfg.RelayBatchSize,
			Logger:    logger,
		},
		relayInterval: cfg.RelayInterval,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	// Engine state lives in this process, so the outbox relay runs here
	// instead of a separate worker binary.
	go func() {
		ticker := time.NewTicker(a.relayInterval)
		defer ticker.Stop()
		for {
			if err := a.relay.RunOnce(ctx); err != nil && a.logger != nil {
				a.logger.Error("outbox relay cycle failed",
					"event", "bootstrap_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// ledgerBridge adapts the credit-ledger use case to the engine's ledger port.
// The engine account is passed as the mint/burn authority, and ledger
// failures are mapped onto the engine's error sentinels.
type ledgerBridge struct {
	ledger        *ledgercommands.LedgerUseCase
	engineAccount string
}

func (b ledgerBridge) Mint(ctx context.Context, to string, amount int64) error {
	return mapLedgerError(b.ledger.Mint(ctx, b.engineAccount, to, amount))
}

func (b ledgerBridge) Burn(ctx context.Context, from string, amount int64) error {
	return mapLedgerError(b.ledger.Burn(ctx, b.engineAccount, from, amount))
}

func (b ledgerBridge) BalanceOf(ctx context.Context, address string) (int64, error) {
	balance, err := b.ledger.BalanceOf(ctx, address)
	return balance, mapLedgerError(err)
}

func (b ledgerBridge) Transfer(ctx context.Context, from string, to string, amount int64) error {
	return mapLedgerError(b.ledger.Transfer(ctx, from, to, amount))
}

func (b ledgerBridge) TransferFrom(ctx context.Context, operator string, from string, to string, amount int64) error {
	return mapLedgerError(b.ledger.TransferFrom(ctx, operator, from, to, amount))
}

func mapLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		return engineerrors.ErrInsufficientCredit
	case errors.Is(err, ledgererrors.ErrSupplyCapExceeded):
		return engineerrors.ErrSupplyCapExceeded
	default:
		return engineerrors.ErrLedgerRejected
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
