package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/credit-ledger/domain/entities"
	domainerrors "agora/contexts/governance-core/credit-ledger/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// supplyRowID pins the supply table to a single row.
const supplyRowID = 1

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the ledger tables and seeds the supply row with the cap.
func Migrate(db *gorm.DB, cap int64) error {
	if err := db.AutoMigrate(&accountModel{}, &supplyModel{}); err != nil {
		return err
	}
	row := supplyModel{
		ID:        supplyRowID,
		Cap:       cap,
		Minted:    0,
		UpdatedAt: time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (r *Repository) GetAccount(ctx context.Context, address string) (entities.Account, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("address = ?", strings.TrimSpace(address)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveAccount(ctx context.Context, account entities.Account) error {
	row := accountModel{
		Address:   strings.TrimSpace(account.Address),
		Balance:   account.Balance,
		UpdatedAt: account.UpdatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
		}).
		Create(&row).
		Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *Repository) GetSupply(ctx context.Context) (entities.Supply, error) {
	var row supplyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", supplyRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Supply{}, domainerrors.ErrAccountNotFound
		}
		return entities.Supply{}, err
	}
	return entities.Supply{
		Cap:       row.Cap,
		Minted:    row.Minted,
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) SaveSupply(ctx context.Context, supply entities.Supply) error {
	result := r.db.WithContext(ctx).
		Model(&supplyModel{}).
		Where("id = ?", supplyRowID).
		Updates(map[string]any{
			"cap":        supply.Cap,
			"minted":     supply.Minted,
			"updated_at": supply.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

type accountModel struct {
	Address   string    `gorm:"column:address;primaryKey"`
	Balance   int64     `gorm:"column:balance"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string {
	return "credit_accounts"
}

func (m accountModel) toEntity() entities.Account {
	return entities.Account{
		Address:   m.Address,
		Balance:   m.Balance,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type supplyModel struct {
	ID        int       `gorm:"column:id;primaryKey"`
	Cap       int64     `gorm:"column:cap"`
	Minted    int64     `gorm:"column:minted"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (supplyModel) TableName() string {
	return "credit_supply"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
