package balance

import (
	"context"
	"database/sql"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/shared/txutil"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Get(ctx context.Context, employeeID string, category Category) (*LeaveBalance, error)
	GetForUpdate(ctx context.Context, employeeID string, category Category) (*LeaveBalance, error)
	Adjust(ctx context.Context, employeeID string, category Category, delta int) (int, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]LeaveBalance, error)
	FindAll(ctx context.Context) ([]LeaveBalance, error)
	CreateMany(ctx context.Context, balances []LeaveBalance) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Get(ctx context.Context, employeeID string, category Category) (*LeaveBalance, error) {
	var b LeaveBalance
	err := txutil.Scoped(ctx, r.db, r.tx).
		Where("employee_id = ? AND category = ?", employeeID, string(category)).
		First(&b).Error
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return &b, nil
}

func (r *repository) GetForUpdate(ctx context.Context, employeeID string, category Category) (*LeaveBalance, error) {
	var b LeaveBalance
	err := txutil.Scoped(ctx, r.db, r.tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND category = ?", employeeID, string(category)).
		First(&b).Error
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return &b, nil
}

// Adjust applies delta in a single guarded statement and returns the new
// remaining value. The guard keeps remaining >= 0 even without a prior lock.
func (r *repository) Adjust(ctx context.Context, employeeID string, category Category, delta int) (int, error) {
	var remaining int
	res := txutil.Scoped(ctx, r.db, r.tx).Raw(`
		UPDATE leave_balances
		SET remaining = remaining + ?, updated_at = now()
		WHERE employee_id = ? AND category = ? AND remaining + ? >= 0
		RETURNING remaining
	`, delta, employeeID, string(category), delta).Scan(&remaining)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, employeeID, category); err != nil {
			return 0, err
		}
		return 0, balanceerrors.ErrInsufficientBalance
	}
	return remaining, nil
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := txutil.Scoped(ctx, r.db, r.tx).
		Where("employee_id = ?", employeeID).
		Order("category ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := txutil.Scoped(ctx, r.db, r.tx).
		Order("employee_id ASC, category ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) CreateMany(ctx context.Context, balances []LeaveBalance) error {
	if len(balances) == 0 {
		return nil
	}
	if err := txutil.Scoped(ctx, r.db, r.tx).Create(&balances).Error; err != nil {
		return mapRepositoryError(err)
	}
	return nil
}
