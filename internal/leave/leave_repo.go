package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/shared/txutil"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IDCounter names the counter row leave ids are drawn from.
const IDCounter = "leave_request"

const newestFirst = "created_at DESC, id DESC"

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id int64) (*Leave, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Leave, error)
	UpdateStatus(ctx context.Context, id int64, change StatusChange) (*Leave, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]Leave, error)
	FindByStatus(ctx context.Context, status Status) ([]Leave, error)
	FindAll(ctx context.Context) ([]Leave, error)
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

// Create stores l as given. The caller assigns l.ID from the IDCounter in the
// same transaction.
func (r *repository) Create(ctx context.Context, l *Leave) error {
	return txutil.Scoped(ctx, r.db, r.tx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Leave, error) {
	var l Leave
	err := txutil.Scoped(ctx, r.db, r.tx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return &l, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id int64) (*Leave, error) {
	var l Leave
	err := txutil.Scoped(ctx, r.db, r.tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return &l, nil
}

// UpdateStatus resolves a pending request. The status guard lives in the
// WHERE clause, so a request that is no longer pending is never overwritten.
func (r *repository) UpdateStatus(ctx context.Context, id int64, change StatusChange) (*Leave, error) {
	var l Leave
	res := txutil.Scoped(ctx, r.db, r.tx).
		Model(&l).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":     change.Status,
			"remarks":    change.Remarks,
			"decided_by": change.DecidedBy,
			"decided_at": change.DecidedAt,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, leaveerrors.InvalidTransition(id, string(current.Status))
	}
	return &l, nil
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]Leave, error) {
	var leaves []Leave
	err := txutil.Scoped(ctx, r.db, r.tx).
		Where("employee_id = ?", employeeID).
		Order(newestFirst).
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByStatus(ctx context.Context, status Status) ([]Leave, error) {
	var leaves []Leave
	err := txutil.Scoped(ctx, r.db, r.tx).
		Where("status = ?", status).
		Order(newestFirst).
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAll(ctx context.Context) ([]Leave, error) {
	var leaves []Leave
	err := txutil.Scoped(ctx, r.db, r.tx).
		Order(newestFirst).
		Find(&leaves).Error
	return leaves, err
}

func mapRepositoryError(err error, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.LeaveNotFound(id)
	}
	return err
}
