package employee

import (
	"context"
	"database/sql"

	"go-leave/internal/shared/txutil"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Upsert(ctx context.Context, e *Employee) error
	FindByIDs(ctx context.Context, ids []string) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

// Upsert inserts the employee or refreshes its display name.
func (r *repository) Upsert(ctx context.Context, e *Employee) error {
	return txutil.Scoped(ctx, r.db, r.tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "updated_at"}),
		}).
		Create(e).Error
}

func (r *repository) FindByIDs(ctx context.Context, ids []string) ([]Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var employees []Employee
	err := txutil.Scoped(ctx, r.db, r.tx).
		Where("id IN ?", ids).
		Find(&employees).Error
	return employees, err
}

// NamesByID indexes employees by id string.
func NamesByID(employees []Employee) map[string]string {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID.String()] = e.FullName
	}
	return names
}
