package counter

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/shared/txutil"

	"gorm.io/gorm"
)

// Counter is a named monotonic sequence. Leave request ids come from the
// "leave_request" counter.
type Counter struct {
	Name      string `gorm:"type:varchar(50);primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

//go:generate mockgen -source=counter_repo.go -destination=mock/counter_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	GetNextValue(ctx context.Context, name string) (int64, error)
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

// GetNextValue increments and returns the counter in one statement. The row
// lock taken by the upsert serialises concurrent callers, and inside a
// transaction a rollback gives the value back.
func (r *repository) GetNextValue(ctx context.Context, name string) (int64, error) {
	var nextValue int64

	err := txutil.Scoped(ctx, r.db, r.tx).Raw(`
		INSERT INTO counters (name, last_value, updated_at)
		VALUES (?, 1, now())
		ON CONFLICT (name) DO UPDATE
		SET last_value = counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, name).Scan(&nextValue).Error
	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
