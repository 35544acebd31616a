package txutil

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Scoped returns a gorm session bound to ctx. When tx is set, statements run on
// that transaction instead of the pool, so services can open a database/sql
// transaction and hand it to several gorm-backed repositories.
func Scoped(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	s := db.WithContext(ctx)
	if tx != nil {
		s.Statement.ConnPool = tx
	}
	return s
}
