package employee

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the local projection of an identity owned by the account
// service. Only what leave screens display is kept.
type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"type:varchar(150);not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
