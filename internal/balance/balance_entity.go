package balance

import (
	"time"

	"github.com/google/uuid"
)

// Category is a leave category. The set is closed.
type Category string

const (
	CategorySick       Category = "sick"
	CategoryMedical    Category = "medical"
	CategoryPrivileged Category = "privileged"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySick, CategoryMedical, CategoryPrivileged}

func (c Category) Valid() bool {
	switch c {
	case CategorySick, CategoryMedical, CategoryPrivileged:
		return true
	default:
		return false
	}
}

// LeaveBalance is the remaining whole-day count for one employee and category.
type LeaveBalance struct {
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Category   Category  `gorm:"type:varchar(20);primaryKey"`
	Remaining  int       `gorm:"type:int;not null;check:remaining >= 0"`
	Allotment  int       `gorm:"type:int;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Allotments is the configured annual entitlement per category. Credits never
// push a balance above it.
type Allotments map[Category]int

func DefaultAllotments() Allotments {
	return Allotments{
		CategorySick:       10,
		CategoryMedical:    12,
		CategoryPrivileged: 18,
	}
}
