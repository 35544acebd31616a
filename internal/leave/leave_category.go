package leave

import (
	"strings"

	"go-leave/internal/balance"
)

// FallbackCategory is used for any reason the table does not know.
const FallbackCategory = balance.CategoryPrivileged

// CategoryTable maps known free-text reasons to a category. Matching is exact
// after trimming surrounding whitespace.
type CategoryTable map[string]balance.Category

func DefaultCategoryTable() CategoryTable {
	return CategoryTable{
		"sick":              balance.CategorySick,
		"Casual Leave":      balance.CategorySick,
		"Medical Emergency": balance.CategoryMedical,
	}
}

func (t CategoryTable) Infer(reason string) balance.Category {
	if c, ok := t[strings.TrimSpace(reason)]; ok && c.Valid() {
		return c
	}
	return FallbackCategory
}

// Policy is the configuration the workflow runs under.
type Policy struct {
	Allotments balance.Allotments
	Categories CategoryTable
}

func DefaultPolicy() Policy {
	return Policy{
		Allotments: balance.DefaultAllotments(),
		Categories: DefaultCategoryTable(),
	}
}
