package leave_test

import (
	"testing"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/leave"

	"github.com/stretchr/testify/assert"
)

func TestFilterLeaves(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	list := []leave.Leave{
		{ID: 1, Reason: "Medical Emergency", Status: leave.StatusPending, StartDate: day(1), EndDate: day(2)},
		{ID: 2, Reason: "Wedding", Status: leave.StatusRejected, Remarks: "Team offsite", StartDate: day(10), EndDate: day(12)},
		{ID: 3, Reason: "sick", Status: leave.StatusApproved, StartDate: day(20), EndDate: day(20)},
	}

	tests := []struct {
		name string
		q    string
		want []int64
	}{
		{"blank returns everything", "  ", []int64{1, 2, 3}},
		{"reason ignores case", "MEDICAL", []int64{1}},
		{"status", "rejected", []int64{2}},
		{"remarks", "offsite", []int64{2}},
		{"date", "2024-05-20", []int64{3}},
		{"no match", "vacation", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := leave.FilterLeaves(list, tt.q)
			ids := make([]int64, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCategoryTable_Infer(t *testing.T) {
	table := leave.DefaultCategoryTable()

	assert.Equal(t, balance.CategorySick, table.Infer("sick"))
	assert.Equal(t, balance.CategorySick, table.Infer("  Casual Leave "))
	assert.Equal(t, balance.CategoryMedical, table.Infer("Medical Emergency"))
	assert.Equal(t, leave.FallbackCategory, table.Infer("medical emergency"))
	assert.Equal(t, leave.FallbackCategory, table.Infer("Family trip"))

	custom := leave.CategoryTable{"Dentist": balance.CategoryMedical, "Bogus": balance.Category("vacation")}
	assert.Equal(t, balance.CategoryMedical, custom.Infer("Dentist"))
	assert.Equal(t, leave.FallbackCategory, custom.Infer("Bogus"))
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, leave.StatusPending.Terminal())
	assert.True(t, leave.StatusApproved.Terminal())
	assert.True(t, leave.StatusRejected.Terminal())
	assert.True(t, leave.StatusCancelled.Terminal())
	assert.True(t, leave.Status("ARCHIVED").Terminal())
}
