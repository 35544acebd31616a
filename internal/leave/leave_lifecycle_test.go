package leave_test

import (
	"context"
	"database/sql"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/counter"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type balanceKey struct {
	employeeID string
	category   balance.Category
}

type memLedger struct {
	mu   sync.Mutex
	rows map[balanceKey]*balance.LeaveBalance
}

func newMemLedger() *memLedger {
	return &memLedger{rows: map[balanceKey]*balance.LeaveBalance{}}
}

func (m *memLedger) seed(employeeID uuid.UUID, category balance.Category, remaining, allotment int) {
	m.rows[balanceKey{employeeID.String(), category}] = &balance.LeaveBalance{
		EmployeeID: employeeID,
		Category:   category,
		Remaining:  remaining,
		Allotment:  allotment,
	}
}

func (m *memLedger) remaining(employeeID uuid.UUID, category balance.Category) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[balanceKey{employeeID.String(), category}].Remaining
}

func (m *memLedger) WithTx(*sql.Tx) balance.Repository { return m }

func (m *memLedger) Get(_ context.Context, employeeID string, category balance.Category) (*balance.LeaveBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[balanceKey{employeeID, category}]
	if !ok {
		return nil, balanceerrors.ErrBalanceNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memLedger) GetForUpdate(ctx context.Context, employeeID string, category balance.Category) (*balance.LeaveBalance, error) {
	return m.Get(ctx, employeeID, category)
}

func (m *memLedger) Adjust(_ context.Context, employeeID string, category balance.Category, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[balanceKey{employeeID, category}]
	if !ok {
		return 0, balanceerrors.ErrBalanceNotFound
	}
	if b.Remaining+delta < 0 {
		return 0, balanceerrors.ErrInsufficientBalance
	}
	b.Remaining += delta
	return b.Remaining, nil
}

func (m *memLedger) FindByEmployee(context.Context, string) ([]balance.LeaveBalance, error) {
	return nil, nil
}

func (m *memLedger) FindAll(context.Context) ([]balance.LeaveBalance, error) { return nil, nil }

func (m *memLedger) CreateMany(context.Context, []balance.LeaveBalance) error { return nil }

type memStore struct {
	mu     sync.Mutex
	leaves map[int64]leave.Leave
}

func newMemStore() *memStore {
	return &memStore{leaves: map[int64]leave.Leave{}}
}

func (m *memStore) WithTx(*sql.Tx) leave.Repository { return m }

func (m *memStore) Create(_ context.Context, l *leave.Leave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[l.ID] = *l
	return nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*leave.Leave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaves[id]
	if !ok {
		return nil, leaveerrors.LeaveNotFound(id)
	}
	return &l, nil
}

func (m *memStore) FindByIDForUpdate(ctx context.Context, id int64) (*leave.Leave, error) {
	return m.FindByID(ctx, id)
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, change leave.StatusChange) (*leave.Leave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leaves[id]
	if !ok {
		return nil, leaveerrors.LeaveNotFound(id)
	}
	if l.Status != leave.StatusPending {
		return nil, leaveerrors.InvalidTransition(id, string(l.Status))
	}
	l.Status = change.Status
	l.Remarks = change.Remarks
	l.DecidedBy = change.DecidedBy
	l.DecidedAt = change.DecidedAt
	m.leaves[id] = l
	return &l, nil
}

func (m *memStore) filter(keep func(leave.Leave) bool) []leave.Leave {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]leave.Leave, 0, len(m.leaves))
	for _, l := range m.leaves {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) FindByEmployee(_ context.Context, employeeID string) ([]leave.Leave, error) {
	return m.filter(func(l leave.Leave) bool { return l.EmployeeID.String() == employeeID }), nil
}

func (m *memStore) FindByStatus(_ context.Context, status leave.Status) ([]leave.Leave, error) {
	return m.filter(func(l leave.Leave) bool { return l.Status == status }), nil
}

func (m *memStore) FindAll(context.Context) ([]leave.Leave, error) {
	return m.filter(func(leave.Leave) bool { return true }), nil
}

type memCounter struct {
	mu   sync.Mutex
	next map[string]int64
}

func (m *memCounter) WithTx(*sql.Tx) counter.Repository { return m }

func (m *memCounter) GetNextValue(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next == nil {
		m.next = map[string]int64{}
	}
	m.next[name]++
	return m.next[name], nil
}

type lifecycle struct {
	sqlMock sqlmock.Sqlmock
	service leave.Service
	ledger  *memLedger
	store   *memStore
}

func newLifecycle(t *testing.T) *lifecycle {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger := newMemLedger()
	store := newMemStore()
	svc := leave.NewService(db, store, ledger, &memCounter{}, leave.DefaultPolicy())

	return &lifecycle{sqlMock: mock, service: svc, ledger: ledger, store: store}
}

func TestLeaveLifecycle_ReserveRejectRestores(t *testing.T) {
	lc := newLifecycle(t)
	employeeID := uuid.New()
	managerID := uuid.New()
	lc.ledger.seed(employeeID, balance.CategorySick, 5, 10)
	ctx := context.Background()

	expectTx(t, lc.sqlMock, true)
	first, err := lc.service.Apply(ctx, employeeID.String(), leave.ApplyLeaveRequest{
		Category: "sick", StartDate: "2024-05-01", EndDate: "2024-05-03", Reason: "flu",
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", first.Status)
	assert.Equal(t, 2, lc.ledger.remaining(employeeID, balance.CategorySick))

	expectTx(t, lc.sqlMock, false)
	_, err = lc.service.Apply(ctx, employeeID.String(), leave.ApplyLeaveRequest{
		Category: "sick", StartDate: "2024-05-04", EndDate: "2024-05-06", Reason: "flu",
	})
	require.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
	assert.Equal(t, leaveerrors.InsufficientBalanceDetails{Category: "sick", Available: 2, Requested: 3}, apperror.ToHTTP(err).Details)
	assert.Equal(t, 2, lc.ledger.remaining(employeeID, balance.CategorySick))

	expectTx(t, lc.sqlMock, true)
	rejected, err := lc.service.Decide(ctx, managerID.String(), first.ID, leave.DecideLeaveRequest{
		Decision: "REJECTED", Remarks: "conflict",
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "conflict", rejected.Remarks)
	assert.Equal(t, 5, lc.ledger.remaining(employeeID, balance.CategorySick))

	expectTx(t, lc.sqlMock, false)
	_, err = lc.service.Decide(ctx, managerID.String(), first.ID, leave.DecideLeaveRequest{Decision: "APPROVED"})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	assert.Equal(t, 5, lc.ledger.remaining(employeeID, balance.CategorySick))

	mine, err := lc.service.ListMine(ctx, employeeID.String(), "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	assert.NoError(t, lc.sqlMock.ExpectationsWereMet())
}

func TestLeaveLifecycle_ApproveKeepsReservation(t *testing.T) {
	lc := newLifecycle(t)
	employeeID := uuid.New()
	lc.ledger.seed(employeeID, balance.CategoryMedical, 12, 12)
	ctx := context.Background()

	expectTx(t, lc.sqlMock, true)
	applied, err := lc.service.Apply(ctx, employeeID.String(), leave.ApplyLeaveRequest{
		StartDate: "2024-06-10", EndDate: "2024-06-14", Reason: "Medical Emergency",
	})
	require.NoError(t, err)
	assert.Equal(t, "medical", applied.Category)
	assert.Equal(t, 5, applied.TotalDays)

	expectTx(t, lc.sqlMock, true)
	approved, err := lc.service.Decide(ctx, uuid.NewString(), applied.ID, leave.DecideLeaveRequest{Decision: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, 7, lc.ledger.remaining(employeeID, balance.CategoryMedical))

	expectTx(t, lc.sqlMock, false)
	_, err = lc.service.Cancel(ctx, employeeID.String(), applied.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition)
	assert.Equal(t, 7, lc.ledger.remaining(employeeID, balance.CategoryMedical))

	pending, err := lc.service.ListPending(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.NoError(t, lc.sqlMock.ExpectationsWereMet())
}

type modelLeave struct {
	owner    int
	category balance.Category
	days     int
	status   leave.Status
}

// TestLeaveLifecycle_RandomOperations drives random applications, decisions
// and cancellations against a simple reference model and checks that every
// balance equals its allotment minus the days held by pending or approved
// requests, and never goes negative.
func TestLeaveLifecycle_RandomOperations(t *testing.T) {
	const (
		employees = 3
		steps     = 400
	)

	lc := newLifecycle(t)
	rng := rand.New(rand.NewSource(20240501))
	ctx := context.Background()
	allotments := balance.DefaultAllotments()

	ids := make([]uuid.UUID, employees)
	for i := range ids {
		ids[i] = uuid.New()
		for _, c := range balance.Categories {
			lc.ledger.seed(ids[i], c, allotments[c], allotments[c])
		}
	}

	model := map[int64]*modelLeave{}
	held := func(owner int, c balance.Category) int {
		total := 0
		for _, l := range model {
			if l.owner == owner && l.category == c && (l.status == leave.StatusPending || l.status == leave.StatusApproved) {
				total += l.days
			}
		}
		return total
	}
	pickLeave := func() (int64, *modelLeave) {
		if len(model) == 0 {
			return 0, nil
		}
		id := int64(rng.Intn(len(model)) + 1)
		return id, model[id]
	}

	for step := 0; step < steps; step++ {
		switch rng.Intn(3) {
		case 0:
			owner := rng.Intn(employees)
			c := balance.Categories[rng.Intn(len(balance.Categories))]
			days := rng.Intn(6) + 1
			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(300))
			end := start.AddDate(0, 0, days-1)

			available := allotments[c] - held(owner, c)
			ok := days <= available
			expectTx(t, lc.sqlMock, ok)

			resp, err := lc.service.Apply(ctx, ids[owner].String(), leave.ApplyLeaveRequest{
				Category:  string(c),
				StartDate: start.Format("2006-01-02"),
				EndDate:   end.Format("2006-01-02"),
				Reason:    "trip",
			})
			if !ok {
				require.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance, "step %d", step)
				continue
			}
			require.NoError(t, err, "step %d", step)
			model[resp.ID] = &modelLeave{owner: owner, category: c, days: days, status: leave.StatusPending}

		case 1:
			id, l := pickLeave()
			if l == nil {
				continue
			}
			decision := leave.StatusApproved
			if rng.Intn(2) == 0 {
				decision = leave.StatusRejected
			}
			ok := l.status == leave.StatusPending
			expectTx(t, lc.sqlMock, ok)

			_, err := lc.service.Decide(ctx, uuid.NewString(), id, leave.DecideLeaveRequest{Decision: string(decision)})
			if !ok {
				require.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition, "step %d", step)
				continue
			}
			require.NoError(t, err, "step %d", step)
			l.status = decision

		case 2:
			id, l := pickLeave()
			if l == nil {
				continue
			}
			caller := rng.Intn(employees)
			expectTx(t, lc.sqlMock, caller == l.owner && l.status == leave.StatusPending)

			_, err := lc.service.Cancel(ctx, ids[caller].String(), id)
			switch {
			case caller != l.owner:
				require.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound, "step %d", step)
			case l.status != leave.StatusPending:
				require.ErrorIs(t, err, leaveerrors.ErrInvalidStatusTransition, "step %d", step)
			default:
				require.NoError(t, err, "step %d", step)
				l.status = leave.StatusCancelled
			}
		}

		for owner, id := range ids {
			for _, c := range balance.Categories {
				got := lc.ledger.remaining(id, c)
				require.GreaterOrEqual(t, got, 0)
				require.Equal(t, allotments[c]-held(owner, c), got, "step %d owner %d %s", step, owner, c)
			}
		}
	}

	all, err := lc.service.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(model))
	for _, r := range all {
		assert.Equal(t, string(model[r.ID].status), r.Status)
	}

	assert.NoError(t, lc.sqlMock.ExpectationsWereMet())
}
