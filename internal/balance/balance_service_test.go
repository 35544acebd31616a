package balance_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	balanceMock "go-leave/internal/balance/mock"
	"go-leave/internal/employee"
	employeeMock "go-leave/internal/employee/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   balance.Service
	repo      *balanceMock.MockRepository
	employees *employeeMock.MockRepository
	redismock redismock.ClientMock
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dbRedis, redisMock := redismock.NewClientMock()
	repo := balanceMock.NewMockRepository(ctrl)
	employees := employeeMock.NewMockRepository(ctrl)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   balance.NewService(db, repo, employees, balance.DefaultAllotments(), dbRedis),
		repo:      repo,
		employees: employees,
		redismock: redisMock,
	}
}

func TestBalanceService_GetBalance(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByEmployee(ctx, employeeID.String()).Return([]balance.LeaveBalance{
			{EmployeeID: employeeID, Category: balance.CategoryMedical, Remaining: 12},
			{EmployeeID: employeeID, Category: balance.CategoryPrivileged, Remaining: 18},
			{EmployeeID: employeeID, Category: balance.CategorySick, Remaining: 5},
		}, nil)

		resp, err := deps.service.GetBalance(ctx, employeeID.String())

		require.NoError(t, err)
		assert.Equal(t, balance.BalanceResponse{EmployeeID: employeeID.String(), Sick: 5, Medical: 12, Privileged: 18}, resp)
		assert.Equal(t, 5, resp.Of(balance.CategorySick))
	})

	t.Run("not seeded", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByEmployee(ctx, employeeID.String()).Return(nil, nil)

		_, err := deps.service.GetBalance(ctx, employeeID.String())
		assert.ErrorIs(t, err, balanceerrors.ErrBalanceNotFound)
	})

	t.Run("invalid employee id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.GetBalance(ctx, "123")
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidEmployeeID)
	})
}

func TestBalanceService_GetSummary(t *testing.T) {
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	rows := []balance.LeaveBalance{
		{EmployeeID: first, Category: balance.CategorySick, Remaining: 2},
		{EmployeeID: first, Category: balance.CategoryMedical, Remaining: 12},
		{EmployeeID: second, Category: balance.CategoryPrivileged, Remaining: 3},
	}
	want := []balance.BalanceResponse{
		{EmployeeID: first.String(), EmployeeName: "Ana", Sick: 2, Medical: 12},
		{EmployeeID: second.String(), EmployeeName: "Budi", Privileged: 3},
	}

	t.Run("cache hit", func(t *testing.T) {
		deps := setupServiceTest(t)
		jsonResp, _ := json.Marshal(want)
		deps.redismock.ExpectGet(balance.SummaryCacheKey).SetVal(string(jsonResp))

		resp, err := deps.service.GetSummary(ctx)

		require.NoError(t, err)
		assert.Equal(t, want, resp)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.redismock.ExpectGet(balance.SummaryCacheKey).RedisNil()
		deps.repo.EXPECT().FindAll(gomock.Any()).Return(rows, nil)
		deps.employees.EXPECT().
			FindByIDs(gomock.Any(), []string{first.String(), second.String()}).
			Return([]employee.Employee{{ID: first, FullName: "Ana"}, {ID: second, FullName: "Budi"}}, nil)

		jsonResp, _ := json.Marshal(want)
		deps.redismock.ExpectSet(balance.SummaryCacheKey, jsonResp, 10*time.Minute).SetVal("OK")

		resp, err := deps.service.GetSummary(ctx)

		require.NoError(t, err)
		assert.Equal(t, want, resp)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("cancelled caller still loads the summary", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := balance.NewService(deps.db, deps.repo, deps.employees, balance.DefaultAllotments(), nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		deps.repo.EXPECT().FindAll(gomock.Any()).
			DoAndReturn(func(c context.Context) ([]balance.LeaveBalance, error) {
				assert.NoError(t, c.Err())
				return rows, nil
			})
		deps.employees.EXPECT().
			FindByIDs(gomock.Any(), []string{first.String(), second.String()}).
			DoAndReturn(func(c context.Context, _ []string) ([]employee.Employee, error) {
				assert.NoError(t, c.Err())
				return []employee.Employee{{ID: first, FullName: "Ana"}, {ID: second, FullName: "Budi"}}, nil
			})

		resp, err := svc.GetSummary(cctx)

		require.NoError(t, err)
		assert.Equal(t, want, resp)
	})

	t.Run("repository error", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.redismock.ExpectGet(balance.SummaryCacheKey).RedisNil()
		deps.repo.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("db error"))

		_, err := deps.service.GetSummary(ctx)
		assert.EqualError(t, err, "db error")
	})
}

func TestBalanceService_Seed(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.employees.EXPECT().
			Upsert(gomock.Any(), &employee.Employee{ID: employeeID, FullName: "Ana"}).
			Return(nil)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			CreateMany(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rows []balance.LeaveBalance) error {
				require.Len(t, rows, 3)
				for _, r := range rows {
					assert.Equal(t, r.Allotment, r.Remaining)
				}
				return nil
			})
		deps.redismock.ExpectDel(balance.SummaryCacheKey).SetVal(1)

		resp, err := deps.service.Seed(ctx, balance.SeedBalanceRequest{EmployeeID: employeeID.String(), FullName: "Ana"})

		require.NoError(t, err)
		assert.Equal(t, balance.BalanceResponse{EmployeeID: employeeID.String(), EmployeeName: "Ana", Sick: 10, Medical: 12, Privileged: 18}, resp)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("already seeded", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.employees.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().CreateMany(gomock.Any(), gomock.Any()).Return(balanceerrors.ErrBalanceAlreadySeeded)

		_, err := deps.service.Seed(ctx, balance.SeedBalanceRequest{EmployeeID: employeeID.String()})

		assert.ErrorIs(t, err, balanceerrors.ErrBalanceAlreadySeeded)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("invalid employee id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Seed(ctx, balance.SeedBalanceRequest{EmployeeID: "x"})
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidEmployeeID)
	})
}
