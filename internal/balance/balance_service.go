package balance

import (
	"context"
	"database/sql"
	"encoding/json"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/employee"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	GetBalance(ctx context.Context, employeeID string) (BalanceResponse, error)
	GetSummary(ctx context.Context) ([]BalanceResponse, error)
	Seed(ctx context.Context, req SeedBalanceRequest) (BalanceResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	employees  employee.Repository
	allotments Allotments
	rdb        *redis.Client
	sf         *singleflight.Group
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	allotments Allotments,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	if allotments == nil {
		allotments = DefaultAllotments()
	}
	return &service{
		db:         db,
		repo:       repo,
		employees:  employees,
		allotments: allotments,
		rdb:        rdb,
		sf:         &singleflight.Group{},
		logger:     l,
	}
}

func (s *service) GetBalance(ctx context.Context, employeeID string) (BalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}

	balances, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("get balance failed", zap.String("employee_id", employeeID), zap.Error(err))
		return BalanceResponse{}, err
	}
	if len(balances) == 0 {
		return BalanceResponse{}, balanceerrors.ErrBalanceNotFound.WithDetails(map[string]any{
			"employee_id": employeeID,
		})
	}

	return mapToListResponse(balances, nil)[0], nil
}

func (s *service) GetSummary(ctx context.Context) ([]BalanceResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, SummaryCacheKey).Result(); err == nil {
			var resp []BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// callers share one flight; the first caller going away must not fail
	// the others
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(SummaryCacheKey, func() (interface{}, error) {
		balances, err := s.repo.FindAll(flightCtx)
		if err != nil {
			return nil, err
		}

		ids := distinctEmployeeIDs(balances)
		employees, err := s.employees.FindByIDs(flightCtx, ids)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(balances, employee.NamesByID(employees))

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(flightCtx, SummaryCacheKey, jsonData, summaryCacheTTL)
			}
		}

		return resp, nil
	})
	if err != nil {
		s.logger.Error("get balance summary failed", zap.Error(err))
		return nil, err
	}

	return v.([]BalanceResponse), nil
}

// Seed opens an employee's balances at the configured allotments. It fails
// with ErrBalanceAlreadySeeded when any category already exists.
func (s *service) Seed(ctx context.Context, req SeedBalanceRequest) (BalanceResponse, error) {
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	s.logger.Debug("seed balance requested", zap.String("employee_id", req.EmployeeID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("seed balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	if err := s.employees.WithTx(tx).Upsert(ctx, &employee.Employee{
		ID:       employeeUUID,
		FullName: req.FullName,
	}); err != nil {
		s.logger.Error("seed balance upsert employee failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	rows := make([]LeaveBalance, 0, len(Categories))
	for _, c := range Categories {
		rows = append(rows, LeaveBalance{
			EmployeeID: employeeUUID,
			Category:   c,
			Remaining:  s.allotments[c],
			Allotment:  s.allotments[c],
		})
	}
	if err := s.repo.WithTx(tx).CreateMany(ctx, rows); err != nil {
		s.logger.Warn("seed balance persist failed",
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err),
		)
		return BalanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("seed balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	InvalidateSummary(ctx, s.rdb, s.logger)

	s.logger.Info("seed balance success", zap.String("employee_id", req.EmployeeID))
	return mapToListResponse(rows, map[string]string{req.EmployeeID: req.FullName})[0], nil
}

func distinctEmployeeIDs(balances []LeaveBalance) []string {
	seen := make(map[uuid.UUID]struct{}, len(balances))
	ids := make([]string, 0, len(balances))
	for _, b := range balances {
		if _, ok := seen[b.EmployeeID]; ok {
			continue
		}
		seen[b.EmployeeID] = struct{}{}
		ids = append(ids, b.EmployeeID.String())
	}
	return ids
}

// mapToListResponse folds per-category rows into one response per employee,
// keeping first-seen employee order.
func mapToListResponse(balances []LeaveBalance, names map[string]string) []BalanceResponse {
	resp := make([]BalanceResponse, 0)
	index := make(map[uuid.UUID]int)
	for _, b := range balances {
		i, ok := index[b.EmployeeID]
		if !ok {
			id := b.EmployeeID.String()
			resp = append(resp, BalanceResponse{EmployeeID: id, EmployeeName: names[id]})
			i = len(resp) - 1
			index[b.EmployeeID] = i
		}
		switch b.Category {
		case CategorySick:
			resp[i].Sick = b.Remaining
		case CategoryMedical:
			resp[i].Medical = b.Remaining
		case CategoryPrivileged:
			resp[i].Privileged = b.Remaining
		}
	}
	return resp
}
