package leave

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/counter"
	"go-leave/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error)
	Decide(ctx context.Context, actorID string, id int64, req DecideLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, employeeID string, id int64) (LeaveResponse, error)
	GetByID(ctx context.Context, id int64) (LeaveResponse, error)
	ListMine(ctx context.Context, employeeID, q string) ([]LeaveResponse, error)
	ListPending(ctx context.Context, q string) ([]LeaveResponse, error)
	ListAll(ctx context.Context, q string) ([]LeaveResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	ledger  balance.Repository
	counter counter.Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	policy  Policy
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger balance.Repository,
	counterRepo counter.Repository,
	policy Policy,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, ledger, counterRepo, nil, nil, policy, nil, logger...)
}

// NewServiceWithOutbox also records every committed transition in the outbox,
// drops the cached balance summary after ledger changes and reports metrics.
// outbox, rdb and m may each be nil.
func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	ledger balance.Repository,
	counterRepo counter.Repository,
	outbox kafka.OutboxRepository,
	rdb *redis.Client,
	policy Policy,
	m *metrics.Metrics,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if policy.Allotments == nil {
		policy.Allotments = balance.DefaultAllotments()
	}
	if policy.Categories == nil {
		policy.Categories = DefaultCategoryTable()
	}
	return &service{
		db:      db,
		repo:    repo,
		ledger:  ledger,
		counter: counterRepo,
		outbox:  outbox,
		rdb:     rdb,
		policy:  policy,
		metrics: m,
		logger:  l,
	}
}

// Apply admits a leave request and reserves its days from the balance in the
// same transaction.
func (s *service) Apply(ctx context.Context, employeeID string, req ApplyLeaveRequest) (resp LeaveResponse, err error) {
	defer func(started time.Time) { s.metrics.Observe("apply", started, err) }(time.Now())
	s.logger.Debug("apply leave requested",
		zap.String("employee_id", employeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.String("category", req.Category),
	)

	employeeUUID, startDate, endDate, category, err := s.validateApply(employeeID, req)
	if err != nil {
		s.logger.Warn("apply leave validation failed", zap.String("employee_id", employeeID), zap.Error(err))
		return LeaveResponse{}, err
	}
	totalDays := inclusiveDays(startDate, endDate)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	ledger := s.ledger.WithTx(tx)

	available := 0
	b, err := ledger.GetForUpdate(ctx, employeeID, category)
	switch {
	case err == nil:
		available = b.Remaining
	case errors.Is(err, balanceerrors.ErrBalanceNotFound):
		// never seeded: nothing to reserve against
	default:
		s.logger.Error("apply leave balance lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if totalDays > available {
		s.logger.Warn("apply leave insufficient balance",
			zap.String("employee_id", employeeID),
			zap.String("category", string(category)),
			zap.Int("available", available),
			zap.Int("requested", totalDays),
		)
		return LeaveResponse{}, leaveerrors.InsufficientBalance(string(category), available, totalDays)
	}

	remaining, err := ledger.Adjust(ctx, employeeID, category, -totalDays)
	if err != nil {
		if errors.Is(err, balanceerrors.ErrInsufficientBalance) {
			return LeaveResponse{}, leaveerrors.InsufficientBalance(string(category), available, totalDays)
		}
		s.logger.Error("apply leave reserve failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	id, err := s.counter.WithTx(tx).GetNextValue(ctx, IDCounter)
	if err != nil {
		s.logger.Error("apply leave next id failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &Leave{
		ID:         id,
		EmployeeID: employeeUUID,
		Category:   category,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  totalDays,
		Reason:     req.Reason,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.enqueue(ctx, tx, events.LeaveApplied, l, employeeID, remaining); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	balance.InvalidateSummary(ctx, s.rdb, s.logger)
	s.metrics.Reserved(string(category), totalDays)

	s.logger.Info("apply leave success",
		zap.Int64("leave_id", id),
		zap.String("employee_id", employeeID),
		zap.String("category", string(category)),
		zap.Int("total_days", totalDays),
		zap.Int("remaining", remaining),
	)
	return mapToResponse(*l), nil
}

// Decide resolves a pending request. Approval only flips the status; the days
// were reserved at admission and the balance is not checked again.
func (s *service) Decide(ctx context.Context, actorID string, id int64, req DecideLeaveRequest) (resp LeaveResponse, err error) {
	defer func(started time.Time) { s.metrics.Observe("decide", started, err) }(time.Now())
	s.logger.Debug("decide leave requested",
		zap.Int64("leave_id", id),
		zap.String("actor_id", actorID),
		zap.String("decision", req.Decision),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	decision := Status(strings.ToUpper(strings.TrimSpace(req.Decision)))
	if decision != StatusApproved && decision != StatusRejected {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status.Terminal() {
		s.logger.Warn("decide leave invalid transition",
			zap.Int64("leave_id", id),
			zap.String("current_status", string(l.Status)),
			zap.String("decision", string(decision)),
		)
		return LeaveResponse{}, leaveerrors.InvalidTransition(id, string(l.Status))
	}

	now := time.Now().UTC()
	updated, err := qtx.UpdateStatus(ctx, id, StatusChange{
		Status:    decision,
		Remarks:   req.Remarks,
		DecidedBy: &actorUUID,
		DecidedAt: &now,
	})
	if err != nil {
		s.logger.Error("decide leave update failed", zap.Int64("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	eventType := events.LeaveApproved
	remaining := -1
	if decision == StatusRejected {
		eventType = events.LeaveRejected
		if remaining, err = s.creditBack(ctx, tx, l); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := s.enqueue(ctx, tx, eventType, updated, actorID, remaining); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if decision == StatusRejected {
		balance.InvalidateSummary(ctx, s.rdb, s.logger)
	}

	s.logger.Info("decide leave success",
		zap.Int64("leave_id", id),
		zap.String("actor_id", actorID),
		zap.String("status", string(decision)),
	)
	return mapToResponse(*updated), nil
}

// Cancel withdraws the caller's own pending request and credits its days back.
// Someone else's request is reported as not found.
func (s *service) Cancel(ctx context.Context, employeeID string, id int64) (resp LeaveResponse, err error) {
	defer func(started time.Time) { s.metrics.Observe("cancel", started, err) }(time.Now())
	s.logger.Debug("cancel leave requested",
		zap.Int64("leave_id", id),
		zap.String("employee_id", employeeID),
	)

	if strings.TrimSpace(employeeID) == "" {
		return LeaveResponse{}, leaveerrors.MissingField("employee_id")
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID != employeeUUID {
		s.logger.Warn("cancel leave not owner",
			zap.Int64("leave_id", id),
			zap.String("employee_id", employeeID),
		)
		return LeaveResponse{}, leaveerrors.LeaveNotFound(id)
	}
	if l.Status.Terminal() {
		return LeaveResponse{}, leaveerrors.InvalidTransition(id, string(l.Status))
	}

	now := time.Now().UTC()
	updated, err := qtx.UpdateStatus(ctx, id, StatusChange{
		Status:    StatusCancelled,
		Remarks:   l.Remarks,
		DecidedBy: &employeeUUID,
		DecidedAt: &now,
	})
	if err != nil {
		s.logger.Error("cancel leave update failed", zap.Int64("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	remaining, err := s.creditBack(ctx, tx, l)
	if err != nil {
		return LeaveResponse{}, err
	}

	if err := s.enqueue(ctx, tx, events.LeaveCancelled, updated, employeeID, remaining); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	balance.InvalidateSummary(ctx, s.rdb, s.logger)

	s.logger.Info("cancel leave success",
		zap.Int64("leave_id", id),
		zap.String("employee_id", employeeID),
	)
	return mapToResponse(*updated), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) ListMine(ctx context.Context, employeeID, q string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	leaves, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("list my leaves failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return mapToListResponse(FilterLeaves(leaves, q)), nil
}

func (s *service) ListPending(ctx context.Context, q string) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindByStatus(ctx, StatusPending)
	if err != nil {
		s.logger.Error("list pending leaves failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(FilterLeaves(leaves, q)), nil
}

func (s *service) ListAll(ctx context.Context, q string) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list all leaves failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(FilterLeaves(leaves, q)), nil
}

// validateApply checks the request in order: required fields, date format,
// date range, then the category.
func (s *service) validateApply(employeeID string, req ApplyLeaveRequest) (uuid.UUID, time.Time, time.Time, balance.Category, error) {
	required := []struct {
		field string
		value string
	}{
		{"employee_id", employeeID},
		{"start_date", req.StartDate},
		{"end_date", req.EndDate},
		{"reason", req.Reason},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return uuid.Nil, time.Time{}, time.Time{}, "", leaveerrors.MissingField(r.field)
		}
	}

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, "", leaveerrors.ErrInvalidEmployeeID
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, "", err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, "", err
	}
	if startDate.After(endDate) {
		return uuid.Nil, time.Time{}, time.Time{}, "", leaveerrors.ErrInvalidDateRange
	}

	category, err := s.resolveCategory(req)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, "", err
	}

	return employeeUUID, startDate, endDate, category, nil
}

// resolveCategory prefers an explicit category and otherwise infers one from
// the reason.
func (s *service) resolveCategory(req ApplyLeaveRequest) (balance.Category, error) {
	explicit := strings.ToLower(strings.TrimSpace(req.Category))
	if explicit == "" {
		return s.policy.Categories.Infer(req.Reason), nil
	}
	c := balance.Category(explicit)
	if !c.Valid() {
		return "", leaveerrors.ErrInvalidCategory
	}
	return c, nil
}

// creditBack returns a pending request's days to its balance without going
// over the allotment stored on the row (the configured allotment only when
// the row has none), and reports the new remaining value.
func (s *service) creditBack(ctx context.Context, tx *sql.Tx, l *Leave) (int, error) {
	ledger := s.ledger.WithTx(tx)
	employeeID := l.EmployeeID.String()

	b, err := ledger.GetForUpdate(ctx, employeeID, l.Category)
	if err != nil {
		s.logger.Error("credit back balance lookup failed", zap.Int64("leave_id", l.ID), zap.Error(err))
		return 0, err
	}

	delta := l.TotalDays
	limit := b.Allotment
	if limit <= 0 {
		limit = s.policy.Allotments[l.Category]
	}
	if limit > 0 && b.Remaining+delta > limit {
		s.logger.Warn("credit back capped at allotment",
			zap.Int64("leave_id", l.ID),
			zap.String("category", string(l.Category)),
			zap.Int("remaining", b.Remaining),
			zap.Int("allotment", limit),
			zap.Int("requested", delta),
		)
		delta = max(limit-b.Remaining, 0)
	}
	if delta == 0 {
		return b.Remaining, nil
	}

	remaining, err := ledger.Adjust(ctx, employeeID, l.Category, delta)
	if err != nil {
		s.logger.Error("credit back adjust failed", zap.Int64("leave_id", l.ID), zap.Error(err))
		return 0, err
	}
	s.metrics.Credited(string(l.Category), delta)
	return remaining, nil
}

// enqueue writes the lifecycle event in tx. remaining is -1 when the
// transition did not touch the balance.
func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, l *Leave, actorID string, remaining int) error {
	if s.outbox == nil {
		return nil
	}

	requestID := contextutil.GetRequestID(ctx)
	event, err := kafka.NewOutboxEvent(
		requestID,
		"leave_request",
		strconv.FormatInt(l.ID, 10),
		eventType,
		events.LeaveLifecycleTopic,
		events.LeaveEvent{
			EventType:  eventType,
			RequestID:  requestID,
			LeaveID:    l.ID,
			EmployeeID: l.EmployeeID.String(),
			ActorID:    actorID,
			Category:   string(l.Category),
			TotalDays:  l.TotalDays,
			Status:     string(l.Status),
			Remarks:    l.Remarks,
			Remaining:  remaining,
			OccurredAt: time.Now().UTC(),
		},
	)
	if err != nil {
		s.logger.Error("build leave outbox event failed", zap.String("event_type", eventType), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		s.logger.Error("enqueue leave outbox event failed",
			zap.Int64("leave_id", l.ID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID,
		EmployeeID: l.EmployeeID.String(),
		Category:   string(l.Category),
		StartDate:  l.StartDate.Format(dateLayout),
		EndDate:    l.EndDate.Format(dateLayout),
		TotalDays:  l.TotalDays,
		Reason:     l.Reason,
		Status:     string(l.Status),
		Remarks:    l.Remarks,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
	if l.DecidedBy != nil {
		v := l.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		resp = append(resp, mapToResponse(l))
	}
	return resp
}
