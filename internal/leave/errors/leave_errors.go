package leaveerrors

import (
	"fmt"
	"net/http"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidCategory = balanceerrors.ErrInvalidCategory
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid leave status transition",
		http.StatusConflict,
	)
	ErrInsufficientBalance = balanceerrors.ErrInsufficientBalance
)

type InsufficientBalanceDetails struct {
	Category  string `json:"category"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type LeaveDetails struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
}

func MissingField(field string) *apperror.AppError {
	return apperror.RequiredField(field)
}

// InsufficientBalance still matches ErrInsufficientBalance with errors.Is.
func InsufficientBalance(category string, available, requested int) *apperror.AppError {
	return &apperror.AppError{
		Code: apperror.CodeInsufficientBalance,
		Message: fmt.Sprintf(
			"Insufficient %s leave balance. You have only %d day(s) left.",
			category, available,
		),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: InsufficientBalanceDetails{
			Category:  category,
			Available: available,
			Requested: requested,
		},
		Err: ErrInsufficientBalance,
	}
}

func LeaveNotFound(id int64) *apperror.AppError {
	return ErrLeaveNotFound.WithDetails(LeaveDetails{ID: id})
}

func InvalidTransition(id int64, current string) *apperror.AppError {
	return ErrInvalidStatusTransition.WithDetails(LeaveDetails{ID: id, Status: current})
}
