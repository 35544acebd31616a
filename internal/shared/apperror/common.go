package apperror

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	ErrTooManyRequests = New(
		CodeTooManyRequests,
		"Too many requests",
		http.StatusTooManyRequests,
	)
)

type FieldDetails struct {
	Field string `json:"field"`
}

func RequiredField(field string) *AppError {
	return &AppError{
		Code:       CodeMissingField,
		Message:    fmt.Sprintf("%s is required", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    FieldDetails{Field: field},
	}
}

func InvalidField(field string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    fmt.Sprintf("%s is invalid", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    FieldDetails{Field: field},
	}
}
