package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// start_date -> Start Date
func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError turns the first binding failure into a MissingField or
// InvalidField error. Details keep the raw json field name. JSON type
// mismatches (a number sent for reason) are reported against their field.
func MapValidationError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return InvalidField(formatFieldName(typeErr.Field)).
			WithDetails(FieldDetails{Field: typeErr.Field})
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		fieldName := e.Field()

		var appErr *AppError
		switch e.Tag() {
		case "required":
			appErr = RequiredField(formatFieldName(fieldName))
		default:
			appErr = InvalidField(formatFieldName(fieldName))
		}
		return appErr.WithDetails(FieldDetails{Field: fieldName})
	}

	return New(
		CodeInvalidInput,
		"Invalid input",
		http.StatusBadRequest,
	)
}
