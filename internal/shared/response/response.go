package response

import (
	"strconv"

	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type PaginationMeta struct {
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"totalPages,omitempty"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"pageSize,omitempty"`
}

func NewPaginationMeta(total int64, page, pageSize int) PaginationMeta {
	meta := PaginationMeta{Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		meta.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return meta
}

// Page slices items according to ?page and ?page_size (1-based, size capped
// at 100). Pages past the end come back empty with the real total.
func Page[T any](c *gin.Context, items []T) ([]T, PaginationMeta) {
	page := queryInt(c, "page", 1)
	size := min(queryInt(c, "page_size", defaultPageSize), maxPageSize)

	n := len(items)
	start := min((page-1)*size, n)
	end := min(start+size, n)

	return items[start:end], NewPaginationMeta(int64(n), page, size)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ApiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Meta  *PaginationMeta `json:"meta,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, data any, meta *PaginationMeta) {
	c.JSON(status, ApiEnvelope{Ok: true, Data: data, Meta: meta})
}

func Error(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, ApiEnvelope{
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// AppError writes err through apperror.ToHTTP and returns the flattened form
// so callers can log what the client saw.
func AppError(c *gin.Context, err error) apperror.HTTPError {
	httpErr := apperror.ToHTTP(err)
	Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
	return httpErr
}
