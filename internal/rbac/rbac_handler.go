package rbac

import (
	"errors"
	"net/http"

	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

type enforceRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrEmptyRole) {
		err = apperror.ErrForbidden
	}
	httpErr := response.AppError(c, err)
	h.logger.Warn("rbac request failed",
		zap.String("path", c.FullPath()),
		zap.String("role", c.GetString("role")),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
}

// MyPermissions lists what the caller's role may do, inherited grants
// included.
func (h *Handler) MyPermissions(c *gin.Context) {
	role := c.GetString("role")

	perms, err := h.service.PermissionsForRole(role)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, domain.RoleResponse{Name: role, Permissions: perms}, nil)
}

// Enforce answers whether the caller's role holds resource:action. A denial
// is a normal 200 with allowed=false.
func (h *Handler) Enforce(c *gin.Context) {
	var req enforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.MapValidationError(err))
		return
	}

	allowed, err := h.service.Enforce(domain.EnforceRequest{
		EmployeeID: c.GetString("employee_id"),
		Role:       c.GetString("role"),
		Resource:   req.Resource,
		Action:     req.Action,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, domain.EnforceResponse{Allowed: allowed}, nil)
}
