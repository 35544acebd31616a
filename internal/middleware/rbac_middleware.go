package middleware

import (
	"net/http"

	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by anything that can enforce a domain.EnforceRequest.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID := c.GetString(ContextEmployeeID)
		if employeeID == "" {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}

		req := domain.EnforceRequest{
			EmployeeID: employeeID,
			Role:       c.GetString(ContextRole),
			Resource:   resource,
			Action:     action,
		}
		allowed, err := service.Enforce(req)
		if err != nil {
			// an empty role cannot be enforced and is treated as no permission
			allowed = false
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				"You do not have permission to access this resource",
				gin.H{"required": req.Permission()},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}
