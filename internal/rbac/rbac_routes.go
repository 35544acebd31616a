package rbac

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the read-only RBAC endpoints. r must already carry
// the auth middleware.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/rbac")
	{
		group.GET("/permissions/me", handler.MyPermissions)
		group.POST("/enforce", handler.Enforce)
	}
}
