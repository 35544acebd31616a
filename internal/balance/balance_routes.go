package balance

import (
	"go-leave/internal/domain"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	jwtSecret string,
) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware(jwtSecret))
	{
		balances.GET("/me", middleware.RBACAuthorize(rbacService, domain.ResourceBalance, domain.ActionReadOwn), handler.GetMine)
		balances.GET("", middleware.RBACAuthorize(rbacService, domain.ResourceBalance, domain.ActionRead), handler.Summary)
		balances.GET("/:employee_id", middleware.RBACAuthorize(rbacService, domain.ResourceBalance, domain.ActionRead), handler.GetByEmployee)
		balances.POST("", middleware.RBACAuthorize(rbacService, domain.ResourceBalance, domain.ActionSeed), handler.Seed)
	}
}
