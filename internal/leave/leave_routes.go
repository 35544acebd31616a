package leave

import (
	"go-leave/internal/domain"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RouteConfig struct {
	JWTSecret  string
	ApplyRate  rate.Limit
	ApplyBurst int
}

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	rdb *redis.Client,
	cfg RouteConfig,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		leaves.POST("",
			middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionCreate),
			middleware.RateLimitByUser(cfg.ApplyRate, cfg.ApplyBurst),
			middleware.Idempotency(rdb),
			handler.Apply,
		)
		leaves.GET("/me", middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionReadOwn), handler.ListMine)
		leaves.GET("/pending", middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionRead), handler.ListPending)
		leaves.GET("", middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionRead), handler.ListAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionRead), handler.GetByID)
		leaves.POST("/:id/decision", middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionApprove), handler.Decide)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, domain.ResourceLeave, domain.ActionCreate), handler.Cancel)
	}
}
