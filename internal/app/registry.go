package app

import (
	"database/sql"

	"go-leave/internal/balance"
	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/counter"
	"go-leave/internal/shared/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	m *metrics.Metrics,
) error {
	policy := cfg.Leave.Policy()

	// --- Repositories ---
	balanceRepo := balance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(enforcer)
	if err := rbacService.LoadPolicy(cfg.RBACPolicy()); err != nil {
		return err
	}

	// --- Services ---
	balanceService := balance.NewService(db, balanceRepo, employeeRepo, policy.Allotments, rdb)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, balanceRepo, counterRepo, outboxRepo, rdb, policy, m)

	// --- Handlers ---
	balanceHandler := balance.NewHandler(balanceService)
	leaveHandler := leave.NewHandler(leaveService)
	rbacHandler := rbac.NewHandler(rbacService)

	applyRate, applyBurst := cfg.Leave.Limit()

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	if ipRate, ipBurst, ok := cfg.HTTP.IPLimit(); ok {
		api.Use(middleware.RateLimitByIP(ipRate, ipBurst))
	}
	{
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb, leave.RouteConfig{
			JWTSecret:  cfg.JWTSecret,
			ApplyRate:  applyRate,
			ApplyBurst: applyBurst,
		})
		balance.RegisterRoutes(api, balanceHandler, rbacService, cfg.JWTSecret)

		authed := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
		rbac.RegisterRoutes(authed, rbacHandler)
	}

	return nil
}
