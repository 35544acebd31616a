package app

import (
	"database/sql"
	"net/http"

	"go-leave/internal/balance"
	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/counter"
	"go-leave/internal/shared/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const connectRetries = 5

// connectDB opens Postgres and hands back both the gorm handle and its pool.
func connectDB(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB.Postgres(), connectRetries)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&counter.Counter{},
		&employee.Employee{},
		&balance.LeaveBalance{},
		&leave.Leave{},
		&kafka.OutboxRecord{},
	)
}

// BuildApp connects infrastructure, migrates, and mounts every route on
// router. The returned func releases the connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L().Named("app")

	gormDB, sqlDB, err := connectDB(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if err := Migrate(gormDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("redis connection established")

	m := metrics.New(prometheus.DefaultRegisterer)

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(zap.L().Named("http")),
	)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := registerModules(router, cfg, sqlDB, gormDB, redisClient, m); err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	cleanup := func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}
	return cleanup, nil
}
