package main

import (
	"fmt"
	"os"
	"time"

	"go-leave/internal/app"
	"go-leave/internal/bootstrap"
	"go-leave/internal/config"
	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "leave api:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	logger, err := bootstrap.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	cfg, err := config.Load(os.Getenv("LEAVE_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	cleanup, err := app.BuildApp(r, cfg)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:         cfg.Port,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		bootstrap.NewStdoutAuditLogger(),
		cleanup,
	)
	return nil
}
