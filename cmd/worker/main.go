package main

import (
	"fmt"
	"os"

	"go-leave/internal/app"
	"go-leave/internal/bootstrap"
	"go-leave/internal/config"
	"go-leave/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := bootstrap.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "outbox worker:", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	apperror.Init()

	cfg, err := config.Load(os.Getenv("LEAVE_CONFIG"))
	if err == nil {
		err = app.RunWorker(cfg)
	}
	_ = logger.Sync()

	if err != nil {
		logger.Fatal("outbox worker exited", zap.Error(err))
	}
}
