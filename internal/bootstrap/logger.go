package bootstrap

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns JSON production logging when env is "production" and
// the colourised development logger otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if strings.EqualFold(env, "production") {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	return zap.NewDevelopment()
}
