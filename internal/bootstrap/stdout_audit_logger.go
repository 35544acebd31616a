package bootstrap

import (
	"context"
	"time"

	"go-leave/internal/shared/contextutil"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes audit entries as structured log lines on the
// "audit" logger.
type StdoutAuditLogger struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return newStdoutAuditLogger(zap.L())
}

func newStdoutAuditLogger(base *zap.Logger) *StdoutAuditLogger {
	return &StdoutAuditLogger{logger: base.Named("audit"), now: time.Now}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	fields := make([]zap.Field, 0, 6)
	fields = append(fields,
		zap.Time("at", l.now().UTC()),
		zap.String("action", entry.Action),
	)
	if len(entry.Meta) > 0 {
		fields = append(fields, zap.Any("meta", entry.Meta))
	}
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if actor, ok := contextutil.GetActor(ctx); ok {
		fields = append(fields, zap.String("employee_id", actor.EmployeeID), zap.String("role", actor.Role))
	}
	l.logger.Info(entry.Message, fields...)
}
