package bootstrap

import "context"

// AuditLog records a process-level event such as startup or shutdown.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
