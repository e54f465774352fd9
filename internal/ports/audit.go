package ports

import (
	"context"

	domainaudit "github.com/vitrinnea/admin-console/internal/domain/audit"
)

// AuditRecorder persists console audit events. Recording is best-effort at
// call sites: a failed write is logged, never surfaced to the operator.
type AuditRecorder interface {
	Record(ctx context.Context, ev domainaudit.Event) error
	ListRecent(ctx context.Context, limit int) ([]domainaudit.Event, error)
}
