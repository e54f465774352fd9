// Package data provides database access for console-owned records.
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitrinnea/admin-console/internal/data/pgxutil"
	domainaudit "github.com/vitrinnea/admin-console/internal/domain/audit"
	apperrors "github.com/vitrinnea/admin-console/internal/errors"
	"github.com/vitrinnea/admin-console/internal/ports"
)

var _ ports.AuditRecorder = (*AuditRepo)(nil)

// AuditRepo implements the AuditRecorder port using PostgreSQL.
type AuditRepo struct {
	DB *sql.DB
}

// NewAuditRepo creates a new AuditRepo instance.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db}
}

const auditColumns = "id, actor_email, action, target, country, request_id, occurred_at"

// Record inserts one audit event. A zero OccurredAt is stamped with the
// current time.
func (r *AuditRepo) Record(ctx context.Context, ev domainaudit.Event) error {
	if ev.Action == "" {
		return apperrors.InvalidInputField("action", "audit action is required")
	}

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		query := `
			INSERT INTO audit_events (actor_email, action, target, country, request_id, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)`

		_, execErr := tx.Exec(ctx, query,
			ev.ActorEmail, string(ev.Action), ev.Target, ev.Country, ev.RequestID, ev.OccurredAt)
		return execErr
	}})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// ListRecent returns the newest events first, capped at limit.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domainaudit.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []domainaudit.Event
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query := `SELECT ` + auditColumns + ` FROM audit_events ORDER BY occurred_at DESC, id DESC LIMIT $1`
		rows, queryErr := conn.Query(ctx, query, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		collected, collectErr := pgx.CollectRows(rows, pgx.RowToStructByName[domainaudit.Event])
		if collectErr != nil {
			return collectErr
		}
		events = collected
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return events, nil
}
