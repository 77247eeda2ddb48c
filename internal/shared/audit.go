package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditAction names a recorded portal mutation.
type AuditAction string

const (
	AuditAssignCategory  AuditAction = "assignment.category"
	AuditAssignElement   AuditAction = "assignment.element"
	AuditProfilingAnswer AuditAction = "profiling.answer"
)

// AuditLog is one record in audit_logs. Every portal mutation is scoped to a
// company and site, so both are first-class columns rather than metadata.
type AuditLog struct {
	ActorID   int64
	CompanyID int64
	SiteID    string
	Action    AuditAction
	Entity    string
	EntityID  string
	Meta      map[string]any
	At        time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, company_id, site_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ActorID, log.CompanyID, log.SiteID, string(log.Action), log.Entity, log.EntityID, metaJSON, log.At)
	return err
}
