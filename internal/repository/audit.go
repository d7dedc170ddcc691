package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// AuditRepository appends administrative changes to the audit log.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends e to the audit log.
func (r *AuditRepository) Record(ctx context.Context, e *model.AuditEntry) error {
	e.ID = newID()
	e.CreatedAt = time.Now().UTC()
	if e.Changes == nil {
		e.Changes = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, target_table, target_id, changes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActorID, e.Action, e.TargetTable, e.TargetID, e.Changes, e.CreatedAt,
	)
	return errors.Wrap(err, "insert audit entry")
}
