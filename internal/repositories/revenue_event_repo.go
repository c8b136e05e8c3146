package repositories

import (
	"context"
	"time"

	"laiaconnect/internal/models"

	"github.com/google/uuid"
)

// RevenueEventRepository reads the reservation/order event feed the scoring
// services aggregate over. Events are immutable; there is no write path here.
type RevenueEventRepository interface {
	ListForTenant(ctx context.Context, tenantID uuid.UUID, since *time.Time) ([]*models.RevenueEvent, error)
}

type revenueEventRepo struct {
	db Database
}

func NewRevenueEventRepo(db Database) RevenueEventRepository {
	return &revenueEventRepo{db: db}
}

func (r *revenueEventRepo) ListForTenant(ctx context.Context, tenantID uuid.UUID, since *time.Time) ([]*models.RevenueEvent, error) {
	query := `
		SELECT id, tenant_id, amount, status, created_at
		FROM revenue_events
		WHERE tenant_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{tenantID}
	if since != nil {
		query += ` AND created_at >= $2`
		args = append(args, *since)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.RevenueEvent
	for rows.Next() {
		event := &models.RevenueEvent{}
		if err := rows.Scan(&event.ID, &event.TenantID, &event.Amount, &event.Status, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
