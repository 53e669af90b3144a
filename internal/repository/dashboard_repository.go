package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

// DashboardRepository exposes read-optimised aggregate queries for the admin
// dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// StatusCounts returns the number of behavior logs per lifecycle state.
func (r *DashboardRepository) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM behavior_logs GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count behavior logs by status: %w", err)
	}
	return counts, nil
}

// TopBehaviors ranks catalog entries by how many approved logs cite them,
// most-cited first.
func (r *DashboardRepository) TopBehaviors(ctx context.Context, limit int) ([]models.TopBehavior, error) {
	const query = `SELECT bt.name, bt.category, bt.score, COUNT(*) AS count
        FROM behavior_types bt
        JOIN behavior_log_behaviors blb ON blb.behavior_type_id = bt.id
        JOIN behavior_logs bl ON bl.id = blb.behavior_log_id
        WHERE bl.status = 'approved'
        GROUP BY bt.id, bt.name, bt.category, bt.score
        ORDER BY count DESC, bt.name ASC
        LIMIT $1`
	var top []models.TopBehavior
	if err := r.db.SelectContext(ctx, &top, query, limit); err != nil {
		return nil, fmt.Errorf("rank cited behavior types: %w", err)
	}
	return top, nil
}
