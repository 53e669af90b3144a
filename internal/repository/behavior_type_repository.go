package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

// BehaviorTypeRepository reads the behavior catalog. The catalog is
// reference data maintained out of band by administrators.
type BehaviorTypeRepository struct {
	db *sqlx.DB
}

// NewBehaviorTypeRepository constructs a BehaviorTypeRepository.
func NewBehaviorTypeRepository(db *sqlx.DB) *BehaviorTypeRepository {
	return &BehaviorTypeRepository{db: db}
}

// List returns catalog entries, optionally filtered by category, ordered by
// score descending.
func (r *BehaviorTypeRepository) List(ctx context.Context, category models.BehaviorCategory) ([]models.BehaviorType, error) {
	query := "SELECT id, name, category, score FROM behavior_types"
	args := []interface{}{}
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY score DESC"
	var types []models.BehaviorType
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, fmt.Errorf("list behavior types: %w", err)
	}
	return types, nil
}

// CountByIDs reports how many of the given catalog ids exist. Duplicate ids
// collapse before counting.
func (r *BehaviorTypeRepository) CountByIDs(ctx context.Context, ids []int64) (int, error) {
	const query = `SELECT COUNT(*) FROM behavior_types WHERE id = ANY($1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count behavior types: %w", err)
	}
	return count, nil
}
