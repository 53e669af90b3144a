package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

const behaviorLogColumns = `bl.id, bl.student_id, bl.teacher_id, bl.description, bl.image_url, bl.status, bl.created_at, bl.updated_at,
        s.student_number, s.first_name, s.last_name, s.nickname, s.behavior_score, s.classroom_id,
        c.name AS classroom_name, c.department AS classroom_department,
        t.name AS teacher_name, t.role AS teacher_role`

const behaviorLogJoins = `FROM behavior_logs bl
        JOIN students s ON s.id = bl.student_id
        JOIN classrooms c ON c.id = s.classroom_id
        JOIN teachers t ON t.id = bl.teacher_id`

// BehaviorLogRepository manages persistence for behavior logs, their cited
// behavior types, and the status-transition side of score aggregation.
type BehaviorLogRepository struct {
	db *sqlx.DB
}

// NewBehaviorLogRepository constructs a BehaviorLogRepository.
func NewBehaviorLogRepository(db *sqlx.DB) *BehaviorLogRepository {
	return &BehaviorLogRepository{db: db}
}

// Create inserts a behavior log and its join rows in one transaction. The
// log always starts pending; the cited type set is immutable afterwards.
func (r *BehaviorLogRepository) Create(ctx context.Context, log *models.BehaviorLog, behaviorTypeIDs []int64) error {
	now := time.Now().UTC()
	log.Status = models.StatusPending
	log.CreatedAt = now
	log.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create behavior log: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertLog = `INSERT INTO behavior_logs (student_id, teacher_id, description, image_url, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := tx.QueryRowxContext(ctx, insertLog,
		log.StudentID, log.TeacherID, log.Description, log.ImageURL, log.Status, log.CreatedAt, log.UpdatedAt,
	).Scan(&log.ID); err != nil {
		return fmt.Errorf("create behavior log: %w", err)
	}

	const insertJoin = `INSERT INTO behavior_log_behaviors (behavior_log_id, behavior_type_id) VALUES ($1, $2)`
	for _, typeID := range behaviorTypeIDs {
		if _, err := tx.ExecContext(ctx, insertJoin, log.ID, typeID); err != nil {
			return fmt.Errorf("create behavior log join row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create behavior log: %w", err)
	}
	return nil
}

// FindDetailByID fetches one log with its resolved associations.
func (r *BehaviorLogRepository) FindDetailByID(ctx context.Context, id int64) (*models.BehaviorLogDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE bl.id = $1", behaviorLogColumns, behaviorLogJoins)
	var record models.BehaviorLogRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	details := assembleDetails([]models.BehaviorLogRecord{record})
	if err := r.attachBehaviorTypes(ctx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

func behaviorLogWhere(filter models.BehaviorLogFilter) (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" && filter.Status != "all" {
		where = append(where, fmt.Sprintf("bl.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.StudentID > 0 {
		where = append(where, fmt.Sprintf("bl.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	return strings.Join(where, " AND "), args
}

func sortDirection(sortOrder string) string {
	if strings.EqualFold(sortOrder, "asc") {
		return "ASC"
	}
	return "DESC"
}

// List returns logs matching the filter plus the total over the same filter.
func (r *BehaviorLogRepository) List(ctx context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, int, error) {
	whereClause, args := behaviorLogWhere(filter)
	order := sortDirection(filter.SortOrder)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY bl.created_at %s LIMIT %d OFFSET %d",
		behaviorLogColumns, behaviorLogJoins, whereClause, order, size, offset)
	var records []models.BehaviorLogRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list behavior logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM behavior_logs bl WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count behavior logs: %w", err)
	}

	details := assembleDetails(records)
	if err := r.attachBehaviorTypes(ctx, details); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// ListAll returns every log matching the filter, unpaginated. Exports and
// single-student history need the complete set, not a page of it.
func (r *BehaviorLogRepository) ListAll(ctx context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, error) {
	whereClause, args := behaviorLogWhere(filter)
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY bl.created_at %s",
		behaviorLogColumns, behaviorLogJoins, whereClause, sortDirection(filter.SortOrder))
	var records []models.BehaviorLogRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list all behavior logs: %w", err)
	}
	details := assembleDetails(records)
	if err := r.attachBehaviorTypes(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// TransitionStatus flips every pending log in ids to the target status and
// reports exactly which rows changed. The predicate and the RETURNING clause
// run in one statement, so already-terminal rows and duplicate ids can never
// produce a second transition, under concurrency included.
func (r *BehaviorLogRepository) TransitionStatus(ctx context.Context, ids []int64, status models.ApprovalStatus) ([]models.StatusTransition, error) {
	const query = `UPDATE behavior_logs SET status = $1, updated_at = $2
        WHERE id = ANY($3) AND status = 'pending'
        RETURNING id, student_id`
	var flipped []models.StatusTransition
	if err := r.db.SelectContext(ctx, &flipped, query, status, time.Now().UTC(), pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("transition behavior logs: %w", err)
	}
	return flipped, nil
}

// ScoreDeltas sums the cited behavior-type scores of the given logs, grouped
// by owning student. Call it with the ids TransitionStatus returned, never
// with the raw request ids.
func (r *BehaviorLogRepository) ScoreDeltas(ctx context.Context, logIDs []int64) ([]models.StudentScoreDelta, error) {
	const query = `SELECT bl.student_id, COALESCE(SUM(bt.score), 0) AS delta
        FROM behavior_logs bl
        JOIN behavior_log_behaviors blb ON blb.behavior_log_id = bl.id
        JOIN behavior_types bt ON bt.id = blb.behavior_type_id
        WHERE bl.id = ANY($1)
        GROUP BY bl.student_id`
	var deltas []models.StudentScoreDelta
	if err := r.db.SelectContext(ctx, &deltas, query, pq.Array(logIDs)); err != nil {
		return nil, fmt.Errorf("behavior score deltas: %w", err)
	}
	return deltas, nil
}

func (r *BehaviorLogRepository) attachBehaviorTypes(ctx context.Context, details []models.BehaviorLogDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]int64, len(details))
	index := make(map[int64]*models.BehaviorLogDetail, len(details))
	for i := range details {
		ids[i] = details[i].ID
		index[details[i].ID] = &details[i]
	}

	const query = `SELECT blb.behavior_log_id, bt.id, bt.name, bt.category, bt.score
        FROM behavior_log_behaviors blb
        JOIN behavior_types bt ON bt.id = blb.behavior_type_id
        WHERE blb.behavior_log_id = ANY($1)
        ORDER BY blb.behavior_log_id, bt.score DESC`
	var cited []models.CitedBehaviorType
	if err := r.db.SelectContext(ctx, &cited, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("fetch cited behavior types: %w", err)
	}
	for _, row := range cited {
		detail, ok := index[row.BehaviorLogID]
		if !ok {
			continue
		}
		detail.BehaviorTypes = append(detail.BehaviorTypes, models.BehaviorType{
			ID:       row.ID,
			Name:     row.Name,
			Category: row.Category,
			Score:    row.Score,
		})
	}
	return nil
}

func assembleDetails(records []models.BehaviorLogRecord) []models.BehaviorLogDetail {
	details := make([]models.BehaviorLogDetail, len(records))
	for i, record := range records {
		details[i] = models.BehaviorLogDetail{
			BehaviorLog: record.BehaviorLog,
			Student: models.StudentWithClassroom{
				Student: models.Student{
					ID:            record.StudentID,
					StudentNumber: record.StudentNumber,
					FirstName:     record.FirstName,
					LastName:      record.LastName,
					Nickname:      record.Nickname,
					ClassroomID:   record.ClassroomID,
					BehaviorScore: record.BehaviorScore,
				},
				ClassroomName:       record.ClassroomName,
				ClassroomDepartment: record.ClassroomDepartment,
			},
			Teacher: models.TeacherInfo{
				ID:   record.TeacherID,
				Name: record.TeacherName,
				Role: models.TeacherRole(record.TeacherRole),
			},
			BehaviorTypes: []models.BehaviorType{},
		}
	}
	return details
}
