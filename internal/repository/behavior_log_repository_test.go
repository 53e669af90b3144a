package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

func newBehaviorLogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func behaviorLogRecordColumns() []string {
	return []string{
		"id", "student_id", "teacher_id", "description", "image_url", "status", "created_at", "updated_at",
		"student_number", "first_name", "last_name", "nickname", "behavior_score", "classroom_id",
		"classroom_name", "classroom_department", "teacher_name", "teacher_role",
	}
}

func TestBehaviorLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO behavior_logs")).
		WithArgs(int64(1), int64(9), nil, nil, models.StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behavior_log_behaviors")).
		WithArgs(int64(42), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behavior_log_behaviors")).
		WithArgs(int64(42), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	log := &models.BehaviorLog{StudentID: 1, TeacherID: 9}
	require.NoError(t, repo.Create(context.Background(), log, []int64{10, 11}))
	require.Equal(t, int64(42), log.ID)
	require.Equal(t, models.StatusPending, log.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryCreateRollsBackOnJoinFailure(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO behavior_logs")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behavior_log_behaviors")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	log := &models.BehaviorLog{StudentID: 1, TeacherID: 9}
	require.Error(t, repo.Create(context.Background(), log, []int64{10}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id"}).
		AddRow(int64(1), int64(5)).
		AddRow(int64(3), int64(6))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE behavior_logs SET status = $1")).
		WithArgs(models.StatusApproved, sqlmock.AnyArg(), pq.Array([]int64{1, 2, 3})).
		WillReturnRows(rows)

	flipped, err := repo.TransitionStatus(context.Background(), []int64{1, 2, 3}, models.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, []models.StatusTransition{
		{LogID: 1, StudentID: 5},
		{LogID: 3, StudentID: 6},
	}, flipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryTransitionStatusNoPendingRows(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE behavior_logs SET status = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id"}))

	flipped, err := repo.TransitionStatus(context.Background(), []int64{99}, models.StatusRejected)
	require.NoError(t, err)
	require.Empty(t, flipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryScoreDeltas(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "delta"}).
		AddRow(int64(5), 15).
		AddRow(int64(6), -5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT bl.student_id, COALESCE(SUM(bt.score), 0)")).
		WithArgs(pq.Array([]int64{1, 3})).
		WillReturnRows(rows)

	deltas, err := repo.ScoreDeltas(context.Background(), []int64{1, 3})
	require.NoError(t, err)
	require.Equal(t, []models.StudentScoreDelta{
		{StudentID: 5, Delta: 15},
		{StudentID: 6, Delta: -5},
	}, deltas)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryList(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(behaviorLogRecordColumns()).
		AddRow(int64(1), int64(5), int64(9), nil, nil, "pending", now, now,
			"S001", "Somchai", "Jaidee", nil, 100, int64(2),
			"M.1/1", nil, "Kru Anan", "Teacher")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT bl.id, bl.student_id")).
		WithArgs("pending").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM behavior_logs")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))

	cited := sqlmock.NewRows([]string{"behavior_log_id", "id", "name", "category", "score"}).
		AddRow(int64(1), int64(10), "helped classmate", "positive", 10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT blb.behavior_log_id, bt.id")).
		WithArgs(pq.Array([]int64{1})).
		WillReturnRows(cited)

	details, total, err := repo.List(context.Background(), models.BehaviorLogFilter{Status: "pending", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 8, total)
	require.Len(t, details, 1)
	require.Equal(t, "S001", details[0].Student.StudentNumber)
	require.Equal(t, "M.1/1", details[0].Student.ClassroomName)
	require.Len(t, details[0].BehaviorTypes, 1)
	require.Equal(t, 10, details[0].BehaviorTypes[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryListAllIsUnpaginated(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(behaviorLogRecordColumns())
	for i := int64(1); i <= 250; i++ {
		rows.AddRow(i, int64(5), int64(9), nil, nil, "approved", now, now,
			"S001", "Somchai", "Jaidee", nil, 100, int64(2),
			"M.1/1", nil, "Kru Anan", "Teacher")
	}
	// The statement must end at the ORDER BY, with no LIMIT/OFFSET tail.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY bl.created_at ASC") + "$").
		WithArgs("approved").
		WillReturnRows(rows)

	ids := make([]int64, 250)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT blb.behavior_log_id, bt.id")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"behavior_log_id", "id", "name", "category", "score"}))

	details, err := repo.ListAll(context.Background(), models.BehaviorLogFilter{Status: "approved", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, details, 250)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorLogRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newBehaviorLogRepoMock(t)
	defer cleanup()

	repo := NewBehaviorLogRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(behaviorLogRecordColumns()).
		AddRow(int64(4), int64(5), int64(9), "talking in class", nil, "approved", now, now,
			"S002", "Malee", "Srisuk", "Lek", 95, int64(2),
			"M.1/2", "Science", "Kru Anan", "Admin")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT bl.id, bl.student_id")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	cited := sqlmock.NewRows([]string{"behavior_log_id", "id", "name", "category", "score"}).
		AddRow(int64(4), int64(11), "late to class", "negative", -5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT blb.behavior_log_id, bt.id")).
		WillReturnRows(cited)

	detail, err := repo.FindDetailByID(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, detail.Status)
	require.Equal(t, models.TeacherRole("Admin"), detail.Teacher.Role)
	require.Equal(t, models.BehaviorCategoryNegative, detail.BehaviorTypes[0].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}
