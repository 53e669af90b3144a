package models

import "time"

// BehaviorCategory classifies a behavior type. The category field is
// authoritative; the sign of the score is a convention only.
type BehaviorCategory string

const (
	BehaviorCategoryPositive BehaviorCategory = "positive"
	BehaviorCategoryNegative BehaviorCategory = "negative"
)

// Valid reports whether the category is one of the known values.
func (c BehaviorCategory) Valid() bool {
	return c == BehaviorCategoryPositive || c == BehaviorCategoryNegative
}

// ApprovalStatus is the lifecycle state of a behavior log. A log is created
// pending and makes at most one transition to approved or rejected.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Terminal reports whether the status is a valid transition target.
func (s ApprovalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// BehaviorType is a named, scored category of student conduct.
type BehaviorType struct {
	ID       int64            `db:"id" json:"id"`
	Name     string           `db:"name" json:"name"`
	Category BehaviorCategory `db:"category" json:"category"`
	Score    int              `db:"score" json:"score"`
}

// BehaviorLog is a single recorded incident citing one or more behavior
// types for one student. The cited set is fixed at creation time.
type BehaviorLog struct {
	ID          int64          `db:"id" json:"id"`
	StudentID   int64          `db:"student_id" json:"student_id"`
	TeacherID   int64          `db:"teacher_id" json:"teacher_id"`
	Description *string        `db:"description" json:"description,omitempty"`
	ImageURL    *string        `db:"image_url" json:"image_url,omitempty"`
	Status      ApprovalStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// BehaviorLogDetail is the response-time projection of a log together with
// its resolved student, recording teacher, and cited behavior types.
type BehaviorLogDetail struct {
	BehaviorLog
	Student       StudentWithClassroom `json:"student"`
	Teacher       TeacherInfo          `json:"teacher"`
	BehaviorTypes []BehaviorType       `json:"behavior_types"`
}

// BehaviorLogRecord is the flat scan target for the joined log queries.
type BehaviorLogRecord struct {
	BehaviorLog
	StudentNumber       string  `db:"student_number"`
	FirstName           string  `db:"first_name"`
	LastName            string  `db:"last_name"`
	Nickname            *string `db:"nickname"`
	BehaviorScore       int     `db:"behavior_score"`
	ClassroomID         int64   `db:"classroom_id"`
	ClassroomName       string  `db:"classroom_name"`
	ClassroomDepartment *string `db:"classroom_department"`
	TeacherName         string  `db:"teacher_name"`
	TeacherRole         string  `db:"teacher_role"`
}

// CitedBehaviorType is one join row resolved against the catalog.
type CitedBehaviorType struct {
	BehaviorLogID int64            `db:"behavior_log_id"`
	ID            int64            `db:"id"`
	Name          string           `db:"name"`
	Category      BehaviorCategory `db:"category"`
	Score         int              `db:"score"`
}

// BehaviorLogFilter narrows log listings. An empty or "all" status matches
// every log.
type BehaviorLogFilter struct {
	Status    string
	StudentID int64
	SortOrder string
	Page      int
	PageSize  int
}

// StatusTransition identifies one log that actually flipped status during a
// bulk transition, along with its owning student.
type StatusTransition struct {
	LogID     int64 `db:"id"`
	StudentID int64 `db:"student_id"`
}

// StudentScoreDelta is the summed score contribution of newly approved logs
// for one student.
type StudentScoreDelta struct {
	StudentID int64 `db:"student_id"`
	Delta     int   `db:"delta"`
}
