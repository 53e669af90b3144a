package models

import "time"

// Student represents a learner registered in the institution. behavior_score
// starts at the configured baseline and is mutated only by the score
// aggregation workflow, never written directly.
type Student struct {
	ID            int64     `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Nickname      *string   `db:"nickname" json:"nickname,omitempty"`
	ClassroomID   int64     `db:"classroom_id" json:"classroom_id"`
	BehaviorScore int       `db:"behavior_score" json:"behavior_score"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentWithClassroom is a student projected with classroom context.
type StudentWithClassroom struct {
	Student
	ClassroomName       string  `db:"classroom_name" json:"classroom_name"`
	ClassroomDepartment *string `db:"classroom_department" json:"classroom_department,omitempty"`
}

// StudentFilter encapsulates search parameters for student listings.
type StudentFilter struct {
	Search      string
	ClassroomID int64
	Page        int
	PageSize    int
}
