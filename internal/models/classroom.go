package models

// Classroom is an immutable grouping of students.
type Classroom struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Department *string `db:"department" json:"department,omitempty"`
}
