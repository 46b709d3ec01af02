package models

import "time"

// Teacher represents an instructor record read from the staff directory.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Code      *string   `db:"code" json:"code,omitempty"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search string
	Active *bool
}
