package models

import "time"

// SeatingGroup is a fixed, ordered grouping of exam takers. It is created
// once per grade per exam and survives every session of that exam, so seat
// numbers derived from the member order stay stable.
type SeatingGroup struct {
	ID        string    `db:"id" json:"id"`
	ExamID    string    `db:"exam_id" json:"exam_id"`
	Code      string    `db:"code" json:"code"`
	Grade     int       `db:"grade" json:"grade"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SeatingGroupSummary joins a group with its current member count.
type SeatingGroupSummary struct {
	SeatingGroup
	Size int `db:"size" json:"size"`
}

// SeatingGroupMember binds a student to a group at a fixed position.
// Positions start at 1 and are never reassigned once issued.
type SeatingGroupMember struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
