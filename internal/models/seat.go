package models

import "time"

// SeatAssignment places one student on one numbered seat inside a mapped
// room. ExamNumber (SBD) is the externally printed identifier and must stay
// identical across regenerations for the same student and session.
type SeatAssignment struct {
	ID         string    `db:"id" json:"id"`
	MappingID  string    `db:"mapping_id" json:"mapping_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	SeatNumber int       `db:"seat_number" json:"seat_number"`
	ExamNumber string    `db:"exam_number" json:"exam_number"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
