package models

import "time"

// ExamStatus is the lifecycle state of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
	ExamStatusLocked    ExamStatus = "locked"
	ExamStatusArchived  ExamStatus = "archived"
)

// Mutable reports whether room, seat and invigilator records of the exam
// may still be changed.
func (s ExamStatus) Mutable() bool {
	return s != ExamStatusLocked && s != ExamStatusArchived
}

// Exam represents one examination event spanning multiple sessions.
type Exam struct {
	ID         string     `db:"id" json:"id"`
	Code       string     `db:"code" json:"code"`
	Name       string     `db:"name" json:"name"`
	SchoolYear string     `db:"school_year" json:"school_year"`
	Status     ExamStatus `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// ExamSession is one timed sitting of a subject for a grade.
// StartTime and EndTime are zero-padded "HH:MM" clock strings, so string
// comparison matches chronological comparison.
type ExamSession struct {
	ID              string    `db:"id" json:"id"`
	ExamID          string    `db:"exam_id" json:"exam_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	Grade           int       `db:"grade" json:"grade"`
	Date            time.Time `db:"date" json:"date"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// SameDate reports whether both sessions fall on the same calendar date.
func (s ExamSession) SameDate(other ExamSession) bool {
	return s.Date.Format("2006-01-02") == other.Date.Format("2006-01-02")
}
