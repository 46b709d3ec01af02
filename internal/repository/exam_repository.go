package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// ExamRepository reads exams and their sessions from the exam registry.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository builds repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// FindByID loads a single exam.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, code, name, school_year, status, created_at, updated_at
FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindSessionByID loads a single exam session.
func (r *ExamRepository) FindSessionByID(ctx context.Context, id string) (*models.ExamSession, error) {
	const query = `SELECT id, exam_id, subject_id, grade, date, start_time, end_time, duration_minutes, created_at
FROM exam_sessions WHERE id = $1`
	var session models.ExamSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessionsByExam returns all sessions of an exam in chronological order.
func (r *ExamRepository) ListSessionsByExam(ctx context.Context, examID string) ([]models.ExamSession, error) {
	const query = `SELECT id, exam_id, subject_id, grade, date, start_time, end_time, duration_minutes, created_at
FROM exam_sessions WHERE exam_id = $1 ORDER BY date ASC, start_time ASC, id ASC`
	var sessions []models.ExamSession
	if err := r.db.SelectContext(ctx, &sessions, query, examID); err != nil {
		return nil, fmt.Errorf("list exam sessions: %w", err)
	}
	return sessions, nil
}
