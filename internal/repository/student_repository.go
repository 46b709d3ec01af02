package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// StudentRepository reads the student/class directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository builds repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListRegistered returns students registered for the exam in the given
// grade, sorted by (class code, name, id). The sort key fixes the seat
// numbering, so it must stay stable between runs.
func (r *StudentRepository) ListRegistered(ctx context.Context, examID string, grade int) ([]models.Student, error) {
	const query = `SELECT st.id, st.code, st.full_name, st.class_id, c.code AS class_code, c.grade, st.active, st.created_at
FROM students st
JOIN classes c ON c.id = st.class_id
JOIN exam_registrations reg ON reg.student_id = st.id
WHERE reg.exam_id = $1 AND c.grade = $2 AND st.active = TRUE
ORDER BY c.code ASC, st.full_name ASC, st.id ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, examID, grade); err != nil {
		return nil, fmt.Errorf("list registered students: %w", err)
	}
	return students, nil
}
