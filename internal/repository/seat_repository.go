package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// SeatRepository manages seat assignments inside mapped rooms.
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository builds repository.
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// ListByMapping returns seat assignments in seat number order.
func (r *SeatRepository) ListByMapping(ctx context.Context, mappingID string) ([]models.SeatAssignment, error) {
	const query = `SELECT id, mapping_id, student_id, seat_number, exam_number, created_at
FROM seat_assignments WHERE mapping_id = $1 ORDER BY seat_number ASC`
	var seats []models.SeatAssignment
	if err := r.db.SelectContext(ctx, &seats, query, mappingID); err != nil {
		return nil, fmt.Errorf("list seat assignments: %w", err)
	}
	return seats, nil
}

// ListStudentIDsBySession returns every student already seated somewhere in
// the session, across all of its mappings.
func (r *SeatRepository) ListStudentIDsBySession(ctx context.Context, sessionID string) ([]string, error) {
	const query = `SELECT a.student_id
FROM seat_assignments a
JOIN session_room_mappings m ON m.id = a.mapping_id
WHERE m.session_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, sessionID); err != nil {
		return nil, fmt.Errorf("list seated students: %w", err)
	}
	return ids, nil
}

// BulkCreate persists seat assignments for a mapping.
func (r *SeatRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatAssignment) error {
	if len(seats) == 0 {
		return nil
	}
	target := execFrom(exec, r.db)
	now := time.Now().UTC()
	const query = `INSERT INTO seat_assignments (id, mapping_id, student_id, seat_number, exam_number, created_at)
VALUES (:id, :mapping_id, :student_id, :seat_number, :exam_number, :created_at)`
	for i := range seats {
		seat := &seats[i]
		if seat.ID == "" {
			seat.ID = uuid.NewString()
		}
		if seat.CreatedAt.IsZero() {
			seat.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, seat); err != nil {
			return fmt.Errorf("create seat assignment: %w", err)
		}
	}
	return nil
}

// DeleteByMapping removes every seat assignment of a mapping.
func (r *SeatRepository) DeleteByMapping(ctx context.Context, exec sqlx.ExtContext, mappingID string) (int, error) {
	const query = `DELETE FROM seat_assignments WHERE mapping_id = $1`
	result, err := execFrom(exec, r.db).ExecContext(ctx, query, mappingID)
	if err != nil {
		return 0, fmt.Errorf("delete seat assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete seat assignments rows: %w", err)
	}
	return int(affected), nil
}
