package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// MappingRepository manages session-to-room bindings and their invigilators.
type MappingRepository struct {
	db *sqlx.DB
}

// NewMappingRepository builds repository.
func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// FindByID loads a single mapping.
func (r *MappingRepository) FindByID(ctx context.Context, id string) (*models.SessionRoomMapping, error) {
	const query = `SELECT id, session_id, room_id, group_id, main_teacher_id, assistant_teacher_id, created_at, updated_at
FROM session_room_mappings WHERE id = $1`
	var mapping models.SessionRoomMapping
	if err := r.db.GetContext(ctx, &mapping, query, id); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// ListBySession returns mappings for one session ordered by creation.
func (r *MappingRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SessionRoomMapping, error) {
	const query = `SELECT id, session_id, room_id, group_id, main_teacher_id, assistant_teacher_id, created_at, updated_at
FROM session_room_mappings WHERE session_id = $1 ORDER BY created_at ASC, id ASC`
	var mappings []models.SessionRoomMapping
	if err := r.db.SelectContext(ctx, &mappings, query, sessionID); err != nil {
		return nil, fmt.Errorf("list mappings by session: %w", err)
	}
	return mappings, nil
}

// ListSlotsByDate returns every mapping joined with its session window on the
// given date. The conflict predicates operate on this snapshot.
func (r *MappingRepository) ListSlotsByDate(ctx context.Context, date time.Time) ([]models.MappingSlot, error) {
	const query = `SELECT m.id AS mapping_id, m.session_id, m.room_id, s.date, s.start_time, s.end_time,
       m.main_teacher_id, m.assistant_teacher_id
FROM session_room_mappings m
JOIN exam_sessions s ON s.id = m.session_id
WHERE s.date = $1
ORDER BY s.start_time ASC, m.id ASC`
	var slots []models.MappingSlot
	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("list mapping slots: %w", err)
	}
	return slots, nil
}

// OverlapExists re-checks, inside the caller's transaction, whether the room
// already holds a mapping overlapping the window. Used as the commit-time
// guard after the advisory availability listing.
func (r *MappingRepository) OverlapExists(ctx context.Context, exec sqlx.ExtContext, roomID string, date time.Time, start, end, excludeMappingID string) (bool, error) {
	const query = `SELECT EXISTS (
  SELECT 1
  FROM session_room_mappings m
  JOIN exam_sessions s ON s.id = m.session_id
  WHERE m.room_id = $1
    AND s.date = $2
    AND s.start_time < $4
    AND $3 < s.end_time
    AND ($5 = '' OR m.id <> $5)
)`
	var exists bool
	if err := sqlx.GetContext(ctx, execFrom(exec, r.db), &exists, query, roomID, date, start, end, excludeMappingID); err != nil {
		return false, fmt.Errorf("check room overlap: %w", err)
	}
	return exists, nil
}

// Create persists a new mapping.
func (r *MappingRepository) Create(ctx context.Context, exec sqlx.ExtContext, mapping *models.SessionRoomMapping) error {
	now := time.Now().UTC()
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now
	const query = `INSERT INTO session_room_mappings (id, session_id, room_id, group_id, main_teacher_id, assistant_teacher_id, created_at, updated_at)
VALUES (:id, :session_id, :room_id, :group_id, :main_teacher_id, :assistant_teacher_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, execFrom(exec, r.db), query, mapping); err != nil {
		return fmt.Errorf("create mapping: %w", err)
	}
	return nil
}

// UpdateRoom relocates a mapping to a different room. Seat assignments
// reference the mapping ID and therefore move with it.
func (r *MappingRepository) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, mappingID, roomID string) error {
	const query = `UPDATE session_room_mappings SET room_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := execFrom(exec, r.db).ExecContext(ctx, query, mappingID, roomID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update mapping room: %w", err)
	}
	return nil
}

// UpdateInvigilators sets both invigilator roles on a mapping.
func (r *MappingRepository) UpdateInvigilators(ctx context.Context, exec sqlx.ExtContext, mappingID string, main, assistant *string) error {
	const query = `UPDATE session_room_mappings SET main_teacher_id = $2, assistant_teacher_id = $3, updated_at = $4 WHERE id = $1`
	if _, err := execFrom(exec, r.db).ExecContext(ctx, query, mappingID, main, assistant, time.Now().UTC()); err != nil {
		return fmt.Errorf("update invigilators: %w", err)
	}
	return nil
}

// ClearInvigilatorsByExam blanks invigilator fields on every mapping of the
// exam and reports how many rows changed.
func (r *MappingRepository) ClearInvigilatorsByExam(ctx context.Context, exec sqlx.ExtContext, examID string) (int, error) {
	const query = `UPDATE session_room_mappings m
SET main_teacher_id = NULL, assistant_teacher_id = NULL, updated_at = $2
FROM exam_sessions s
WHERE s.id = m.session_id AND s.exam_id = $1
  AND (m.main_teacher_id IS NOT NULL OR m.assistant_teacher_id IS NOT NULL)`
	result, err := execFrom(exec, r.db).ExecContext(ctx, query, examID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("clear invigilators: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear invigilators rows: %w", err)
	}
	return int(affected), nil
}

// DeleteBySession removes all mappings of a session. Seat assignments cascade
// at the schema level.
func (r *MappingRepository) DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) (int, error) {
	const query = `DELETE FROM session_room_mappings WHERE session_id = $1`
	result, err := execFrom(exec, r.db).ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete mappings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete mappings rows: %w", err)
	}
	return int(affected), nil
}

// CountTeacherAssignments returns historical invigilation counts per teacher
// across the whole exam. Seeds the fairness ranking.
func (r *MappingRepository) CountTeacherAssignments(ctx context.Context, examID string) ([]models.TeacherAssignmentCount, error) {
	const query = `SELECT teacher_id, COUNT(*) AS count FROM (
  SELECT m.main_teacher_id AS teacher_id
  FROM session_room_mappings m
  JOIN exam_sessions s ON s.id = m.session_id
  WHERE s.exam_id = $1 AND m.main_teacher_id IS NOT NULL
  UNION ALL
  SELECT m.assistant_teacher_id AS teacher_id
  FROM session_room_mappings m
  JOIN exam_sessions s ON s.id = m.session_id
  WHERE s.exam_id = $1 AND m.assistant_teacher_id IS NOT NULL
) roles GROUP BY teacher_id`
	var counts []models.TeacherAssignmentCount
	if err := r.db.SelectContext(ctx, &counts, query, examID); err != nil {
		return nil, fmt.Errorf("count teacher assignments: %w", err)
	}
	return counts, nil
}
