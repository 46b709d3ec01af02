package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// SeatingGroupRepository manages seating groups and their ordered members.
type SeatingGroupRepository struct {
	db *sqlx.DB
}

// NewSeatingGroupRepository builds repository.
func NewSeatingGroupRepository(db *sqlx.DB) *SeatingGroupRepository {
	return &SeatingGroupRepository{db: db}
}

// FindByID loads a single seating group.
func (r *SeatingGroupRepository) FindByID(ctx context.Context, id string) (*models.SeatingGroup, error) {
	const query = `SELECT id, exam_id, code, grade, capacity, created_at
FROM seating_groups WHERE id = $1`
	var group models.SeatingGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByExamGrade returns groups with member counts, ordered by group code so
// the auto mapper walks them deterministically.
func (r *SeatingGroupRepository) ListByExamGrade(ctx context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error) {
	const query = `SELECT g.id, g.exam_id, g.code, g.grade, g.capacity, g.created_at,
       COUNT(m.id) AS size
FROM seating_groups g
LEFT JOIN seating_group_members m ON m.group_id = g.id
WHERE g.exam_id = $1 AND g.grade = $2
GROUP BY g.id
ORDER BY g.code ASC`
	var groups []models.SeatingGroupSummary
	if err := r.db.SelectContext(ctx, &groups, query, examID, grade); err != nil {
		return nil, fmt.Errorf("list seating groups: %w", err)
	}
	return groups, nil
}

// ListMembers returns the members of a group in issued position order.
func (r *SeatingGroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.SeatingGroupMember, error) {
	const query = `SELECT id, group_id, student_id, position, created_at
FROM seating_group_members WHERE group_id = $1 ORDER BY position ASC`
	var members []models.SeatingGroupMember
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// AssignedStudentIDs returns the students already holding a group membership
// for the exam. Partitioning is append-only over the complement of this set.
func (r *SeatingGroupRepository) AssignedStudentIDs(ctx context.Context, examID string) ([]string, error) {
	const query = `SELECT m.student_id
FROM seating_group_members m
JOIN seating_groups g ON g.id = m.group_id
WHERE g.exam_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, examID); err != nil {
		return nil, fmt.Errorf("list assigned students: %w", err)
	}
	return ids, nil
}

// Create persists a new seating group.
func (r *SeatingGroupRepository) Create(ctx context.Context, exec sqlx.ExtContext, group *models.SeatingGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO seating_groups (id, exam_id, code, grade, capacity, created_at)
VALUES (:id, :exam_id, :code, :grade, :capacity, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, execFrom(exec, r.db), query, group); err != nil {
		return fmt.Errorf("create seating group: %w", err)
	}
	return nil
}

// AddMembers appends members at their pre-computed positions.
func (r *SeatingGroupRepository) AddMembers(ctx context.Context, exec sqlx.ExtContext, members []models.SeatingGroupMember) error {
	if len(members) == 0 {
		return nil
	}
	target := execFrom(exec, r.db)
	now := time.Now().UTC()
	const query = `INSERT INTO seating_group_members (id, group_id, student_id, position, created_at)
VALUES (:id, :group_id, :student_id, :position, :created_at)`
	for i := range members {
		member := &members[i]
		if member.ID == "" {
			member.ID = uuid.NewString()
		}
		if member.CreatedAt.IsZero() {
			member.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, member); err != nil {
			return fmt.Errorf("add group member: %w", err)
		}
	}
	return nil
}
