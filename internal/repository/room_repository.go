package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

// RoomRepository manages the shared pool of physical rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository builds repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID loads a single room.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.PhysicalRoom, error) {
	const query = `SELECT id, code, name, capacity, type, active, created_at, updated_at
FROM physical_rooms WHERE id = $1`
	var room models.PhysicalRoom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListAvailable returns active rooms free for the given window, smallest
// sufficient capacity first so large rooms stay available for large groups.
// The availability test excludes rooms holding any mapping whose session
// overlaps [start, end) on the date.
func (r *RoomRepository) ListAvailable(ctx context.Context, date time.Time, start, end string, filter models.RoomFilter) ([]models.PhysicalRoom, error) {
	query := `SELECT r.id, r.code, r.name, r.capacity, r.type, r.active, r.created_at, r.updated_at
FROM physical_rooms r
WHERE r.active = TRUE
  AND NOT EXISTS (
    SELECT 1
    FROM session_room_mappings m
    JOIN exam_sessions s ON s.id = m.session_id
    WHERE m.room_id = r.id
      AND s.date = $1
      AND s.start_time < $3
      AND $2 < s.end_time
  )`
	args := []interface{}{date, start, end}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND r.type = $%d", len(args))
	}
	if filter.MinCapacity > 0 {
		args = append(args, filter.MinCapacity)
		query += fmt.Sprintf(" AND r.capacity >= $%d", len(args))
	}
	query += " ORDER BY r.capacity ASC, r.code ASC"

	var rooms []models.PhysicalRoom
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}

// LockByID acquires a row lock on the room inside the caller's transaction.
// Serializes concurrent reservation attempts for the same room.
func (r *RoomRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `SELECT id FROM physical_rooms WHERE id = $1 FOR UPDATE`
	var locked string
	if err := sqlx.GetContext(ctx, execFrom(exec, r.db), &locked, query, id); err != nil {
		return fmt.Errorf("lock room %s: %w", id, err)
	}
	return nil
}
