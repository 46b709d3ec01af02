package models

import "time"

// Invigilator roles within a mapped room.
const (
	InvigilatorRoleMain      = "main"
	InvigilatorRoleAssistant = "assistant"
)

// SessionRoomMapping binds one seating group to one physical room for one
// exam session. At most one mapping may exist per (room, overlapping session).
type SessionRoomMapping struct {
	ID                 string    `db:"id" json:"id"`
	SessionID          string    `db:"session_id" json:"session_id"`
	RoomID             string    `db:"room_id" json:"room_id"`
	GroupID            *string   `db:"group_id" json:"group_id,omitempty"`
	MainTeacherID      *string   `db:"main_teacher_id" json:"main_teacher_id,omitempty"`
	AssistantTeacherID *string   `db:"assistant_teacher_id" json:"assistant_teacher_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// MappingSlot is a mapping joined with the time window of its session.
// Conflict predicates operate on slots instead of re-fetching sessions.
type MappingSlot struct {
	MappingID          string    `db:"mapping_id" json:"mapping_id"`
	SessionID          string    `db:"session_id" json:"session_id"`
	RoomID             string    `db:"room_id" json:"room_id"`
	Date               time.Time `db:"date" json:"date"`
	StartTime          string    `db:"start_time" json:"start_time"`
	EndTime            string    `db:"end_time" json:"end_time"`
	MainTeacherID      *string   `db:"main_teacher_id" json:"main_teacher_id,omitempty"`
	AssistantTeacherID *string   `db:"assistant_teacher_id" json:"assistant_teacher_id,omitempty"`
}

// MappingConflict describes one rejected room or teacher placement.
type MappingConflict struct {
	SessionID string `json:"session_id"`
	GroupID   string `json:"group_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
	Reason    string `json:"reason"`
}

// TeacherAssignmentCount tracks how many invigilator roles a teacher holds.
type TeacherAssignmentCount struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	Count     int    `db:"count" json:"count"`
}
