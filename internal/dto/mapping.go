package dto

import "github.com/NKT-Anh/datn-eduManager-sub003/internal/models"

// GroupRoomPair is one caller-chosen group to room binding.
type GroupRoomPair struct {
	GroupID string `json:"groupId" validate:"required"`
	RoomID  string `json:"roomId" validate:"required"`
}

// MapSessionRequest maps all seating groups of a session onto physical rooms.
// Auto mode walks groups in code order; explicit mode uses the supplied pairs.
type MapSessionRequest struct {
	Auto     bool            `json:"auto"`
	Explicit []GroupRoomPair `json:"explicit" validate:"omitempty,min=1,dive"`
}

// MapSessionResult is the all-or-nothing outcome for one session.
type MapSessionResult struct {
	Mappings  []models.SessionRoomMapping `json:"mappings"`
	Conflicts []models.MappingConflict    `json:"conflicts,omitempty"`
}

// SessionOutcome is the per-session record inside an exam-wide bulk run.
type SessionOutcome struct {
	SessionID string                      `json:"sessionId"`
	Date      string                      `json:"date"`
	StartTime string                      `json:"startTime"`
	Skipped   bool                        `json:"skipped"`
	Mappings  []models.SessionRoomMapping `json:"mappings,omitempty"`
	Conflicts []models.MappingConflict    `json:"conflicts,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

// MapExamResult accumulates per-session outcomes across a whole exam.
type MapExamResult struct {
	ExamID    string           `json:"examId"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Sessions  []SessionOutcome `json:"sessions"`
}

// MoveMappingRequest relocates an existing mapping to a different room.
type MoveMappingRequest struct {
	RoomID string `json:"roomId" binding:"required" validate:"required"`
}
