package dto

// InvigilatorSlot names one teacher for one role on a mapping.
type InvigilatorSlot struct {
	TeacherID string `json:"teacherId" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=main assistant"`
}

// ManualAssignRequest sets invigilators on a single mapping directly.
type ManualAssignRequest struct {
	Invigilators []InvigilatorSlot `json:"invigilators" validate:"required,min=1,max=2,dive"`
}

// RoomAssignment reports one filled invigilator role.
type RoomAssignment struct {
	MappingID string `json:"mappingId"`
	RoomID    string `json:"roomId"`
	TeacherID string `json:"teacherId"`
	Role      string `json:"role"`
}

// UnfilledRoom reports a mapping the auto assigner could not staff.
type UnfilledRoom struct {
	MappingID   string `json:"mappingId"`
	RoomID      string `json:"roomId"`
	MissingRole string `json:"missingRole"`
}

// AssignSessionResult is the outcome of auto assignment for one session.
type AssignSessionResult struct {
	SessionID string           `json:"sessionId"`
	Assigned  []RoomAssignment `json:"assigned"`
	Unfilled  []UnfilledRoom   `json:"unfilled,omitempty"`
}

// AssignExamResult accumulates session outcomes over a whole exam, with the
// fairness counters carried across sessions.
type AssignExamResult struct {
	ExamID   string                `json:"examId"`
	Sessions []AssignSessionResult `json:"sessions"`
	Counts   map[string]int        `json:"counts"`
}

// RemoveAllResult reports how many mappings were cleared.
type RemoveAllResult struct {
	ExamID  string `json:"examId"`
	Cleared int    `json:"cleared"`
}
