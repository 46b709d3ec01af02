package dto

import "github.com/NKT-Anh/datn-eduManager-sub003/internal/models"

// PartitionRequest asks the engine to split eligible students into seating groups.
type PartitionRequest struct {
	ExamID      string `json:"examId" validate:"required"`
	Grade       int    `json:"grade" validate:"required,min=1,max=12"`
	MaxPerGroup int    `json:"maxPerGroup" validate:"omitempty,min=1"`
	MaxGroups   int    `json:"maxGroups" validate:"omitempty,min=1"`
}

// PartitionWarning flags a non-fatal policy deviation during partitioning.
type PartitionWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PartitionResult returns created and extended groups plus any warnings.
type PartitionResult struct {
	Groups   []models.SeatingGroupSummary `json:"groups"`
	Placed   int                          `json:"placed"`
	Warnings []PartitionWarning           `json:"warnings,omitempty"`
}
