package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/response"
)

type groupPartitioner interface {
	PartitionGroups(ctx context.Context, req dto.PartitionRequest) (*dto.PartitionResult, error)
	ListGroups(ctx context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error)
}

// GroupHandler exposes seating group endpoints.
type GroupHandler struct {
	service groupPartitioner
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(svc groupPartitioner) *GroupHandler {
	return &GroupHandler{service: svc}
}

// Partition godoc
// @Summary Partition registered students of a grade into seating groups
// @Description Unassigned students are appended to existing groups with spare capacity before new groups are opened.
// @Tags Seating
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body dto.PartitionRequest true "Partition payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exams/{id}/groups [post]
func (h *GroupHandler) Partition(c *gin.Context) {
	var req dto.PartitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid partition payload"))
		return
	}
	req.ExamID = c.Param("id")

	result, err := h.service.PartitionGroups(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List seating groups of an exam grade with member counts
// @Tags Seating
// @Produce json
// @Param id path string true "Exam ID"
// @Param grade query int true "Grade level"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	grade, err := strconv.Atoi(c.Query("grade"))
	if err != nil || grade < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "grade query parameter is required"))
		return
	}

	groups, err := h.service.ListGroups(c.Request.Context(), c.Param("id"), grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}
