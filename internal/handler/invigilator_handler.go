package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/response"
)

type invigilatorAssigner interface {
	AutoAssignSession(ctx context.Context, sessionID string) (*dto.AssignSessionResult, error)
	AutoAssignExam(ctx context.Context, examID string) (*dto.AssignExamResult, error)
	Assign(ctx context.Context, mappingID string, req dto.ManualAssignRequest) (*models.SessionRoomMapping, error)
	RemoveAll(ctx context.Context, examID string) (*dto.RemoveAllResult, error)
}

// InvigilatorHandler exposes invigilator assignment endpoints.
type InvigilatorHandler struct {
	service invigilatorAssigner
}

// NewInvigilatorHandler constructs the handler.
func NewInvigilatorHandler(svc invigilatorAssigner) *InvigilatorHandler {
	return &InvigilatorHandler{service: svc}
}

// AutoSession godoc
// @Summary Auto-assign invigilators to every mapped room of a session
// @Description The least-loaded free teacher takes each duty. Every room gets its main invigilator before any assistant is placed.
// @Tags Invigilators
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/invigilators/auto [post]
func (h *InvigilatorHandler) AutoSession(c *gin.Context) {
	result, err := h.service.AutoAssignSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AutoExam godoc
// @Summary Auto-assign invigilators across every session of an exam
// @Description Sessions run chronologically and the per-teacher duty counter carries across sessions.
// @Tags Invigilators
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/invigilators/auto [post]
func (h *InvigilatorHandler) AutoExam(c *gin.Context) {
	result, err := h.service.AutoAssignExam(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Assign godoc
// @Summary Set invigilators on one mapping manually
// @Tags Invigilators
// @Accept json
// @Produce json
// @Param id path string true "Mapping ID"
// @Param payload body dto.ManualAssignRequest true "Invigilator payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mappings/{id}/invigilators [post]
func (h *InvigilatorHandler) Assign(c *gin.Context) {
	var req dto.ManualAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invigilator payload"))
		return
	}

	mapping, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mapping, nil)
}

// RemoveAll godoc
// @Summary Clear every invigilator assignment of an exam
// @Tags Invigilators
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/invigilators [delete]
func (h *InvigilatorHandler) RemoveAll(c *gin.Context) {
	result, err := h.service.RemoveAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
