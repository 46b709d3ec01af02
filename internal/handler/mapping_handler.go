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

type slotMapper interface {
	MapSessionRooms(ctx context.Context, sessionID string, req dto.MapSessionRequest) (*dto.MapSessionResult, error)
	MapExamRooms(ctx context.Context, examID string) (*dto.MapExamResult, error)
	MoveMapping(ctx context.Context, mappingID, newRoomID string) (*models.SessionRoomMapping, error)
	ResetSessionRooms(ctx context.Context, sessionID string) (int, error)
}

// MappingHandler exposes session to room mapping endpoints.
type MappingHandler struct {
	service slotMapper
}

// NewMappingHandler constructs the handler.
func NewMappingHandler(svc slotMapper) *MappingHandler {
	return &MappingHandler{service: svc}
}

// MapSession godoc
// @Summary Map the seating groups of one session onto physical rooms
// @Description All-or-nothing: when any group cannot be placed, nothing is persisted and the conflicts are returned with status 409.
// @Tags Mapping
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.MapSessionRequest true "Mapping payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/rooms [post]
func (h *MappingHandler) MapSession(c *gin.Context) {
	var req dto.MapSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping payload"))
		return
	}

	result, err := h.service.MapSessionRooms(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Conflicts) > 0 {
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}
	response.Created(c, result)
}

// MapExam godoc
// @Summary Map rooms for every session of an exam
// @Description Sessions run chronologically; already-mapped sessions are skipped so the call can resume interrupted runs.
// @Tags Mapping
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/rooms [post]
func (h *MappingHandler) MapExam(c *gin.Context) {
	result, err := h.service.MapExamRooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Move godoc
// @Summary Move a mapping to a different room
// @Tags Mapping
// @Accept json
// @Produce json
// @Param id path string true "Mapping ID"
// @Param payload body dto.MoveMappingRequest true "Target room"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mappings/{id}/room [patch]
func (h *MappingHandler) Move(c *gin.Context) {
	var req dto.MoveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}

	mapping, err := h.service.MoveMapping(c.Request.Context(), c.Param("id"), req.RoomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mapping, nil)
}

// ResetSession godoc
// @Summary Delete every room mapping of a session
// @Tags Mapping
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/rooms [delete]
func (h *MappingHandler) ResetSession(c *gin.Context) {
	deleted, err := h.service.ResetSessionRooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}
