package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	"github.com/NKT-Anh/datn-eduManager-sub003/pkg/response"
)

type seatAssigner interface {
	AssignSeats(ctx context.Context, mappingID string) ([]models.SeatAssignment, error)
	ResetSeats(ctx context.Context, mappingID string) (int, error)
	ListSeats(ctx context.Context, mappingID string) ([]models.SeatAssignment, error)
}

// SeatHandler exposes seat assignment endpoints.
type SeatHandler struct {
	service seatAssigner
}

// NewSeatHandler constructs the handler.
func NewSeatHandler(svc seatAssigner) *SeatHandler {
	return &SeatHandler{service: svc}
}

// Assign godoc
// @Summary Assign contiguous seats and exam numbers to a mapped group
// @Description Idempotent: when seats already exist they are returned unchanged. Reset first to regenerate.
// @Tags Seating
// @Produce json
// @Param id path string true "Mapping ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mappings/{id}/seats [post]
func (h *SeatHandler) Assign(c *gin.Context) {
	seats, err := h.service.AssignSeats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, seats)
}

// List godoc
// @Summary List seat assignments of a mapping in seat order
// @Tags Seating
// @Produce json
// @Param id path string true "Mapping ID"
// @Success 200 {object} response.Envelope
// @Router /mappings/{id}/seats [get]
func (h *SeatHandler) List(c *gin.Context) {
	seats, err := h.service.ListSeats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seats, nil)
}

// Reset godoc
// @Summary Delete every seat of a mapping
// @Tags Seating
// @Produce json
// @Param id path string true "Mapping ID"
// @Success 200 {object} response.Envelope
// @Router /mappings/{id}/seats [delete]
func (h *SeatHandler) Reset(c *gin.Context) {
	deleted, err := h.service.ResetSeats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}
