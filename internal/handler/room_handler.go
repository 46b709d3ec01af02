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

type roomPoolQuerier interface {
	ListAvailable(ctx context.Context, query dto.AvailableRoomsQuery) ([]models.PhysicalRoom, error)
}

// RoomHandler exposes room pool endpoints.
type RoomHandler struct {
	service roomPoolQuerier
}

// NewRoomHandler constructs the handler.
func NewRoomHandler(svc roomPoolQuerier) *RoomHandler {
	return &RoomHandler{service: svc}
}

// Available godoc
// @Summary List rooms free for a time window
// @Description Rooms come back ordered by capacity then code, so the first sufficient room is the tightest fit.
// @Tags Rooms
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param startTime query string true "Start time (HH:MM)"
// @Param endTime query string true "End time (HH:MM)"
// @Param type query string false "Room type" Enums(normal, lab, computer)
// @Param minCapacity query int false "Minimum capacity"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *RoomHandler) Available(c *gin.Context) {
	var query dto.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return
	}

	rooms, err := h.service.ListAvailable(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
