package dto

// AvailableRoomsQuery filters the free-room listing for a time window.
type AvailableRoomsQuery struct {
	Date        string `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `form:"startTime" json:"startTime" validate:"required,datetime=15:04"`
	EndTime     string `form:"endTime" json:"endTime" validate:"required,datetime=15:04"`
	Type        string `form:"type" json:"type" validate:"omitempty,oneof=normal lab computer"`
	MinCapacity int    `form:"minCapacity" json:"minCapacity" validate:"omitempty,min=1"`
}
