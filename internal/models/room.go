package models

import "time"

// RoomType classifies a physical room.
type RoomType string

const (
	RoomTypeNormal   RoomType = "normal"
	RoomTypeLab      RoomType = "lab"
	RoomTypeComputer RoomType = "computer"
)

// PhysicalRoom is a school room from the shared pool.
type PhysicalRoom struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Type      RoomType  `db:"type" json:"type"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures search parameters for room listings.
type RoomFilter struct {
	Type        RoomType
	MinCapacity int
	Active      *bool
}
