package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type poolRoomRepoStub struct {
	rooms      []models.PhysicalRoom
	locked     []string
	lastFilter models.RoomFilter
}

func (s *poolRoomRepoStub) FindByID(ctx context.Context, id string) (*models.PhysicalRoom, error) {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return &s.rooms[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *poolRoomRepoStub) ListAvailable(ctx context.Context, date time.Time, start, end string, filter models.RoomFilter) ([]models.PhysicalRoom, error) {
	s.lastFilter = filter
	var out []models.PhysicalRoom
	for _, room := range s.rooms {
		if filter.MinCapacity > 0 && room.Capacity < filter.MinCapacity {
			continue
		}
		if filter.Type != "" && room.Type != filter.Type {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

func (s *poolRoomRepoStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.locked = append(s.locked, id)
	return nil
}

type overlapCheckerStub struct {
	busy map[string]bool
}

func (s overlapCheckerStub) OverlapExists(ctx context.Context, exec sqlx.ExtContext, roomID string, date time.Time, start, end, excludeMappingID string) (bool, error) {
	return s.busy[roomID], nil
}

func TestRoomPoolListAvailableValidatesQuery(t *testing.T) {
	svc := NewRoomPoolService(&poolRoomRepoStub{}, overlapCheckerStub{}, nil, nil, nil, nil, 0)

	_, err := svc.ListAvailable(context.Background(), dto.AvailableRoomsQuery{Date: "2026-05-20", StartTime: "09:00", EndTime: "07:30"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ListAvailable(context.Background(), dto.AvailableRoomsQuery{Date: "20-05-2026", StartTime: "07:30", EndTime: "09:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoomPoolListAvailableAppliesFilter(t *testing.T) {
	repo := &poolRoomRepoStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 20, Type: models.RoomTypeNormal},
		{ID: "r-2", Code: "LAB1", Capacity: 30, Type: models.RoomTypeLab},
	}}
	svc := NewRoomPoolService(repo, overlapCheckerStub{}, nil, nil, nil, nil, 0)

	rooms, err := svc.ListAvailable(context.Background(), dto.AvailableRoomsQuery{
		Date: "2026-05-20", StartTime: "07:30", EndTime: "09:00", Type: "lab", MinCapacity: 25,
	})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "r-2", rooms[0].ID)
	assert.Equal(t, models.RoomTypeLab, repo.lastFilter.Type)
	assert.Equal(t, 25, repo.lastFilter.MinCapacity)
}

func TestRoomPoolReserveLocksThenRechecks(t *testing.T) {
	repo := &poolRoomRepoStub{rooms: []models.PhysicalRoom{{ID: "r-1", Code: "A101", Capacity: 20}}}
	svc := NewRoomPoolService(repo, overlapCheckerStub{}, nil, nil, nil, nil, 0)

	err := svc.Reserve(context.Background(), nil, "r-1", morningSession("sess-1"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, repo.locked)
}

func TestRoomPoolReserveRejectsOverlap(t *testing.T) {
	repo := &poolRoomRepoStub{rooms: []models.PhysicalRoom{{ID: "r-1", Code: "A101", Capacity: 20}}}
	svc := NewRoomPoolService(repo, overlapCheckerStub{busy: map[string]bool{"r-1": true}}, nil, nil, nil, nil, 0)

	err := svc.Reserve(context.Background(), nil, "r-1", morningSession("sess-1"), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomConflict.Code, appErrors.FromError(err).Code)
}
