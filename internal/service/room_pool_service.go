package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type poolRoomRepository interface {
	FindByID(ctx context.Context, id string) (*models.PhysicalRoom, error)
	ListAvailable(ctx context.Context, date time.Time, start, end string, filter models.RoomFilter) ([]models.PhysicalRoom, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type poolOverlapChecker interface {
	OverlapExists(ctx context.Context, exec sqlx.ExtContext, roomID string, date time.Time, start, end, excludeMappingID string) (bool, error)
}

// RoomPoolService tracks which physical rooms are free per time window and
// serializes reservations so two sessions never share a room.
type RoomPoolService struct {
	rooms     poolRoomRepository
	mappings  poolOverlapChecker
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewRoomPoolService wires the room pool dependencies.
func NewRoomPoolService(
	rooms poolRoomRepository,
	mappings poolOverlapChecker,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *RoomPoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomPoolService{
		rooms:     rooms,
		mappings:  mappings,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// ListAvailable answers the free-room query for a date and time window.
// Listings are advisory; Reserve re-checks inside the transaction.
func (s *RoomPoolService) ListAvailable(ctx context.Context, query dto.AvailableRoomsQuery) ([]models.PhysicalRoom, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	if query.EndTime <= query.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	date, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted 2006-01-02")
	}

	key := availabilityKey(query)
	var cached []models.PhysicalRoom
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	filter := models.RoomFilter{Type: models.RoomType(query.Type), MinCapacity: query.MinCapacity}
	rooms, err := s.rooms.ListAvailable(ctx, date, query.StartTime, query.EndTime, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available rooms")
	}

	_ = s.cache.Set(ctx, key, rooms, s.cacheTTL)
	return rooms, nil
}

// Available lists the rooms free during a session's window, smallest first.
func (s *RoomPoolService) Available(ctx context.Context, session models.ExamSession, minCapacity int) ([]models.PhysicalRoom, error) {
	rooms, err := s.rooms.ListAvailable(ctx, session.Date, session.StartTime, session.EndTime, models.RoomFilter{MinCapacity: minCapacity})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available rooms")
	}
	return rooms, nil
}

// RoomByID loads one room from the pool.
func (s *RoomPoolService) RoomByID(ctx context.Context, id string) (*models.PhysicalRoom, error) {
	return s.rooms.FindByID(ctx, id)
}

// Reserve locks the room row and re-checks overlap against committed state
// inside the caller's transaction. The second of two racing reservations
// blocks on the lock, then sees the first commit and fails here.
func (s *RoomPoolService) Reserve(ctx context.Context, exec sqlx.ExtContext, roomID string, session models.ExamSession, excludeMappingID string) error {
	if err := s.rooms.LockByID(ctx, exec, roomID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock room")
	}
	busy, err := s.mappings.OverlapExists(ctx, exec, roomID, session.Date, session.StartTime, session.EndTime, excludeMappingID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to re-check room availability")
	}
	if busy {
		s.metrics.RecordConflict("room")
		return appErrors.Clone(appErrors.ErrRoomConflict, fmt.Sprintf("room %s already booked between %s and %s", roomID, session.StartTime, session.EndTime))
	}
	return nil
}

// InvalidateFor drops cached availability listings for the session's date.
func (s *RoomPoolService) InvalidateFor(ctx context.Context, session models.ExamSession) {
	s.cache.Invalidate(ctx, fmt.Sprintf("rooms:avail:%s:*", session.Date.Format("2006-01-02")))
}

func availabilityKey(query dto.AvailableRoomsQuery) string {
	return fmt.Sprintf("rooms:avail:%s:%s-%s:%s:%d", query.Date, query.StartTime, query.EndTime, query.Type, query.MinCapacity)
}
