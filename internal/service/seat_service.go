package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type seatExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	FindSessionByID(ctx context.Context, id string) (*models.ExamSession, error)
}

type seatMappingReader interface {
	FindByID(ctx context.Context, id string) (*models.SessionRoomMapping, error)
}

type seatGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.SeatingGroup, error)
	ListMembers(ctx context.Context, groupID string) ([]models.SeatingGroupMember, error)
}

type seatRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.PhysicalRoom, error)
}

type seatRepository interface {
	ListByMapping(ctx context.Context, mappingID string) ([]models.SeatAssignment, error)
	ListStudentIDsBySession(ctx context.Context, sessionID string) ([]string, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatAssignment) error
	DeleteByMapping(ctx context.Context, exec sqlx.ExtContext, mappingID string) (int, error)
}

// SeatService numbers students inside a mapped room and issues their exam
// numbers. Seat order follows the stored group member order, so regenerating
// seats for the same group yields the same layout.
type SeatService struct {
	exams    seatExamReader
	mappings seatMappingReader
	groups   seatGroupReader
	rooms    seatRoomReader
	seats    seatRepository
	tx       txProvider
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSeatService wires seat dependencies.
func NewSeatService(
	exams seatExamReader,
	mappings seatMappingReader,
	groups seatGroupReader,
	rooms seatRoomReader,
	seats seatRepository,
	tx txProvider,
	metrics *MetricsService,
	logger *zap.Logger,
) *SeatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeatService{
		exams:    exams,
		mappings: mappings,
		groups:   groups,
		rooms:    rooms,
		seats:    seats,
		tx:       tx,
		metrics:  metrics,
		logger:   logger,
	}
}

// AssignSeats fills the mapped room with contiguous seats 1..N in group
// member order. The call is idempotent: when seats already exist they are
// returned untouched and ResetSeats must be used to regenerate them.
func (s *SeatService) AssignSeats(ctx context.Context, mappingID string) ([]models.SeatAssignment, error) {
	mapping, session, exam, err := s.loadMapping(ctx, mappingID)
	if err != nil {
		return nil, err
	}
	if mapping.GroupID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mapping has no seating group attached")
	}

	existing, err := s.seats.ListByMapping(ctx, mapping.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seat assignments")
	}
	if len(existing) > 0 {
		return existing, nil
	}

	group, err := s.groups.FindByID(ctx, *mapping.GroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seating group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seating group")
	}
	members, err := s.groups.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group members")
	}
	if len(members) == 0 {
		return []models.SeatAssignment{}, nil
	}

	room, err := s.rooms.FindByID(ctx, mapping.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if len(members) > room.Capacity {
		s.metrics.RecordConflict("capacity")
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("room %s holds %d seats but the group has %d students", room.Code, room.Capacity, len(members)))
	}

	seatedElsewhere, err := s.seats.ListStudentIDsBySession(ctx, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check seated students")
	}
	taken := make(map[string]struct{}, len(seatedElsewhere))
	for _, id := range seatedElsewhere {
		taken[id] = struct{}{}
	}
	for _, member := range members {
		if _, dup := taken[member.StudentID]; dup {
			s.metrics.RecordConflict("seat")
			return nil, appErrors.Clone(appErrors.ErrSeatConflict, fmt.Sprintf("student %s already holds a seat in this session", member.StudentID))
		}
	}

	seats := make([]models.SeatAssignment, 0, len(members))
	for i, member := range members {
		seatNumber := i + 1
		seats = append(seats, models.SeatAssignment{
			MappingID:  mapping.ID,
			StudentID:  member.StudentID,
			SeatNumber: seatNumber,
			ExamNumber: fmt.Sprintf("%s-%s-%02d", exam.Code, group.Code, seatNumber),
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = s.seats.BulkCreate(ctx, tx, seats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist seat assignments")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit seat assignments")
	}
	committed = true

	s.metrics.RecordSeatsAssigned(len(seats))
	s.logger.Info("assigned seats",
		zap.String("mapping_id", mapping.ID),
		zap.String("group_id", group.ID),
		zap.Int("count", len(seats)),
	)
	return s.seats.ListByMapping(ctx, mapping.ID)
}

// ResetSeats deletes every seat of a mapping so AssignSeats can regenerate
// them, typically after the group membership changed.
func (s *SeatService) ResetSeats(ctx context.Context, mappingID string) (int, error) {
	mapping, _, _, err := s.loadMapping(ctx, mappingID)
	if err != nil {
		return 0, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.seats.DeleteByMapping(ctx, tx, mapping.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete seat assignments")
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit seat reset")
	}
	committed = true
	return deleted, nil
}

// ListSeats returns the seats of a mapping ordered by seat number.
func (s *SeatService) ListSeats(ctx context.Context, mappingID string) ([]models.SeatAssignment, error) {
	if mappingID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mappingId is required")
	}
	seats, err := s.seats.ListByMapping(ctx, mappingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seat assignments")
	}
	return seats, nil
}

func (s *SeatService) loadMapping(ctx context.Context, mappingID string) (*models.SessionRoomMapping, *models.ExamSession, *models.Exam, error) {
	if mappingID == "" {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrValidation, "mappingId is required")
	}
	mapping, err := s.mappings.FindByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "mapping not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mapping")
	}
	session, err := s.exams.FindSessionByID(ctx, mapping.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam session")
	}
	exam, err := s.exams.FindByID(ctx, session.ExamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if !exam.Status.Mutable() {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrExamLocked, fmt.Sprintf("exam %s is %s", exam.Code, exam.Status))
	}
	return mapping, session, exam, nil
}
