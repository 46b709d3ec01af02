package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type mapperExamReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	FindSessionByID(ctx context.Context, id string) (*models.ExamSession, error)
	ListSessionsByExam(ctx context.Context, examID string) ([]models.ExamSession, error)
}

type mapperGroupReader interface {
	ListByExamGrade(ctx context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error)
}

type mapperMappingRepository interface {
	FindByID(ctx context.Context, id string) (*models.SessionRoomMapping, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.SessionRoomMapping, error)
	ListSlotsByDate(ctx context.Context, date time.Time) ([]models.MappingSlot, error)
	Create(ctx context.Context, exec sqlx.ExtContext, mapping *models.SessionRoomMapping) error
	UpdateRoom(ctx context.Context, exec sqlx.ExtContext, mappingID, roomID string) error
	DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) (int, error)
}

type roomPool interface {
	Available(ctx context.Context, session models.ExamSession, minCapacity int) ([]models.PhysicalRoom, error)
	RoomByID(ctx context.Context, id string) (*models.PhysicalRoom, error)
	Reserve(ctx context.Context, exec sqlx.ExtContext, roomID string, session models.ExamSession, excludeMappingID string) error
	InvalidateFor(ctx context.Context, session models.ExamSession)
}

// SlotMapperService binds seating groups to physical rooms per session.
// A single-session call is all-or-nothing; the exam-wide bulk call records
// per-session outcomes instead so one conflict cannot sink the whole exam.
type SlotMapperService struct {
	exams     mapperExamReader
	groups    mapperGroupReader
	mappings  mapperMappingRepository
	pool      roomPool
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSlotMapperService wires mapper dependencies.
func NewSlotMapperService(
	exams mapperExamReader,
	groups mapperGroupReader,
	mappings mapperMappingRepository,
	pool roomPool,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SlotMapperService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotMapperService{
		exams:     exams,
		groups:    groups,
		mappings:  mappings,
		pool:      pool,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// MapSessionRooms maps every unmapped seating group of the session onto a
// room. When any group cannot be placed the whole batch rolls back and the
// conflicts are reported.
func (s *SlotMapperService) MapSessionRooms(ctx context.Context, sessionID string, req dto.MapSessionRequest) (*dto.MapSessionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}
	if !req.Auto && len(req.Explicit) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either auto mode or an explicit group-room list is required")
	}

	session, _, err := s.loadMutableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Auto {
		return s.mapSessionAuto(ctx, *session)
	}
	return s.mapSessionExplicit(ctx, *session, req.Explicit)
}

// MapExamRooms walks every session of the exam chronologically. Sessions
// with existing mappings are skipped so interrupted runs can be resumed.
func (s *SlotMapperService) MapExamRooms(ctx context.Context, examID string) (*dto.MapExamResult, error) {
	exam, err := s.loadMutableExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.exams.ListSessionsByExam(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam sessions")
	}

	result := &dto.MapExamResult{ExamID: exam.ID}
	for _, session := range sessions {
		outcome := dto.SessionOutcome{
			SessionID: session.ID,
			Date:      session.Date.Format("2006-01-02"),
			StartTime: session.StartTime,
		}

		existing, listErr := s.mappings.ListBySession(ctx, session.ID)
		if listErr != nil {
			outcome.Error = "failed to load existing mappings"
			result.Failed++
			result.Sessions = append(result.Sessions, outcome)
			continue
		}
		if len(existing) > 0 {
			outcome.Skipped = true
			result.Skipped++
			result.Sessions = append(result.Sessions, outcome)
			continue
		}

		sessionResult, mapErr := s.mapSessionAuto(ctx, session)
		switch {
		case mapErr != nil:
			outcome.Error = mapErr.Error()
			result.Failed++
		case len(sessionResult.Conflicts) > 0:
			outcome.Conflicts = sessionResult.Conflicts
			result.Failed++
		default:
			outcome.Mappings = sessionResult.Mappings
			result.Succeeded++
		}
		result.Sessions = append(result.Sessions, outcome)
	}
	return result, nil
}

// MoveMapping relocates one mapping to a different room after validating the
// destination against the same overlap and capacity rules. Seat assignments
// stay bound to the mapping and move with it.
func (s *SlotMapperService) MoveMapping(ctx context.Context, mappingID, newRoomID string) (*models.SessionRoomMapping, error) {
	if mappingID == "" || newRoomID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mappingId and roomId are required")
	}
	mapping, err := s.mappings.FindByID(ctx, mappingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mapping not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mapping")
	}
	session, _, err := s.loadMutableSession(ctx, mapping.SessionID)
	if err != nil {
		return nil, err
	}

	room, err := s.pool.RoomByID(ctx, newRoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if mapping.GroupID != nil {
		size, sizeErr := s.groupSize(ctx, session, *mapping.GroupID)
		if sizeErr != nil {
			return nil, sizeErr
		}
		if size > room.Capacity {
			s.metrics.RecordConflict("capacity")
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("room %s holds %d seats but the group has %d students", room.Code, room.Capacity, size))
		}
	}

	// Cheap in-memory check before taking the row lock; Reserve re-checks
	// inside the transaction and stays authoritative.
	daySlots, err := s.mappings.ListSlotsByDate(ctx, session.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}
	if !roomIsFree(newRoomID, *session, daySlots, mapping.ID) {
		s.metrics.RecordConflict("room")
		return nil, appErrors.Clone(appErrors.ErrRoomConflict, fmt.Sprintf("room %s already booked between %s and %s", room.Code, session.StartTime, session.EndTime))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.pool.Reserve(ctx, tx, newRoomID, *session, mapping.ID); err != nil {
		return nil, err
	}
	if err = s.mappings.UpdateRoom(ctx, tx, mapping.ID, newRoomID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move mapping")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit move")
		return nil, err
	}

	s.pool.InvalidateFor(ctx, *session)
	mapping.RoomID = newRoomID
	return mapping, nil
}

// ResetSessionRooms removes every mapping of an unlocked session so the
// allocation can be regenerated. Seats cascade with the mappings.
func (s *SlotMapperService) ResetSessionRooms(ctx context.Context, sessionID string) (int, error) {
	session, _, err := s.loadMutableSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.mappings.DeleteBySession(ctx, tx, session.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mappings")
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reset")
		return 0, err
	}

	s.pool.InvalidateFor(ctx, *session)
	return deleted, nil
}

func (s *SlotMapperService) mapSessionAuto(ctx context.Context, session models.ExamSession) (*dto.MapSessionResult, error) {
	groups, err := s.pendingGroups(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return &dto.MapSessionResult{}, nil
	}

	rooms, err := s.pool.Available(ctx, session, 0)
	if err != nil {
		return nil, err
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

	var created []models.SessionRoomMapping
	var conflicts []models.MappingConflict
	used := make(map[string]struct{})

	for _, group := range groups {
		placed := false
		for _, room := range rooms {
			if _, taken := used[room.ID]; taken {
				continue
			}
			if room.Capacity < group.Size {
				continue
			}
			reserveErr := s.pool.Reserve(ctx, tx, room.ID, session, "")
			if reserveErr != nil {
				var appErr *appErrors.Error
				if errors.As(reserveErr, &appErr) && appErr.Code == appErrors.ErrRoomConflict.Code {
					// Lost the race for this room; try the next candidate.
					used[room.ID] = struct{}{}
					continue
				}
				return nil, reserveErr
			}
			groupID := group.ID
			mapping := models.SessionRoomMapping{SessionID: session.ID, RoomID: room.ID, GroupID: &groupID}
			if createErr := s.mappings.Create(ctx, tx, &mapping); createErr != nil {
				return nil, appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mapping")
			}
			created = append(created, mapping)
			used[room.ID] = struct{}{}
			placed = true
			break
		}
		if !placed {
			conflicts = append(conflicts, models.MappingConflict{
				SessionID: session.ID,
				GroupID:   group.ID,
				Reason:    fmt.Sprintf("no available room with capacity >= %d", group.Size),
			})
		}
	}

	if len(conflicts) > 0 {
		s.metrics.RecordConflict("room")
		return &dto.MapSessionResult{Conflicts: conflicts}, nil
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit mappings")
	}
	committed = true
	s.metrics.RecordMappingsCreated(len(created))
	s.pool.InvalidateFor(ctx, session)
	return &dto.MapSessionResult{Mappings: created}, nil
}

func (s *SlotMapperService) mapSessionExplicit(ctx context.Context, session models.ExamSession, pairs []dto.GroupRoomPair) (*dto.MapSessionResult, error) {
	groups, err := s.pendingGroups(ctx, session)
	if err != nil {
		return nil, err
	}
	bySize := make(map[string]int, len(groups))
	for _, group := range groups {
		bySize[group.ID] = group.Size
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

	var created []models.SessionRoomMapping
	var conflicts []models.MappingConflict
	usedRooms := make(map[string]struct{})
	usedGroups := make(map[string]struct{})

	for _, pair := range pairs {
		conflict := func(reason string) {
			conflicts = append(conflicts, models.MappingConflict{
				SessionID: session.ID,
				GroupID:   pair.GroupID,
				RoomID:    pair.RoomID,
				Reason:    reason,
			})
		}

		if _, dup := usedGroups[pair.GroupID]; dup {
			conflict("group appears twice in the request")
			continue
		}
		if _, dup := usedRooms[pair.RoomID]; dup {
			conflict("room appears twice in the request")
			continue
		}
		size, known := bySize[pair.GroupID]
		if !known {
			conflict("group not found or already mapped for this session")
			continue
		}

		room, roomErr := s.pool.RoomByID(ctx, pair.RoomID)
		if roomErr != nil {
			if errors.Is(roomErr, sql.ErrNoRows) {
				conflict("room not found")
				continue
			}
			return nil, appErrors.Wrap(roomErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
		if room.Capacity < size {
			conflict(fmt.Sprintf("room %s holds %d seats but the group has %d students", room.Code, room.Capacity, size))
			continue
		}

		if reserveErr := s.pool.Reserve(ctx, tx, pair.RoomID, session, ""); reserveErr != nil {
			var appErr *appErrors.Error
			if errors.As(reserveErr, &appErr) && appErr.Code == appErrors.ErrRoomConflict.Code {
				conflict("room already booked for an overlapping session")
				continue
			}
			return nil, reserveErr
		}

		groupID := pair.GroupID
		mapping := models.SessionRoomMapping{SessionID: session.ID, RoomID: pair.RoomID, GroupID: &groupID}
		if createErr := s.mappings.Create(ctx, tx, &mapping); createErr != nil {
			return nil, appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mapping")
		}
		created = append(created, mapping)
		usedRooms[pair.RoomID] = struct{}{}
		usedGroups[pair.GroupID] = struct{}{}
	}

	if len(conflicts) > 0 {
		s.metrics.RecordConflict("room")
		return &dto.MapSessionResult{Conflicts: conflicts}, nil
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit mappings")
	}
	committed = true
	s.metrics.RecordMappingsCreated(len(created))
	s.pool.InvalidateFor(ctx, session)
	return &dto.MapSessionResult{Mappings: created}, nil
}

// pendingGroups returns non-empty seating groups of the session's grade that
// do not yet hold a mapping for this session, in group code order.
func (s *SlotMapperService) pendingGroups(ctx context.Context, session models.ExamSession) ([]models.SeatingGroupSummary, error) {
	groups, err := s.groups.ListByExamGrade(ctx, session.ExamID, session.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seating groups")
	}
	existing, err := s.mappings.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list existing mappings")
	}
	mapped := make(map[string]struct{}, len(existing))
	for _, mapping := range existing {
		if mapping.GroupID != nil {
			mapped[*mapping.GroupID] = struct{}{}
		}
	}

	pending := make([]models.SeatingGroupSummary, 0, len(groups))
	for _, group := range groups {
		if group.Size == 0 {
			continue
		}
		if _, done := mapped[group.ID]; done {
			continue
		}
		pending = append(pending, group)
	}
	return pending, nil
}

func (s *SlotMapperService) groupSize(ctx context.Context, session *models.ExamSession, groupID string) (int, error) {
	groups, err := s.groups.ListByExamGrade(ctx, session.ExamID, session.Grade)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seating groups")
	}
	for _, group := range groups {
		if group.ID == groupID {
			return group.Size, nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrNotFound, "seating group not found")
}

func (s *SlotMapperService) loadMutableExam(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if !exam.Status.Mutable() {
		return nil, appErrors.Clone(appErrors.ErrExamLocked, fmt.Sprintf("exam %s is %s", exam.Code, exam.Status))
	}
	return exam, nil
}

func (s *SlotMapperService) loadMutableSession(ctx context.Context, sessionID string) (*models.ExamSession, *models.Exam, error) {
	session, err := s.exams.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam session")
	}
	exam, err := s.loadMutableExam(ctx, session.ExamID)
	if err != nil {
		return nil, nil, err
	}
	return session, exam, nil
}
