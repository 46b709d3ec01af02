package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type mapperGroupReaderStub struct {
	groups []models.SeatingGroupSummary
}

func (s mapperGroupReaderStub) ListByExamGrade(ctx context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error) {
	return s.groups, nil
}

type mappingRepoStub struct {
	mappings []models.SessionRoomMapping
	slots    []models.MappingSlot
	moved    map[string]string
	deleted  []string
	seq      int
}

func (s *mappingRepoStub) FindByID(ctx context.Context, id string) (*models.SessionRoomMapping, error) {
	for i := range s.mappings {
		if s.mappings[i].ID == id {
			return &s.mappings[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *mappingRepoStub) ListBySession(ctx context.Context, sessionID string) ([]models.SessionRoomMapping, error) {
	var out []models.SessionRoomMapping
	for _, mapping := range s.mappings {
		if mapping.SessionID == sessionID {
			out = append(out, mapping)
		}
	}
	return out, nil
}

func (s *mappingRepoStub) ListSlotsByDate(ctx context.Context, date time.Time) ([]models.MappingSlot, error) {
	var out []models.MappingSlot
	for _, slot := range s.slots {
		if slot.Date.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *mappingRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, mapping *models.SessionRoomMapping) error {
	if mapping.ID == "" {
		s.seq++
		mapping.ID = fmt.Sprintf("m-%d", s.seq)
	}
	s.mappings = append(s.mappings, *mapping)
	return nil
}

func (s *mappingRepoStub) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, mappingID, roomID string) error {
	if s.moved == nil {
		s.moved = make(map[string]string)
	}
	s.moved[mappingID] = roomID
	return nil
}

func (s *mappingRepoStub) DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) (int, error) {
	kept := s.mappings[:0]
	deleted := 0
	for _, mapping := range s.mappings {
		if mapping.SessionID == sessionID {
			deleted++
			continue
		}
		kept = append(kept, mapping)
	}
	s.mappings = kept
	s.deleted = append(s.deleted, sessionID)
	return deleted, nil
}

type roomPoolStub struct {
	rooms        []models.PhysicalRoom
	busy         map[string]bool
	reservations []string
	excludes     []string
	invalidated  int
}

func (s *roomPoolStub) Available(ctx context.Context, session models.ExamSession, minCapacity int) ([]models.PhysicalRoom, error) {
	var out []models.PhysicalRoom
	for _, room := range s.rooms {
		if room.Capacity >= minCapacity {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *roomPoolStub) RoomByID(ctx context.Context, id string) (*models.PhysicalRoom, error) {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return &s.rooms[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *roomPoolStub) Reserve(ctx context.Context, exec sqlx.ExtContext, roomID string, session models.ExamSession, excludeMappingID string) error {
	if s.busy[roomID] {
		return appErrors.Clone(appErrors.ErrRoomConflict, "room already booked")
	}
	s.reservations = append(s.reservations, roomID)
	s.excludes = append(s.excludes, excludeMappingID)
	return nil
}

func (s *roomPoolStub) InvalidateFor(ctx context.Context, session models.ExamSession) {
	s.invalidated++
}

func examDate() time.Time {
	return time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
}

func newMapperService(t *testing.T, groups []models.SeatingGroupSummary, pool *roomPoolStub, repo *mappingRepoStub, sessions []models.ExamSession) (*SlotMapperService, sqlmock.Sqlmock) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	exams := examReaderStub{exam: publishedExam(), sessions: sessions}
	svc := NewSlotMapperService(exams, mapperGroupReaderStub{groups: groups}, repo, pool, tx, nil, nil, nil)
	return svc, mock
}

func groupSummary(id, code string, size int) models.SeatingGroupSummary {
	return models.SeatingGroupSummary{
		SeatingGroup: models.SeatingGroup{ID: id, ExamID: "exam-1", Code: code, Grade: 10, Capacity: size},
		Size:         size,
	}
}

func morningSession(id string) models.ExamSession {
	return models.ExamSession{ID: id, ExamID: "exam-1", Grade: 10, Date: examDate(), StartTime: "07:30", EndTime: "09:00"}
}

func TestSlotMapperAutoMapsGroupsToSmallestSufficientRoom(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 20},
		{ID: "r-2", Code: "A102", Capacity: 30},
	}}
	repo := &mappingRepoStub{}
	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
		groupSummary("g-2", "G10-02", 24),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.MapSessionRooms(context.Background(), "sess-1", dto.MapSessionRequest{Auto: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, result.Mappings, 2)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, "r-1", result.Mappings[0].RoomID)
	assert.Equal(t, "r-2", result.Mappings[1].RoomID)
	assert.Equal(t, []string{"r-1", "r-2"}, pool.reservations)
	assert.Equal(t, 1, pool.invalidated)
}

func TestSlotMapperAutoRollsBackWhenAnyGroupUnplaceable(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 20},
	}}
	repo := &mappingRepoStub{}
	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
		groupSummary("g-2", "G10-02", 25),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := svc.MapSessionRooms(context.Background(), "sess-1", dto.MapSessionRequest{Auto: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, result.Mappings)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "g-2", result.Conflicts[0].GroupID)
	assert.Zero(t, pool.invalidated)
}

func TestSlotMapperAutoSkipsBusyRooms(t *testing.T) {
	pool := &roomPoolStub{
		rooms: []models.PhysicalRoom{
			{ID: "r-1", Code: "A101", Capacity: 20},
			{ID: "r-2", Code: "A102", Capacity: 20},
		},
		busy: map[string]bool{"r-1": true},
	}
	repo := &mappingRepoStub{}
	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.MapSessionRooms(context.Background(), "sess-1", dto.MapSessionRequest{Auto: true})
	require.NoError(t, err)

	require.Len(t, result.Mappings, 1)
	assert.Equal(t, "r-2", result.Mappings[0].RoomID)
}

func TestSlotMapperExplicitRejectsDuplicateRoom(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 30},
	}}
	repo := &mappingRepoStub{}
	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
		groupSummary("g-2", "G10-02", 18),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := svc.MapSessionRooms(context.Background(), "sess-1", dto.MapSessionRequest{Explicit: []dto.GroupRoomPair{
		{GroupID: "g-1", RoomID: "r-1"},
		{GroupID: "g-2", RoomID: "r-1"},
	}})
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "g-2", result.Conflicts[0].GroupID)
	assert.Empty(t, result.Mappings)
}

func TestSlotMapperExplicitRejectsUndersizedRoom(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 10},
	}}
	repo := &mappingRepoStub{}
	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := svc.MapSessionRooms(context.Background(), "sess-1", dto.MapSessionRequest{Explicit: []dto.GroupRoomPair{
		{GroupID: "g-1", RoomID: "r-1"},
	}})
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0].Reason, "holds 10 seats")
}

func TestSlotMapperMapExamSkipsMappedSessions(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 30},
		{ID: "r-2", Code: "A102", Capacity: 30},
	}}
	groupID := "g-0"
	repo := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-old", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	sessions := []models.ExamSession{morningSession("sess-1"), morningSession("sess-2")}
	sessions[1].StartTime = "09:30"
	sessions[1].EndTime = "11:00"

	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
	}, pool, repo, sessions)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.MapExamRooms(context.Background(), "exam-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Sessions, 2)
	assert.True(t, result.Sessions[0].Skipped)
	assert.Len(t, result.Sessions[1].Mappings, 1)
}

func TestSlotMapperMoveMappingChecksCapacityAndExcludesSelf(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 30},
		{ID: "r-2", Code: "A102", Capacity: 30},
		{ID: "r-small", Code: "B201", Capacity: 5},
	}}
	groupID := "g-1"
	repo := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	svc, mock := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	_, err := svc.MoveMapping(context.Background(), "m-1", "r-small")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)

	mock.ExpectBegin()
	mock.ExpectCommit()

	moved, err := svc.MoveMapping(context.Background(), "m-1", "r-2")
	require.NoError(t, err)
	assert.Equal(t, "r-2", moved.RoomID)
	assert.Equal(t, "r-2", repo.moved["m-1"])
	require.Len(t, pool.excludes, 1)
	assert.Equal(t, "m-1", pool.excludes[0])
}

func TestSlotMapperMoveMappingRejectsBusyDestination(t *testing.T) {
	pool := &roomPoolStub{rooms: []models.PhysicalRoom{
		{ID: "r-1", Code: "A101", Capacity: 30},
		{ID: "r-2", Code: "A102", Capacity: 30},
	}}
	groupID := "g-1"
	repo := &mappingRepoStub{
		mappings: []models.SessionRoomMapping{
			{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
		},
		slots: []models.MappingSlot{
			{MappingID: "m-other", SessionID: "sess-9", RoomID: "r-2", Date: examDate(), StartTime: "08:00", EndTime: "09:30"},
		},
	}
	svc, _ := newMapperService(t, []models.SeatingGroupSummary{
		groupSummary("g-1", "G10-01", 18),
	}, pool, repo, []models.ExamSession{morningSession("sess-1")})

	_, err := svc.MoveMapping(context.Background(), "m-1", "r-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, pool.reservations)
}

func TestSlotMapperResetSessionRooms(t *testing.T) {
	pool := &roomPoolStub{}
	groupID := "g-1"
	repo := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
		{ID: "m-2", SessionID: "sess-2", RoomID: "r-1", GroupID: &groupID},
	}}
	svc, mock := newMapperService(t, nil, pool, repo, []models.ExamSession{morningSession("sess-1")})

	mock.ExpectBegin()
	mock.ExpectCommit()

	deleted, err := svc.ResetSessionRooms(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	require.Len(t, repo.mappings, 1)
	assert.Equal(t, "m-2", repo.mappings[0].ID)
}

func TestSlotMapperRejectsLockedExam(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	exam := publishedExam()
	exam.Status = models.ExamStatusArchived
	exams := examReaderStub{exam: exam, sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSlotMapperService(exams, mapperGroupReaderStub{}, &mappingRepoStub{}, &roomPoolStub{}, tx, nil, nil, nil)

	_, err := svc.MapSessionRooms(context.Background(), "sess-1", dto.MapSessionRequest{Auto: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExamLocked.Code, appErrors.FromError(err).Code)
}
