package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type seatGroupReaderStub struct {
	group   *models.SeatingGroup
	members []models.SeatingGroupMember
}

func (s seatGroupReaderStub) FindByID(ctx context.Context, id string) (*models.SeatingGroup, error) {
	if s.group == nil || s.group.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.group, nil
}

func (s seatGroupReaderStub) ListMembers(ctx context.Context, groupID string) ([]models.SeatingGroupMember, error) {
	return s.members, nil
}

type seatRoomReaderStub struct {
	room *models.PhysicalRoom
}

func (s seatRoomReaderStub) FindByID(ctx context.Context, id string) (*models.PhysicalRoom, error) {
	if s.room == nil || s.room.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.room, nil
}

type seatRepoStub struct {
	seats  []models.SeatAssignment
	seated []string
}

func (s *seatRepoStub) ListByMapping(ctx context.Context, mappingID string) ([]models.SeatAssignment, error) {
	var out []models.SeatAssignment
	for _, seat := range s.seats {
		if seat.MappingID == mappingID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (s *seatRepoStub) ListStudentIDsBySession(ctx context.Context, sessionID string) ([]string, error) {
	return s.seated, nil
}

func (s *seatRepoStub) BulkCreate(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatAssignment) error {
	s.seats = append(s.seats, seats...)
	return nil
}

func (s *seatRepoStub) DeleteByMapping(ctx context.Context, exec sqlx.ExtContext, mappingID string) (int, error) {
	kept := s.seats[:0]
	deleted := 0
	for _, seat := range s.seats {
		if seat.MappingID == mappingID {
			deleted++
			continue
		}
		kept = append(kept, seat)
	}
	s.seats = kept
	return deleted, nil
}

func seatFixtureMembers(groupID string, studentIDs ...string) []models.SeatingGroupMember {
	members := make([]models.SeatingGroupMember, 0, len(studentIDs))
	for i, id := range studentIDs {
		members = append(members, models.SeatingGroupMember{GroupID: groupID, StudentID: id, Position: i + 1})
	}
	return members
}

func TestSeatServiceAssignsContiguousSeatsWithExamNumbers(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	groupID := "g-1"
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	groups := seatGroupReaderStub{
		group:   &models.SeatingGroup{ID: "g-1", ExamID: "exam-1", Code: "G10-01", Grade: 10},
		members: seatFixtureMembers("g-1", "s-001", "s-002", "s-003"),
	}
	rooms := seatRoomReaderStub{room: &models.PhysicalRoom{ID: "r-1", Code: "A101", Capacity: 24}}
	seats := &seatRepoStub{}
	exams := examReaderStub{exam: publishedExam(), sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, groups, rooms, seats, tx, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	assigned, err := svc.AssignSeats(context.Background(), "m-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, assigned, 3)
	assert.Equal(t, 1, assigned[0].SeatNumber)
	assert.Equal(t, "s-001", assigned[0].StudentID)
	assert.Equal(t, "HK2-2026-G10-01-01", assigned[0].ExamNumber)
	assert.Equal(t, "HK2-2026-G10-01-03", assigned[2].ExamNumber)
}

func TestSeatServiceIsIdempotentWhenSeatsExist(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	groupID := "g-1"
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	seats := &seatRepoStub{seats: []models.SeatAssignment{
		{ID: "seat-1", MappingID: "m-1", StudentID: "s-001", SeatNumber: 1, ExamNumber: "HK2-2026-G10-01-01"},
	}}
	exams := examReaderStub{exam: publishedExam(), sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, seatGroupReaderStub{}, seatRoomReaderStub{}, seats, tx, nil, nil)

	assigned, err := svc.AssignSeats(context.Background(), "m-1")
	require.NoError(t, err)
	// No transaction: the existing layout is returned untouched.
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, assigned, 1)
	assert.Equal(t, "seat-1", assigned[0].ID)
}

func TestSeatServiceRejectsOverCapacityGroup(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	groupID := "g-1"
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	groups := seatGroupReaderStub{
		group:   &models.SeatingGroup{ID: "g-1", ExamID: "exam-1", Code: "G10-01", Grade: 10},
		members: seatFixtureMembers("g-1", "s-001", "s-002", "s-003"),
	}
	rooms := seatRoomReaderStub{room: &models.PhysicalRoom{ID: "r-1", Code: "A101", Capacity: 2}}
	exams := examReaderStub{exam: publishedExam(), sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, groups, rooms, &seatRepoStub{}, tx, nil, nil)

	_, err := svc.AssignSeats(context.Background(), "m-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestSeatServiceRejectsStudentSeatedElsewhere(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	groupID := "g-1"
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	groups := seatGroupReaderStub{
		group:   &models.SeatingGroup{ID: "g-1", ExamID: "exam-1", Code: "G10-01", Grade: 10},
		members: seatFixtureMembers("g-1", "s-001", "s-002"),
	}
	rooms := seatRoomReaderStub{room: &models.PhysicalRoom{ID: "r-1", Code: "A101", Capacity: 24}}
	seats := &seatRepoStub{seated: []string{"s-002"}}
	exams := examReaderStub{exam: publishedExam(), sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, groups, rooms, seats, tx, nil, nil)

	_, err := svc.AssignSeats(context.Background(), "m-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSeatConflict.Code, appErrors.FromError(err).Code)
}

func TestSeatServiceRequiresSeatingGroup(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1"},
	}}
	exams := examReaderStub{exam: publishedExam(), sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, seatGroupReaderStub{}, seatRoomReaderStub{}, &seatRepoStub{}, tx, nil, nil)

	_, err := svc.AssignSeats(context.Background(), "m-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatServiceResetDeletesSeats(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	groupID := "g-1"
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	seats := &seatRepoStub{seats: []models.SeatAssignment{
		{MappingID: "m-1", StudentID: "s-001", SeatNumber: 1},
		{MappingID: "m-1", StudentID: "s-002", SeatNumber: 2},
		{MappingID: "m-2", StudentID: "s-009", SeatNumber: 1},
	}}
	exams := examReaderStub{exam: publishedExam(), sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, seatGroupReaderStub{}, seatRoomReaderStub{}, seats, tx, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	deleted, err := svc.ResetSeats(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	require.Len(t, seats.seats, 1)
	assert.Equal(t, "m-2", seats.seats[0].MappingID)
}

func TestSeatServiceRejectsLockedExam(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	exam := publishedExam()
	exam.Status = models.ExamStatusLocked
	groupID := "g-1"
	mappings := &mappingRepoStub{mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID},
	}}
	exams := examReaderStub{exam: exam, sessions: []models.ExamSession{morningSession("sess-1")}}
	svc := NewSeatService(exams, mappings, seatGroupReaderStub{}, seatRoomReaderStub{}, &seatRepoStub{}, tx, nil, nil)

	_, err := svc.AssignSeats(context.Background(), "m-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExamLocked.Code, appErrors.FromError(err).Code)
}
