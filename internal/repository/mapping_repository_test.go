package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMappingRepositoryListBySession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "session_id", "room_id", "group_id", "main_teacher_id", "assistant_teacher_id", "created_at", "updated_at"}).
		AddRow("m-1", "sess-1", "r-1", "g-1", nil, nil, time.Now(), time.Now()).
		AddRow("m-2", "sess-1", "r-2", "g-2", "t-1", nil, time.Now(), time.Now())
	mock.ExpectQuery(`FROM session_room_mappings WHERE session_id = \$1 ORDER BY created_at ASC, id ASC`).
		WithArgs("sess-1").
		WillReturnRows(rows)

	mappings, err := repo.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "r-2", mappings[1].RoomID)
	require.NotNil(t, mappings[1].MainTeacherID)
	assert.Equal(t, "t-1", *mappings[1].MainTeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryOverlapExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)
	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("r-1", date, "07:30", "09:00", "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.OverlapExists(context.Background(), nil, "r-1", date, "07:30", "09:00", "m-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectExec(`INSERT INTO session_room_mappings`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	groupID := "g-1"
	mapping := models.SessionRoomMapping{SessionID: "sess-1", RoomID: "r-1", GroupID: &groupID}
	require.NoError(t, repo.Create(context.Background(), nil, &mapping))
	assert.NotEmpty(t, mapping.ID)
	assert.False(t, mapping.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryClearInvigilatorsByExam(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectExec(`UPDATE session_room_mappings m`).
		WithArgs("exam-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cleared, err := repo.ClearInvigilatorsByExam(context.Background(), nil, "exam-1")
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryDeleteBySession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectExec(`DELETE FROM session_room_mappings WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteBySession(context.Background(), nil, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryCountTeacherAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "count"}).
		AddRow("t-1", 3).
		AddRow("t-2", 1)
	mock.ExpectQuery(`GROUP BY teacher_id`).
		WithArgs("exam-1").
		WillReturnRows(rows)

	counts, err := repo.CountTeacherAssignments(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 3, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
