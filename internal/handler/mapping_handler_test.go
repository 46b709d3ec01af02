package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
	appErrors "github.com/NKT-Anh/datn-eduManager-sub003/pkg/errors"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

type fakeSlotMapper struct {
	sessionResult *dto.MapSessionResult
	sessionErr    error
	examResult    *dto.MapExamResult
	moved         *models.SessionRoomMapping
	moveErr       error
	deleted       int
	lastSessionID string
}

func (f *fakeSlotMapper) MapSessionRooms(_ context.Context, sessionID string, req dto.MapSessionRequest) (*dto.MapSessionResult, error) {
	f.lastSessionID = sessionID
	return f.sessionResult, f.sessionErr
}

func (f *fakeSlotMapper) MapExamRooms(_ context.Context, examID string) (*dto.MapExamResult, error) {
	return f.examResult, nil
}

func (f *fakeSlotMapper) MoveMapping(_ context.Context, mappingID, newRoomID string) (*models.SessionRoomMapping, error) {
	return f.moved, f.moveErr
}

func (f *fakeSlotMapper) ResetSessionRooms(_ context.Context, sessionID string) (int, error) {
	return f.deleted, nil
}

func postJSON(t *testing.T, handlerFunc gin.HandlerFunc, path, body string, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	handlerFunc(c)
	return rec
}

func TestMappingHandlerMapSessionCreated(t *testing.T) {
	fake := &fakeSlotMapper{sessionResult: &dto.MapSessionResult{Mappings: []models.SessionRoomMapping{
		{ID: "m-1", SessionID: "sess-1", RoomID: "r-1"},
	}}}
	handler := NewMappingHandler(fake)

	rec := postJSON(t, handler.MapSession, "/sessions/sess-1/rooms", `{"auto":true}`, gin.Params{{Key: "id", Value: "sess-1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sess-1", fake.lastSessionID)
}

func TestMappingHandlerMapSessionConflict(t *testing.T) {
	fake := &fakeSlotMapper{sessionResult: &dto.MapSessionResult{Conflicts: []models.MappingConflict{
		{SessionID: "sess-1", GroupID: "g-1", Reason: "no available room with capacity >= 30"},
	}}}
	handler := NewMappingHandler(fake)

	rec := postJSON(t, handler.MapSession, "/sessions/sess-1/rooms", `{"auto":true}`, gin.Params{{Key: "id", Value: "sess-1"}})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMappingHandlerMapSessionRejectsBadJSON(t *testing.T) {
	handler := NewMappingHandler(&fakeSlotMapper{})

	rec := postJSON(t, handler.MapSession, "/sessions/sess-1/rooms", `{"auto":`, gin.Params{{Key: "id", Value: "sess-1"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error["code"])
}

func TestMappingHandlerMapSessionLockedExam(t *testing.T) {
	fake := &fakeSlotMapper{sessionErr: appErrors.Clone(appErrors.ErrExamLocked, "exam HK2-2026 is locked")}
	handler := NewMappingHandler(fake)

	rec := postJSON(t, handler.MapSession, "/sessions/sess-1/rooms", `{"auto":true}`, gin.Params{{Key: "id", Value: "sess-1"}})

	assert.Equal(t, appErrors.ErrExamLocked.Status, rec.Code)
}

func TestMappingHandlerMoveRejectsMissingRoom(t *testing.T) {
	handler := NewMappingHandler(&fakeSlotMapper{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/mappings/m-1/room", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "m-1"}}

	handler.Move(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
