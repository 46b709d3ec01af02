package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NKT-Anh/datn-eduManager-sub003/internal/dto"
	"github.com/NKT-Anh/datn-eduManager-sub003/internal/models"
)

type fakePartitioner struct {
	result  *dto.PartitionResult
	err     error
	groups  []models.SeatingGroupSummary
	lastReq dto.PartitionRequest
}

func (f *fakePartitioner) PartitionGroups(_ context.Context, req dto.PartitionRequest) (*dto.PartitionResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakePartitioner) ListGroups(_ context.Context, examID string, grade int) ([]models.SeatingGroupSummary, error) {
	return f.groups, nil
}

func TestGroupHandlerPartitionUsesPathExamID(t *testing.T) {
	fake := &fakePartitioner{result: &dto.PartitionResult{Placed: 40}}
	handler := NewGroupHandler(fake)

	rec := postJSON(t, handler.Partition, "/exams/exam-1/groups", `{"grade":10}`, gin.Params{{Key: "id", Value: "exam-1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "exam-1", fake.lastReq.ExamID)
	assert.Equal(t, 10, fake.lastReq.Grade)
}

func TestGroupHandlerListRequiresGrade(t *testing.T) {
	handler := NewGroupHandler(&fakePartitioner{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exams/exam-1/groups", nil)
	c.Params = gin.Params{{Key: "id", Value: "exam-1"}}

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupHandlerListReturnsGroups(t *testing.T) {
	fake := &fakePartitioner{groups: []models.SeatingGroupSummary{
		{SeatingGroup: models.SeatingGroup{ID: "g-1", Code: "G10-01"}, Size: 20},
		{SeatingGroup: models.SeatingGroup{ID: "g-2", Code: "G10-02"}, Size: 18},
	}}
	handler := NewGroupHandler(fake)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exams/exam-1/groups?grade=10", nil)
	c.Params = gin.Params{{Key: "id", Value: "exam-1"}}

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.SeatingGroupSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
	assert.Equal(t, "G10-01", envelope.Data[0].Code)
}
