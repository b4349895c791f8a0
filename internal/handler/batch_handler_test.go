package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

type fakeBatchSrv struct {
	createReq  dto.CreateBatchRequest
	createErr  error
	addErr     error
	deletedID  int64
	removedReg string
}

func (f *fakeBatchSrv) CreateBatch(_ context.Context, req dto.CreateBatchRequest) (*models.Batch, error) {
	f.createReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Batch{ID: 7, PracticalCode: req.PracticalCode, BatchNo: 1, Date: req.Date, StartTime: "09:00", EndTime: "12:00"}, nil
}

func (f *fakeBatchSrv) EditBatchTiming(_ context.Context, id int64, _ dto.EditBatchRequest) (*models.Batch, error) {
	return &models.Batch{ID: id}, nil
}

func (f *fakeBatchSrv) DeleteBatch(_ context.Context, id int64) error {
	f.deletedID = id
	return nil
}

func (f *fakeBatchSrv) AddMembers(_ context.Context, id int64, req dto.AddMembersRequest) (*dto.AddMembersResponse, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &dto.AddMembersResponse{BatchID: id, Added: req.RegNos, MemberCount: len(req.RegNos)}, nil
}

func (f *fakeBatchSrv) RemoveMember(_ context.Context, id int64, regNo string) (*dto.RemoveMemberResponse, error) {
	f.removedReg = regNo
	return &dto.RemoveMemberResponse{BatchID: id, RegNo: regNo, Removed: true}, nil
}

func (f *fakeBatchSrv) RebuildIndexFor(_ context.Context, id int64) (*dto.RebuildIndexResponse, error) {
	return &dto.RebuildIndexResponse{BatchID: id, Entries: 3}, nil
}

func (f *fakeBatchSrv) VerifyIndex(context.Context) (*models.IndexVerification, error) {
	return &models.IndexVerification{Consistent: true}, nil
}

func (f *fakeBatchSrv) CheckConflicts(_ context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	return &dto.ConflictCheckResponse{Date: req.Date, StartTime: req.StartTime, Clean: true}, nil
}

func (f *fakeBatchSrv) SuggestNextStart(_ context.Context, code, date string) (*dto.SuggestStartResponse, error) {
	return &dto.SuggestStartResponse{PracticalCode: code, Date: date, StartTime: "09:00", EndTime: "12:00"}, nil
}

func newBatchRouter(svc batchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBatchHandler(svc)
	r := gin.New()
	r.POST("/practicals/:code/batches", h.Create)
	r.GET("/practicals/:code/next-start", h.NextStart)
	r.DELETE("/batches/:id", h.Delete)
	r.POST("/batches/:id/members", h.AddMembers)
	r.DELETE("/batches/:id/members/:regNo", h.RemoveMember)
	return r
}

func TestBatchHandlerCreateUsesPathCode(t *testing.T) {
	svc := &fakeBatchSrv{}
	r := newBatchRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/practicals/P1/batches", jsonBody(t, map[string]string{"date": "01.03.2025", "practicalCode": "IGNORED"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "P1", svc.createReq.PracticalCode)
	var batch models.Batch
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &batch))
	assert.Equal(t, int64(7), batch.ID)
}

func TestBatchHandlerCreateMapsRuleViolation(t *testing.T) {
	r := newBatchRouter(&fakeBatchSrv{createErr: appErrors.Clone(appErrors.ErrRuleViolation, "Max 3 batches per day for a practical.")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/practicals/P1/batches", jsonBody(t, map[string]string{"date": "01.03.2025"}))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RULE_VIOLATION", env.Error.Code)
	assert.Equal(t, "Max 3 batches per day for a practical.", env.Error.Message)
}

func TestBatchHandlerAddMembersConflictCarriesDetails(t *testing.T) {
	report := models.ConflictReport{"S01": {{PracticalCode: "P1", Date: "01.03.2025", StartTime: "09:00", EndTime: "12:00"}}}
	r := newBatchRouter(&fakeBatchSrv{addErr: appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "Conflict(s) detected. No students were added."), report)})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batches/3/members", jsonBody(t, dto.AddMembersRequest{RegNos: []string{"S01"}}))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var raw struct {
		Error struct {
			Code    string                   `json:"code"`
			Details map[string][]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "CONFLICT", raw.Error.Code)
	assert.Len(t, raw.Error.Details["S01"], 1)
}

func TestBatchHandlerRejectsBadID(t *testing.T) {
	svc := &fakeBatchSrv{}
	r := newBatchRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/batches/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/batches/12", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(12), svc.deletedID)
}

func TestBatchHandlerRemoveMemberAndNextStart(t *testing.T) {
	svc := &fakeBatchSrv{}
	r := newBatchRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/batches/4/members/S09", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "S09", svc.removedReg)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/practicals/P1/next-start", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/practicals/P1/next-start?date=01.03.2025", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var res dto.SuggestStartResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "09:00", res.StartTime)
}
