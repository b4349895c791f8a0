package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
	"github.com/noah-isme/practical-scheduler/pkg/response"
)

type batchService interface {
	CreateBatch(ctx context.Context, req dto.CreateBatchRequest) (*models.Batch, error)
	EditBatchTiming(ctx context.Context, batchID int64, req dto.EditBatchRequest) (*models.Batch, error)
	DeleteBatch(ctx context.Context, batchID int64) error
	AddMembers(ctx context.Context, batchID int64, req dto.AddMembersRequest) (*dto.AddMembersResponse, error)
	RemoveMember(ctx context.Context, batchID int64, regNo string) (*dto.RemoveMemberResponse, error)
	RebuildIndexFor(ctx context.Context, batchID int64) (*dto.RebuildIndexResponse, error)
	VerifyIndex(ctx context.Context) (*models.IndexVerification, error)
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	SuggestNextStart(ctx context.Context, practicalCode, rawDate string) (*dto.SuggestStartResponse, error)
}

// BatchHandler exposes the scheduling mutations.
type BatchHandler struct {
	service batchService
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(service batchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// Create godoc
// @Summary Create a batch
// @Description Schedules a new batch of a practical. An empty startTime appends after the day's latest batch.
// @Tags Batches
// @Accept json
// @Produce json
// @Param code path string true "Practical code"
// @Param payload body dto.CreateBatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /practicals/{code}/batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	req.PracticalCode = strings.TrimSpace(c.Param("code"))

	batch, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// Edit godoc
// @Summary Move a batch
// @Description Changes date, start time, or room. Members are re-checked for conflicts at the new slot.
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path int true "Batch ID"
// @Param payload body dto.EditBatchRequest true "Timing payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches/{id} [patch]
func (h *BatchHandler) Edit(c *gin.Context) {
	id, err := batchIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}

	batch, err := h.service.EditBatchTiming(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batch)
}

// Delete godoc
// @Summary Delete a batch
// @Tags Batches
// @Param id path int true "Batch ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /batches/{id} [delete]
func (h *BatchHandler) Delete(c *gin.Context) {
	id, err := batchIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteBatch(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddMembers godoc
// @Summary Add students to a batch
// @Description All-or-nothing: any conflict rejects the whole request with per-student details.
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path int true "Batch ID"
// @Param payload body dto.AddMembersRequest true "Students"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches/{id}/members [post]
func (h *BatchHandler) AddMembers(c *gin.Context) {
	id, err := batchIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid members payload"))
		return
	}

	res, err := h.service.AddMembers(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// RemoveMember godoc
// @Summary Remove a student from a batch
// @Tags Batches
// @Produce json
// @Param id path int true "Batch ID"
// @Param regNo path string true "Registration number"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/members/{regNo} [delete]
func (h *BatchHandler) RemoveMember(c *gin.Context) {
	id, err := batchIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.RemoveMember(c.Request.Context(), id, c.Param("regNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Reindex godoc
// @Summary Rebuild a batch's assignment index rows
// @Tags Index
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/reindex [post]
func (h *BatchHandler) Reindex(c *gin.Context) {
	id, err := batchIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.RebuildIndexFor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// VerifyIndex godoc
// @Summary Compare the assignment index with batch membership
// @Tags Index
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /index/verify [get]
func (h *BatchHandler) VerifyIndex(c *gin.Context) {
	res, err := h.service.VerifyIndex(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// CheckConflicts godoc
// @Summary Preview conflicts for a slot
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Slot and students"
// @Success 200 {object} response.Envelope
// @Router /conflicts/check [post]
func (h *BatchHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict payload"))
		return
	}
	res, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// NextStart godoc
// @Summary Suggest the next free start for a practical
// @Tags Batches
// @Produce json
// @Param code path string true "Practical code"
// @Param date query string true "Date (dd.mm.yyyy)"
// @Success 200 {object} response.Envelope
// @Router /practicals/{code}/next-start [get]
func (h *BatchHandler) NextStart(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	res, err := h.service.SuggestNextStart(c.Request.Context(), strings.TrimSpace(c.Param("code")), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
