package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	"github.com/noah-isme/practical-scheduler/internal/models"
	"github.com/noah-isme/practical-scheduler/pkg/response"
)

type overviewService interface {
	ListPracticals(filter models.PracticalFilter) []models.PracticalListing
	Progress(ctx context.Context, filter models.PracticalFilter) ([]models.PracticalProgress, error)
	Overview(ctx context.Context, practicalCode string) (*models.PracticalOverview, error)
	ListBatches(ctx context.Context, practicalCode, rawDate string) ([]models.Batch, error)
	Roster(ctx context.Context, batchID int64) (*dto.RosterResponse, error)
	Unassigned(ctx context.Context, practicalCode string) ([]models.Enrollment, error)
}

// PracticalHandler serves read-only views of practicals and their batches.
type PracticalHandler struct {
	service overviewService
}

// NewPracticalHandler constructs the handler.
func NewPracticalHandler(service overviewService) *PracticalHandler {
	return &PracticalHandler{service: service}
}

func practicalFilter(c *gin.Context) models.PracticalFilter {
	return models.PracticalFilter{
		DeptCode: strings.TrimSpace(c.Query("dept")),
		Semester: strings.TrimSpace(c.Query("semester")),
		Text:     strings.TrimSpace(c.Query("q")),
	}
}

// List godoc
// @Summary List practicals
// @Tags Practicals
// @Produce json
// @Param dept query string false "Department code"
// @Param semester query string false "Semester"
// @Param q query string false "Subject code or name contains"
// @Success 200 {object} response.Envelope
// @Router /practicals [get]
func (h *PracticalHandler) List(c *gin.Context) {
	items := h.service.ListPracticals(practicalFilter(c))
	response.OK(c, items, map[string]interface{}{"total": len(items)})
}

// Progress godoc
// @Summary Finalised or pending status per practical
// @Tags Practicals
// @Produce json
// @Param dept query string false "Department code"
// @Param semester query string false "Semester"
// @Param q query string false "Subject code or name contains"
// @Success 200 {object} response.Envelope
// @Router /practicals/progress [get]
func (h *PracticalHandler) Progress(c *gin.Context) {
	items, err := h.service.Progress(c.Request.Context(), practicalFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	finalised := 0
	for _, p := range items {
		if p.Finalised {
			finalised++
		}
	}
	response.OK(c, items, map[string]interface{}{"total": len(items), "finalised": finalised})
}

// Overview godoc
// @Summary Enrolment progress and batches of a practical
// @Tags Practicals
// @Produce json
// @Param code path string true "Practical code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /practicals/{code}/overview [get]
func (h *PracticalHandler) Overview(c *gin.Context) {
	res, err := h.service.Overview(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Batches godoc
// @Summary List batches of a practical
// @Tags Practicals
// @Produce json
// @Param code path string true "Practical code"
// @Param date query string false "Only this date (dd.mm.yyyy)"
// @Success 200 {object} response.Envelope
// @Router /practicals/{code}/batches [get]
func (h *PracticalHandler) Batches(c *gin.Context) {
	res, err := h.service.ListBatches(c.Request.Context(), strings.TrimSpace(c.Param("code")), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Unassigned godoc
// @Summary Enrolled students not yet placed in a batch
// @Tags Practicals
// @Produce json
// @Param code path string true "Practical code"
// @Success 200 {object} response.Envelope
// @Router /practicals/{code}/unassigned [get]
func (h *PracticalHandler) Unassigned(c *gin.Context) {
	res, err := h.service.Unassigned(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, map[string]interface{}{"total": len(res)})
}

// Roster godoc
// @Summary Batch roster
// @Tags Batches
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /batches/{id}/members [get]
func (h *PracticalHandler) Roster(c *gin.Context) {
	id, err := batchIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Roster(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
