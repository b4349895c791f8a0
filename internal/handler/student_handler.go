package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/practical-scheduler/internal/dto"
	appErrors "github.com/noah-isme/practical-scheduler/pkg/errors"
	"github.com/noah-isme/practical-scheduler/pkg/response"
)

type timetableService interface {
	StudentAssignments(ctx context.Context, regNo string) (*dto.StudentTimetable, error)
	BulkStudentAssignments(ctx context.Context, regNos []string) ([]dto.StudentTimetable, error)
}

// StudentHandler serves per-student timetables.
type StudentHandler struct {
	service timetableService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service timetableService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Assignments godoc
// @Summary A student's committed slots
// @Tags Students
// @Produce json
// @Param regNo path string true "Registration number"
// @Success 200 {object} response.Envelope
// @Router /students/{regNo}/assignments [get]
func (h *StudentHandler) Assignments(c *gin.Context) {
	res, err := h.service.StudentAssignments(c.Request.Context(), c.Param("regNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// BulkAssignments godoc
// @Summary Timetables for several students
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignmentsRequest true "Registration numbers"
// @Success 200 {object} response.Envelope
// @Router /students/assignments [post]
func (h *StudentHandler) BulkAssignments(c *gin.Context) {
	var req dto.BulkAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	res, err := h.service.BulkStudentAssignments(c.Request.Context(), req.RegNos)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, map[string]interface{}{"total": len(res)})
}
