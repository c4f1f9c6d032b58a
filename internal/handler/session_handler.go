package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-scheduler/internal/dto"
	"github.com/noah-isme/academic-scheduler/internal/models"
	appErrors "github.com/noah-isme/academic-scheduler/pkg/errors"
	"github.com/noah-isme/academic-scheduler/pkg/response"
)

type sessionService interface {
	GeneratePattern(ctx context.Context, req dto.GeneratePatternRequest) (*dto.GenerationResult, error)
	AddTailWeeks(ctx context.Context, req dto.TailWeeksRequest) (*dto.GenerationResult, error)
	AddDay(ctx context.Context, req dto.AddDayRequest) (*dto.GenerationResult, error)
	List(ctx context.Context, query dto.ListSessionsQuery) ([]models.Session, error)
	UpdateDetails(ctx context.Context, id string, req dto.UpdateSessionRequest) (*models.Session, error)
	DeleteDay(ctx context.Context, req dto.DeleteDayRequest) (*dto.DeleteResult, error)
	DeleteRange(ctx context.Context, req dto.DeleteRangeRequest) (*dto.DeleteResult, error)
}

// SessionHandler exposes subject session endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Generate godoc
// @Summary Generate sessions from a weekday pattern
// @Description Simple, alternating (week A/B) or backfill (last N weeks) patterns. Existing sessions on the same date and slot are replaced. Shortfall and clash findings are returned as warnings.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePatternRequest true "Pattern payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/generate [post]
func (h *SessionHandler) Generate(c *gin.Context) {
	var req dto.GeneratePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pattern payload"))
		return
	}
	result, err := h.service.GeneratePattern(c.Request.Context(), req)
	h.respondGeneration(c, result, err)
}

// TailWeeks godoc
// @Summary Add sessions on chosen weeks
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.TailWeeksRequest true "Tail weeks payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/tail-weeks [post]
func (h *SessionHandler) TailWeeks(c *gin.Context) {
	var req dto.TailWeeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tail weeks payload"))
		return
	}
	result, err := h.service.AddTailWeeks(c.Request.Context(), req)
	h.respondGeneration(c, result, err)
}

// AddDay godoc
// @Summary Add one session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.AddDayRequest true "Add day payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/day [post]
func (h *SessionHandler) AddDay(c *gin.Context) {
	var req dto.AddDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid add day payload"))
		return
	}
	result, err := h.service.AddDay(c.Request.Context(), req)
	h.respondGeneration(c, result, err)
}

func (h *SessionHandler) respondGeneration(c *gin.Context, result *dto.GenerationResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, http.StatusOK, result, result.Warnings)
}

// List godoc
// @Summary List sessions of a subject context
// @Tags Sessions
// @Produce json
// @Param subjectId query string true "Subject ID"
// @Param degreeId query string true "Degree ID"
// @Param batchYear query int true "Batch year"
// @Param semester query int true "Absolute semester"
// @Param topicId query string false "Topic ID"
// @Param branchId query string false "Branch ID"
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	var query dto.ListSessionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session query"))
		return
	}
	sessions, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}

// Update godoc
// @Summary Update session notes and completion
// @Description Detail edits never re-run the shortfall or clash checks.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Session details"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [patch]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.UpdateDetails(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// DeleteDay godoc
// @Summary Delete the session of one date and slot
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.DeleteDayRequest true "Delete day payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/day [delete]
func (h *SessionHandler) DeleteDay(c *gin.Context) {
	var req dto.DeleteDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}
	result, err := h.service.DeleteDay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteRange godoc
// @Summary Delete every session of a context inside a window
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.DeleteRangeRequest true "Delete range payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/range [delete]
func (h *SessionHandler) DeleteRange(c *gin.Context) {
	var req dto.DeleteRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}
	result, err := h.service.DeleteRange(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
