package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pathforge/internal/domain"
	"pathforge/internal/email"
	"pathforge/internal/service"
)

const defaultSimilarLimit = 5

// AssessmentHandler expone las sesiones de evaluacion y las operaciones sin estado.
type AssessmentHandler struct {
	logger *zap.Logger
	svc    *service.AssessmentService
}

func NewAssessmentHandler(logger *zap.Logger, svc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{logger: logger, svc: svc}
}

// StartSession maneja POST /assessment/session.
func (h *AssessmentHandler) StartSession(c *gin.Context) {
	var req struct {
		Preferences domain.LearnerPreferences `json:"preferences"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("invalid start session request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	view, err := h.svc.Start(c.Request.Context(), req.Preferences)
	if err != nil {
		h.fail(c, "start session", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Answer maneja POST /assessment/session/:id/answer.
func (h *AssessmentHandler) Answer(c *gin.Context) {
	var req struct {
		Score *float64 `json:"score" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid answer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	view, err := h.svc.Answer(c.Request.Context(), c.Param("id"), *req.Score)
	if err != nil {
		h.fail(c, "answer", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetSession maneja GET /assessment/session/:id.
func (h *AssessmentHandler) GetSession(c *gin.Context) {
	view, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.fail(c, "get session", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteSession maneja DELETE /assessment/session/:id.
func (h *AssessmentHandler) DeleteSession(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.fail(c, "delete session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EmailReport maneja POST /assessment/session/:id/report/email.
func (h *AssessmentHandler) EmailReport(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid email report request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.svc.EmailReport(c.Request.Context(), c.Param("id"), req.Email); err != nil {
		h.fail(c, "email report", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "email_sent"})
}

// Similar maneja GET /assessment/session/:id/similar?k=N.
func (h *AssessmentHandler) Similar(c *gin.Context) {
	k := defaultSimilarLimit
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be between 1 and 50"})
			return
		}
		k = n
	}

	reports, err := h.svc.Similar(c.Request.Context(), c.Param("id"), k)
	if err != nil {
		h.fail(c, "similar reports", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// Orchestrate maneja POST /assessment/orchestrate: el cliente guarda el estado entre rondas.
func (h *AssessmentHandler) Orchestrate(c *gin.Context) {
	var req struct {
		State       *domain.AssessmentState   `json:"state" binding:"required"`
		Profile     domain.Profile            `json:"profile"`
		Preferences domain.LearnerPreferences `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid orchestrate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	step, err := h.svc.Orchestrate(c.Request.Context(), req.State, req.Profile, req.Preferences.WithDefaults())
	if err != nil {
		h.fail(c, "orchestrate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": step, "state": req.State})
}

// EvaluateFit maneja POST /assessment/evaluate/:domain.
func (h *AssessmentHandler) EvaluateFit(c *gin.Context) {
	var req struct {
		Profile domain.Profile `json:"profile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid evaluate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res := h.svc.EvaluateFit(c.Param("domain"), req.Profile)
	if res.Error != "" {
		c.JSON(http.StatusNotFound, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Rank maneja POST /assessment/rank.
func (h *AssessmentHandler) Rank(c *gin.Context) {
	var req struct {
		Profile domain.Profile `json:"profile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid rank request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": h.svc.Rank(req.Profile)})
}

// fail traduce errores del servicio a codigos HTTP.
func (h *AssessmentHandler) fail(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.Error(err))
	} else {
		h.logger.Warn(op+" rejected", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrNilState),
		errors.Is(err, service.ErrUnknownTrait),
		errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrSessionFinished),
		errors.Is(err, service.ErrSessionNotFinished),
		errors.Is(err, service.ErrNoPendingQuestion):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, email.ErrSenderDisabled):
		return http.StatusServiceUnavailable, "email delivery unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
