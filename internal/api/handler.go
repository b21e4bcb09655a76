package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"

	"github.com/Dharakkkk/GithubAssistant/internal/aggregator"
	"github.com/Dharakkkk/GithubAssistant/internal/domain"
	apperrors "github.com/Dharakkkk/GithubAssistant/internal/errors"
)

const (
	messageUnexpected     = "An unexpected error occurred. Please try again later."
	messageUpstreamFailed = "Server error occurred while fetching repositories. Please try again later."
)

// Handler handles API requests
type Handler struct {
	aggregator aggregator.Aggregator
}

// NewHandler creates a new API handler
func NewHandler(agg aggregator.Aggregator) *Handler {
	return &Handler{
		aggregator: agg,
	}
}

// ListRepositories returns the non-fork repositories of a user with their branches
// GET /repositories/:username
func (h *Handler) ListRepositories(c *gin.Context) {
	username, err := domain.ValidateUsername(c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	details, err := h.aggregator.ListRepositoryDetails(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError maps an aggregation failure onto a status and a safe message
func respondError(c *gin.Context, err error) {
	log := logger.WithField("request_id", c.GetString(requestIDKey))

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Errorf("Internal server error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  http.StatusInternalServerError,
			"message": messageUnexpected,
		})
		return
	}

	status := http.StatusInternalServerError
	message := messageUnexpected
	switch appErr.Code {
	case apperrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
		message = appErr.Message
	case apperrors.ErrCodeUserNotFound:
		status = http.StatusNotFound
		message = appErr.Message
	case apperrors.ErrCodeUpstreamServer:
		message = messageUpstreamFailed
	}

	log.WithFields(logger.Fields{
		"code":    appErr.Code,
		"subject": appErr.Subject,
		"status":  status,
	}).Errorf("Request failed: %v", err)

	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
	})
}
