package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/aescanero/lazymint/internal/application/orchestrator"
	"github.com/aescanero/lazymint/internal/application/workers"
	"github.com/aescanero/lazymint/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitResponse represents a submission response
type SubmitResponse struct {
	SessionID   string `json:"session_id"`
	AttemptID   string `json:"attempt_id"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func abortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	checks := gin.H{"orchestrator": "ok"}
	healthy := true

	if s.health != nil {
		status := s.health.GetStatus()
		checks["workers"] = status
		healthy = status.Healthy
	}

	code, label := http.StatusOK, "healthy"
	if !healthy {
		code, label = http.StatusServiceUnavailable, "unhealthy"
	}

	c.JSON(code, gin.H{
		"status":    label,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleSubmit handles a multipart image + metadata submission
func (s *Server) handleSubmit(c *gin.Context) {
	sessionID := c.Param("id")

	// Leave room for the non-file form fields.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE",
				fmt.Sprintf("image exceeds %d bytes", s.maxUploadBytes), nil)
			return
		}
		s.logger.Warn("invalid submission request",
			zap.String("session_id", sessionID),
			zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "image file is required", nil)
		return
	}

	if fileHeader.Size > s.maxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE",
			fmt.Sprintf("image exceeds %d bytes", s.maxUploadBytes), nil)
		return
	}

	image, err := readFormFile(fileHeader)
	if err != nil {
		s.logger.Error("failed to read uploaded image",
			zap.String("session_id", sessionID),
			zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read image", nil)
		return
	}

	input := domain.SubmissionInput{
		Image:       image,
		Filename:    fileHeader.Filename,
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}

	attempt, err := s.orchestrator.Submit(c.Request.Context(), sessionID, input, requesterAddress(c))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, "INVALID_SUBMISSION", err.Error(), nil)
		return
	case errors.Is(err, domain.ErrSubmissionInProgress):
		abortWithError(c, http.StatusConflict, "SUBMISSION_IN_PROGRESS", err.Error(), nil)
		return
	case errors.Is(err, workers.ErrQueueFull), errors.Is(err, workers.ErrPoolStopped):
		details := gin.H{}
		if attempt != nil {
			details["attempt_id"] = attempt.ID
		}
		abortWithError(c, http.StatusServiceUnavailable, "SUBMISSION_UNAVAILABLE", err.Error(), details)
		return
	default:
		s.logger.Error("failed to submit",
			zap.String("session_id", sessionID),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "SUBMISSION_FAILED", err.Error(), nil)
		return
	}

	c.JSON(http.StatusAccepted, SubmitResponse{
		SessionID:   sessionID,
		AttemptID:   attempt.ID,
		Status:      string(domain.SubmissionStatusPending),
		SubmittedAt: attempt.SubmittedAt.UTC().Format(time.RFC3339),
	})
}

// handleGetStatus returns the session's status cell
func (s *Server) handleGetStatus(c *gin.Context) {
	sessionID := c.Param("id")

	status, err := s.orchestrator.GetStatus(c.Request.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to get status",
			zap.String("session_id", sessionID),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "STATUS_UNAVAILABLE", "failed to read status", nil)
		return
	}

	c.JSON(http.StatusOK, status)
}

// handleListSessions lists sessions with a stored status
func (s *Server) handleListSessions(c *gin.Context) {
	ids, err := s.orchestrator.ListSessions(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "STATUS_UNAVAILABLE", "failed to list sessions", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": ids,
		"total":    len(ids),
	})
}

// handleCancel cancels the session's in-flight submission
func (s *Server) handleCancel(c *gin.Context) {
	sessionID := c.Param("id")

	if err := s.orchestrator.Cancel(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, orchestrator.ErrNoActiveAttempt) {
			abortWithError(c, http.StatusConflict, "NO_ACTIVE_SUBMISSION", err.Error(), nil)
			return
		}
		abortWithError(c, http.StatusInternalServerError, "CANCELLATION_FAILED", err.Error(), nil)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"session_id":   sessionID,
		"status":       "cancelling",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// readFormFile reads an uploaded file fully
func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
