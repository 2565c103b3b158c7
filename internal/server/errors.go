package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/domain"
	"github.com/kitbuilder587/tavily-go/internal/search"
)

type errorResponse struct {
	Error        string `json:"error"`
	Collaborator string `json:"collaborator,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// statusFor переводит ошибку в HTTP код ответа
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, search.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrUnauthorized), errors.Is(err, search.ErrMissingAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, search.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, search.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)

	resp := errorResponse{
		Error:     err.Error(),
		RequestID: c.GetString("request_id"),
	}
	var collabErr *domain.CollaboratorError
	if errors.As(err, &collabErr) {
		resp.Collaborator = string(collabErr.Collaborator)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", resp.RequestID),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(status, resp)
}
