package search

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingAPIKey  = errors.New("no API key provided")
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("usage limit exceeded")
	ErrForbidden      = errors.New("access forbidden")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrSearchFailed   = errors.New("search request failed")
)

// APIError - ошибка ответа сервиса с кодом и деталями
type APIError struct {
	Endpoint   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Endpoint, e.Err, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Endpoint, e.Err, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// ErrorForStatus maps a non-2xx status code to its sentinel.
func ErrorForStatus(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimit
	case http.StatusForbidden, 432, 433:
		return ErrForbidden
	case http.StatusBadRequest:
		return ErrInvalidRequest
	default:
		return ErrSearchFailed
	}
}
