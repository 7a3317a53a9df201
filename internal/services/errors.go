package services

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned before any network call when no credential is set.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string {
	if e.Message == "" {
		return "Gemini API key is not configured"
	}
	return e.Message
}

// UpstreamError carries a non-success answer from the generative endpoint.
// Status is 0 when the request never produced a response.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API Error: %d", e.Status)
}

// EmptyResponseError means the call succeeded but no reply text could be extracted.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string { return "Empty response" }

// ErrorKind names the taxonomy bucket of a send failure.
func ErrorKind(err error) string {
	var cfgErr *ConfigurationError
	var upErr *UpstreamError
	var emptyErr *EmptyResponseError
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &upErr):
		return "upstream"
	case errors.As(err, &emptyErr):
		return "empty_response"
	default:
		return "upstream"
	}
}
