package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote source calls.
var (
	ErrUnreachable = errors.New("sample API unreachable")
	ErrMalformed   = errors.New("malformed API response")
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%d)", e.Code)
	}
	return fmt.Sprintf("API error (%d): %s", e.Code, e.Message)
}
