package models

import (
	"errors"
	"fmt"
)

// Error codes raised by the orchestrator before or during a scrape call.
const (
	ErrCodeEmptyInput   = "EMPTY_INPUT"
	ErrCodeInvalidURL   = "INVALID_URL"
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeServerError  = "SERVER_ERROR"
	ErrCodeClientError  = "CLIENT_ERROR"
	ErrCodeNetworkError = "NETWORK_ERROR"
	ErrCodeCanceled     = "CANCELED"
)

// Error codes returned by the scrape backend.
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeUpstream        = "UPSTREAM_FAILED"
	ErrCodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// User-facing messages for failures that carry no better text of their own.
const (
	MsgEmptyInput = "Please enter a website URL"
	MsgInvalidURL = "Please enter a valid URL"
	MsgTimeout    = "Request timed out. Please try again."
	MsgNetwork    = "Could not connect to the server. Please check if the backend is running."
	MsgCanceled   = "Request was canceled."
)

// ErrorDetail is the error body written by the scrape backend.
//
// Detail mirrors the {"detail": ...} shape so any client that only knows
// that field still gets a readable message.
type ErrorDetail struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// ScrapeError is the error type for every terminal scrape failure.
// Status is the last HTTP status seen, zero when no response was received.
type ScrapeError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *ScrapeError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError without a status code.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewStatusError creates a ScrapeError carrying an HTTP status code.
func NewStatusError(code, message string, status int) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Status: status}
}

// ToDetail converts the error to the backend's JSON error body.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Detail: e.Message, Code: e.Code}
}

// Retryable reports whether an attempt that failed with code may be repeated.
// Timeouts are terminal.
func Retryable(code string) bool {
	return code == ErrCodeServerError || code == ErrCodeNetworkError
}

// CodeOf returns the ScrapeError code in err's chain, or ErrCodeInternal.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// UserMessage returns the text shown to a user for err.
func UserMessage(err error) string {
	var se *ScrapeError
	if !errors.As(err, &se) {
		return "An error occurred"
	}
	switch se.Code {
	case ErrCodeTimeout:
		return MsgTimeout
	case ErrCodeNetworkError:
		return MsgNetwork
	case ErrCodeCanceled:
		return MsgCanceled
	}
	if se.Message == "" {
		return "An error occurred"
	}
	return se.Message
}
