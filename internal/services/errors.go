// Package services defines the business logic for logging LLM interactions
// and computing usage analytics. This file centralizes common service-level
// error values so that they are consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrEmptyPrompt is returned when a chat request contains an empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a chat request exceeds the maximum
	// configured prompt length.
	ErrTooLong = errors.New("prompt too long")
)
