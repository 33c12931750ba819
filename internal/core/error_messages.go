package core

// error_messages.go maps technical errors to messages curators can act on.
//
// Each message carries a code that can be quoted to support:
//
//	DB001-DB007     database constraint and connectivity failures
//	FILE001-FILE005 problems with the uploaded spreadsheet
//	DRV001-DRV007   derivation failures
//	REQ001-REQ002   cancelled or timed out requests
//	RATE001         request throttling
//	ERR000          anything else; check the logs for the original error
//
// Sentinel errors are classified with errors.Is/As first. Errors that only
// reach us as text, such as driver messages, fall back to case-insensitive
// substring patterns where the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message   string `json:"message"`
	Action    string `json:"action"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

var (
	msgLocaleNotFound = UserMessage{
		Message: "Locale not found",
		Action:  "Check the source and destination locale ids",
		Code:    "DRV001",
	}
	msgUnknownFormat = UserMessage{
		Message: "Unknown spreadsheet format",
		Action:  "Choose one of the listed spreadsheet formats",
		Code:    "DRV002",
	}
	msgCodesExhausted = UserMessage{
		Message: "Could not generate a unique food code",
		Action:  "Make the English descriptions of the new foods more distinct",
		Code:    "DRV003",
	}
	msgCopySourceMissing = UserMessage{
		Message: "Some source foods to copy do not exist",
		Action:  "Check the food codes in the spreadsheet",
		Code:    "DRV004",
	}
	msgCodeConflict = UserMessage{
		Message:   "Another derivation created the same food code",
		Action:    "Nothing was saved. Submit the spreadsheet again",
		Code:      "DRV005",
		Retryable: true,
	}
	msgTooManyRuns = UserMessage{
		Message:   "System is busy with other derivations",
		Action:    "Please wait a moment and try again",
		Code:      "DRV006",
		Retryable: true,
	}
	msgRejected = UserMessage{
		Message: "The spreadsheet has errors and nothing was saved",
		Action:  "Fix the listed rows and submit again",
		Code:    "DRV007",
	}
	msgCanceled = UserMessage{
		Message:   "Request was cancelled",
		Action:    "Please try again",
		Code:      "REQ001",
		Retryable: true,
	}
	msgDeadline = UserMessage{
		Message:   "Request timed out",
		Action:    "Try a smaller spreadsheet or try again later",
		Code:      "REQ002",
		Retryable: true,
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Export the sheet as comma-separated values",
		Code:    "FILE001",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a spreadsheet with a header and data rows",
		Code:    "FILE002",
	}
)

// errorPattern maps a lowercase substring of a technical error to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{Message: "A food with this code already exists", Action: "Submit the spreadsheet again", Code: "DB001", Retryable: true}},
	{"violates unique", UserMessage{Message: "A duplicate value was found", Action: "Submit the spreadsheet again", Code: "DB002", Retryable: true}},
	{"violates foreign key", UserMessage{Message: "Referenced record does not exist", Action: "Check food codes, categories and FCT references", Code: "DB003"}},
	{"connection refused", UserMessage{Message: "Unable to connect to database", Action: "Please try again in a few moments", Code: "DB004", Retryable: true}},
	{"connection reset", UserMessage{Message: "Database connection was interrupted", Action: "Please try again", Code: "DB005", Retryable: true}},
	{"timeout", UserMessage{Message: "Operation timed out", Action: "Try again later", Code: "DB006", Retryable: true}},
	{"deadlock", UserMessage{Message: "Database was busy with conflicting operations", Action: "Please try again", Code: "DB007", Retryable: true}},

	{"file too large", UserMessage{Message: "File exceeds maximum size limit", Action: "Split the spreadsheet into smaller files", Code: "FILE003"}},
	{"no file provided", UserMessage{Message: "No file was selected", Action: "Please select a spreadsheet to upload", Code: "FILE004"}},
	{"encoding error", UserMessage{Message: "File contains invalid characters", Action: "Save the file as UTF-8", Code: "FILE005"}},

	{"rate limit", UserMessage{Message: "Too many requests", Action: "Please wait a moment before trying again", Code: "RATE001", Retryable: true}},
}

// defaultMessage is the ERR000 fallback.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	if msg, ok := classify(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func classify(err error) (UserMessage, bool) {
	var rejected *RejectedError
	var missing *CopySourceMissingError

	switch {
	case errors.As(err, &rejected):
		return msgRejected, true
	case errors.As(err, &missing):
		return msgCopySourceMissing, true
	case errors.Is(err, ErrCodeConflict):
		return msgCodeConflict, true
	case errors.Is(err, ErrLocaleNotFound):
		return msgLocaleNotFound, true
	case errors.Is(err, ErrUnknownFormat):
		return msgUnknownFormat, true
	case errors.Is(err, ErrCodeGenerationExhausted):
		return msgCodesExhausted, true
	case errors.Is(err, ErrTooManyRuns):
		return msgTooManyRuns, true
	case errors.Is(err, ErrInvalidSheet):
		return msgInvalidCSV, true
	case errors.Is(err, ErrEmptyInput):
		return msgEmptyFile, true
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline, true
	case errors.Is(err, context.Canceled):
		return msgCanceled, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a display string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsRetryable reports whether resubmitting the same request may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Retryable
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
