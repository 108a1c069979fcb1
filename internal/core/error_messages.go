package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// Codes by category:
//
//	IMP001-IMP099  import lifecycle (not found, busy, no mappings, no rows)
//	HDR001-HDR099  header validation of uploaded documents
//	FILE001-FILE099 file handling (size, format, encoding, empty)
//	DB001-DB099    database constraints and connectivity
//	REQ001-REQ099  request cancellation and timeouts
//	RATE001        throttling
//	ERR000         fallback; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns precede general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import lifecycle
	{"import not found", UserMessage{
		Message: "Import not found",
		Action:  "Upload the file again to start a new import",
		Code:    "IMP001",
	}},
	{"too many imports", UserMessage{
		Message: "The system is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{"no column mappings", UserMessage{
		Message: "No column mappings were provided",
		Action:  "Confirm at least one column mapping before processing",
		Code:    "IMP003",
	}},
	{"no rows to process", UserMessage{
		Message: "The document has no data rows",
		Action:  "Upload a file that contains data below the header row",
		Code:    "IMP004",
	}},

	// Header validation
	{"no headers", UserMessage{
		Message: "No column headers found",
		Action:  "Make sure the first row of the file contains column names",
		Code:    "HDR001",
	}},
	{"empty header", UserMessage{
		Message: "One or more column headers are empty",
		Action:  "Give every column a name",
		Code:    "HDR002",
	}},
	{"too many columns", UserMessage{
		Message: "The file has too many columns",
		Action:  "Remove unused columns; at most 50 are supported",
		Code:    "HDR003",
	}},
	{"duplicate header", UserMessage{
		Message: "Column headers must be unique",
		Action:  "Rename or remove the duplicated columns",
		Code:    "HDR004",
	}},

	// Files
	{"file too large", UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"unsupported file format", UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a CSV, TSV, TXT or XLSX file",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a file to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with data rows",
		Code:    "FILE005",
	}},

	// Database
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Review the failed rows for duplicates",
		Code:    "DB001",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate key values",
		Code:    "DB002",
	}},
	{"violates foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check that related records are present",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},

	// Requests
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "The import was left unprocessed. Please try again",
		Code:    "REQ001",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "REQ002",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"invalid request", UserMessage{
		Message: "The request could not be understood",
		Action:  "Check the import id and the request body",
		Code:    "REQ003",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000; a nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
