package acs

// errors.go defines the extraction error taxonomy and maps technical errors
// to user-facing messages with codes for support reference.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid request: geography filter, specs or output missing
//	         Action: Pass exactly one of --tracts or --blockgroups
//
// # Specification Errors (SPEC001-SPEC099)
//
//	SPEC001 - Invalid variable spec
//	          Action: Use TABLE_NUMBER, TABLE_START-END or TABLE_*
//
// # Lookup Table Errors (IDX001-IDX099)
//
//	IDX001 - Malformed lookup table
//	         Action: Check the lookup table matches the summary file release
//
// # Geography Errors (GEO001-GEO099)
//
//	GEO001 - Malformed geography file
//	         Action: Check the geography layout matches the file format version
//
// # Data File Errors (DAT001-DAT099)
//
//	DAT001 - Unknown logical record
//	DAT002 - Field offset out of range
//	DAT003 - Malformed data file
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Missing file
//
// # Output Errors (OUT001-OUT099)
//
//	OUT001 - Output could not be written
//
// Sentinel errors are matched with errors.Is first; plain technical errors
// fall back to case-insensitive pattern matching, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig marks an invalid extraction request. Nothing has been read.
	ErrConfig = errors.New("configuration error")

	// ErrInvalidSpec marks a variable spec that cannot be parsed.
	ErrInvalidSpec = errors.New("invalid variable spec")

	// ErrMalformedIndex marks a lookup table row or header that cannot be used.
	ErrMalformedIndex = errors.New("malformed lookup table")

	// ErrMalformedGeography marks a geography line that does not fit the layout.
	ErrMalformedGeography = errors.New("malformed geography file")

	// ErrUnknownRecord marks a data line whose logical record number is absent
	// from the geography map.
	ErrUnknownRecord = errors.New("unknown logical record")

	// ErrFieldOutOfRange marks a variable offset beyond the data record.
	ErrFieldOutOfRange = errors.New("field offset out of range")

	// ErrMalformedData marks a data file that cannot be parsed.
	ErrMalformedData = errors.New("malformed data file")

	// ErrMissingFile marks an input file that does not exist.
	ErrMissingFile = errors.New("file not found")

	// ErrOutput marks a failure writing an output sink.
	ErrOutput = errors.New("output error")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is ordered: the most specific failure wins when an error
// wraps several sentinels.
var sentinelMessages = []sentinelMessage{
	{ErrInvalidSpec, UserMessage{
		Message: "A variable specification could not be parsed",
		Action:  "Use TABLE_NUMBER, TABLE_START-END or TABLE_* (for example B19001_3-6)",
		Code:    "SPEC001",
	}},
	{ErrConfig, UserMessage{
		Message: "The extraction request is incomplete or contradictory",
		Action:  "Pass exactly one of --tracts or --blockgroups, at least one variable and an output path",
		Code:    "CFG001",
	}},
	{ErrMissingFile, UserMessage{
		Message: "An input file was not found",
		Action:  "Check the summary file directory, state and year settings",
		Code:    "FILE001",
	}},
	{ErrMalformedIndex, UserMessage{
		Message: "The lookup table could not be read",
		Action:  "Check the lookup table matches the summary file release",
		Code:    "IDX001",
	}},
	{ErrMalformedGeography, UserMessage{
		Message: "The geography file does not match the expected layout",
		Action:  "Check the geography layout matches the file format version",
		Code:    "GEO001",
	}},
	{ErrUnknownRecord, UserMessage{
		Message: "A data file references a geography that does not exist",
		Action:  "Make sure the geography file and data files come from the same release and state",
		Code:    "DAT001",
	}},
	{ErrFieldOutOfRange, UserMessage{
		Message: "A variable lies beyond the end of a data record",
		Action:  "Check the lookup table matches the summary file release",
		Code:    "DAT002",
	}},
	{ErrMalformedData, UserMessage{
		Message: "A sequence data file could not be parsed",
		Action:  "Re-extract the summary file archive",
		Code:    "DAT003",
	}},
	{ErrOutput, UserMessage{
		Message: "The output could not be written",
		Action:  "Check the output location is writable",
		Code:    "OUT001",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "no such file",
		msg:     sentinelFor(ErrMissingFile),
	},
	{
		pattern: "not found",
		msg:     sentinelFor(ErrMissingFile),
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Permission denied",
			Action:  "Check file permissions on the input and output paths",
			Code:    "FILE002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check ACS_DATABASE_URL or run without --database",
			Code:    "OUT002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Re-run with ACS_LOG_LEVEL=debug and check the log",
	Code:    "ERR000",
}

func sentinelFor(target error) UserMessage {
	for _, sm := range sentinelMessages {
		if sm.err == target {
			return sm.msg
		}
	}
	return defaultMessage
}

// MapError converts an error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
