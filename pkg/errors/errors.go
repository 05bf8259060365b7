// Package errors defines the structured error taxonomy for the
// reconciliation pipeline.
//
// Structural failures (a report without the expected table header, a
// workbook missing a required sheet) abort the run and are modeled here
// with a category, a machine-readable code, an operator-facing suggestion
// and contextual key-value pairs. Partial data issues never become errors;
// they degrade into classifications and audit counts instead.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that raised them.
type Category string

const (
	CategoryFile           Category = "file"
	CategoryParse          Category = "parse"
	CategoryValidation     Category = "validation"
	CategoryConfiguration  Category = "configuration"
	CategoryReconciliation Category = "reconciliation"
	CategoryInternal       Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound  Code = "file_not_found"
	CodeFileCorrupted Code = "file_corrupted"

	// Parse errors
	CodeHeaderNotFound Code = "header_not_found"
	CodeMissingColumn  Code = "missing_column"
	CodeMissingSheet   Code = "missing_sheet"
	CodeEmptyTable     Code = "empty_table"
	CodeInvalidFormat  Code = "invalid_format"

	// Validation errors
	CodeMissingField Code = "missing_field"
	CodeInvalidValue Code = "invalid_value"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"

	// Reconciliation errors
	CodeNoRecordsLoaded Code = "no_records_loaded"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// ReconError is the error type surfaced by all pipeline components.
type ReconError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional diagnostic information.
type Context map[string]interface{}

// Error implements the error interface.
func (e *ReconError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ReconError) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error category to a process exit code.
func (e *ReconError) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a diagnostic key-value pair.
func (e *ReconError) WithContext(key string, value interface{}) *ReconError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches an operator-facing hint for resolving the error.
func (e *ReconError) WithSuggestion(suggestion string) *ReconError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a ReconError.
func New(category Category, code Code, message string) *ReconError {
	return &ReconError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with category and code context.
func Wrap(err error, category Category, code Code, message string) *ReconError {
	if err == nil {
		return nil
	}
	return &ReconError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// AsReconError extracts a ReconError from an error chain.
func AsReconError(err error) (*ReconError, bool) {
	for err != nil {
		if re, ok := err.(*ReconError); ok {
			return re, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// FileError creates a file access error.
func FileError(code Code, path string, err error) *ReconError {
	var message, suggestion string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check that the file path is correct and the file exists"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be read: %s", path)
		suggestion = "verify the file is a valid workbook or CSV and is not truncated"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := New(CategoryFile, code, message)
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// StructureError creates an error for a report or workbook whose shape
// does not match what the pipeline requires. These are always fatal.
func StructureError(code Code, file, detail string) *ReconError {
	var message, suggestion string
	switch code {
	case CodeHeaderNotFound:
		message = fmt.Sprintf("transaction table header not found in %s: %s", file, detail)
		suggestion = "confirm this is a depository transaction report; the table must start with a POSTED DATE header row"
	case CodeMissingSheet:
		message = fmt.Sprintf("required sheet missing in %s: %s", file, detail)
		suggestion = "confirm the workbook contains the expected sheets"
	case CodeMissingColumn:
		message = fmt.Sprintf("required column missing in %s: %s", file, detail)
		suggestion = "verify the source columns have not been renamed or removed"
	case CodeEmptyTable:
		message = fmt.Sprintf("table in %s has no data rows: %s", file, detail)
		suggestion = "check that the source export actually contains transactions"
	default:
		message = fmt.Sprintf("unexpected structure in %s: %s", file, detail)
		suggestion = "check the file structure against the expected report layout"
	}

	return New(CategoryParse, code, message).
		WithSuggestion(suggestion).
		WithContext("file", file)
}

// ValidationError creates a field-level validation error.
func ValidationError(code Code, field string, value interface{}) *ReconError {
	var message, suggestion string
	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidValue:
		message = fmt.Sprintf("invalid value in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration error.
func ConfigurationError(setting string, value interface{}, err error) *ReconError {
	message := fmt.Sprintf("invalid configuration for '%s': %v", setting, value)

	result := New(CategoryConfiguration, CodeInvalidConfig, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	}
	return result.
		WithSuggestion("check the flag and config file values").
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates an error for failures inside the matching run.
func ReconciliationError(code Code, stage string, err error) *ReconError {
	message := fmt.Sprintf("reconciliation failed during %s", stage)

	result := New(CategoryReconciliation, code, message)
	if err != nil {
		result = Wrap(err, CategoryReconciliation, code, message)
	}
	return result.WithContext("stage", stage)
}

// InternalError creates an error for unexpected conditions.
func InternalError(operation string, err error) *ReconError {
	message := fmt.Sprintf("internal error during %s", operation)

	result := New(CategoryInternal, CodeUnexpectedError, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	}
	return result.
		WithSuggestion("this is likely a bug; rerun with --verbose and report the output").
		WithContext("operation", operation)
}
