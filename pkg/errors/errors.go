// Package errors provides the typed errors used across jwpedit.
// Each type supports errors.Is against one of the sentinel values below so
// callers can branch on the category without caring about the concrete type.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Sentinel errors
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates the remote tabular store or one of its
	// sheets cannot be reached. Fatal for the current operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPartialWrite indicates some, but not necessarily all, cell writes
	// for a changed row failed.
	ErrPartialWrite = errors.New("partial write")

	// ErrAuditAppend indicates an audit record could not be appended after
	// the data write it describes had already succeeded.
	ErrAuditAppend = errors.New("audit append failed")

	// ErrUnauthorized indicates missing or invalid caller credentials
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// AuthenticationError represents an authentication/authorization error
type AuthenticationError struct {
	Method  string // "session", "admin_key", "service_account"
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// StoreError wraps a failure talking to the remote tabular store.
type StoreError struct {
	Operation string // "read", "update", "append", "open"
	Sheet     string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("store %s of sheet %q failed: %v", e.Operation, e.Sheet, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, sheet string, err error) *StoreError {
	return &StoreError{Operation: operation, Sheet: sheet, Err: err}
}

// SheetNotFoundError reports a named sheet (or the spreadsheet holding it)
// that does not exist. It matches both ErrNotFound and ErrStoreUnavailable.
type SheetNotFoundError struct {
	Sheet string
}

// Error implements the error interface
func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found", e.Sheet)
}

// Is implements errors.Is support
func (e *SheetNotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrStoreUnavailable
}

// NewSheetNotFoundError creates a new SheetNotFoundError
func NewSheetNotFoundError(sheet string) *SheetNotFoundError {
	return &SheetNotFoundError{Sheet: sheet}
}

// PartialWriteError describes the cell writes of one changed row that failed.
// WrittenColumns lists the 1-indexed columns that were stored successfully,
// so an empty list means nothing reached the store for this row.
type PartialWriteError struct {
	Ordinal        int
	SheetRow       int
	FailedColumns  []int
	WrittenColumns []int
	Err            error
}

// Error implements the error interface
func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("row %d (sheet row %d): %d of %d cell writes failed (columns %s): %v",
		e.Ordinal, e.SheetRow, len(e.FailedColumns), len(e.FailedColumns)+len(e.WrittenColumns),
		joinInts(e.FailedColumns), e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

// AnyWritten reports whether at least one cell of the row reached the store.
func (e *PartialWriteError) AnyWritten() bool {
	return len(e.WrittenColumns) > 0
}

// AuditAppendError reports an audit record that could not be appended. The
// data change it describes has already been stored and is not rolled back.
type AuditAppendError struct {
	Ordinal int
	Err     error
}

// Error implements the error interface
func (e *AuditAppendError) Error() string {
	return fmt.Sprintf("audit record for row %d not appended: %v", e.Ordinal, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AuditAppendError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuditAppendError) Is(target error) bool {
	return target == ErrAuditAppend
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing input files
type ParseError struct {
	Format string // "csv", "yaml", "json"
	File   string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %v", e.Format, e.File, e.Err)
	}
	return fmt.Sprintf("%s parse error: %v", e.Format, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStoreUnavailable checks if an error means the store cannot be used
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsPartialWrite checks if an error is a per-row write failure
func IsPartialWrite(err error) bool {
	return errors.Is(err, ErrPartialWrite)
}

// IsAuditAppend checks if an error is an audit append failure
func IsAuditAppend(err error) bool {
	return errors.Is(err, ErrAuditAppend)
}

// IsUnauthorized checks if an error is an authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Helper wrapping functions for common patterns

// WrapStore wraps an error as a StoreError unless it already carries a
// store category.
func WrapStore(operation, sheet string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return NewStoreError(operation, sheet, err)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Err: err}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
