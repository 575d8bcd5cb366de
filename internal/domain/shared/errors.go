package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that errors.Is works against the sentinels below
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidState         = "INVALID_STATE"
	CodeSchemaError          = "SCHEMA_ERROR"
	CodeConflict             = "CONFLICT"
	CodeStaleVersion         = "STALE_VERSION"
	CodeUnresolvedConflict   = "UNRESOLVED_CONFLICT"
	CodeUnapprovedProduct    = "UNAPPROVED_PRODUCT"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeInvalidDiscount      = "INVALID_DISCOUNT"
	CodeRuleConfiguration    = "RULE_CONFIGURATION_INVALID"
	CodeNarrativeUnavailable = "NARRATIVE_UNAVAILABLE"
)

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists      = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState       = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrSchema             = NewDomainError(CodeSchemaError, "No column maps to the product identifier")
	ErrConflict           = NewDomainError(CodeConflict, "Incoming data conflicts with the catalog")
	ErrStaleVersion       = NewDomainError(CodeStaleVersion, "Catalog entry was modified by another process")
	ErrUnresolvedConflict = NewDomainError(CodeUnresolvedConflict, "Catalog entry has an unresolved conflict")
	ErrUnapprovedProduct  = NewDomainError(CodeUnapprovedProduct, "Product is not approved")
	ErrInvalidQuantity    = NewDomainError(CodeInvalidQuantity, "Quantity must be a positive integer")
	ErrInvalidDiscount    = NewDomainError(CodeInvalidDiscount, "Discount is out of range")
	ErrRuleConfiguration  = NewDomainError(CodeRuleConfiguration, "Rule configuration is invalid")
)

// NewSchemaError reports an input table without an identifier column
func NewSchemaError(headers []string) *DomainError {
	return ErrSchema.WithDetail("headers", headers)
}

// NewStaleVersionError reports a write whose expected version no longer matches storage
func NewStaleVersionError(key string, expected, actual int) *DomainError {
	return &DomainError{
		Code:    CodeStaleVersion,
		Message: fmt.Sprintf("catalog entry %s: expected version %d, found %d", key, expected, actual),
		Details: map[string]any{"key": key, "expected_version": expected, "actual_version": actual},
	}
}

// NewUnresolvedConflictError reports an approval attempt on an entry in conflict
func NewUnresolvedConflictError(key string) *DomainError {
	return &DomainError{
		Code:    CodeUnresolvedConflict,
		Message: fmt.Sprintf("catalog entry %s has an unresolved conflict", key),
		Details: map[string]any{"key": key},
	}
}

// NewUnapprovedProductError reports a proposal line referencing a non-approved product
func NewUnapprovedProductError(key string) *DomainError {
	return &DomainError{
		Code:    CodeUnapprovedProduct,
		Message: fmt.Sprintf("product %s is not approved", key),
		Details: map[string]any{"product_key": key},
	}
}

// NewInvalidQuantityError reports a non-positive line quantity
func NewInvalidQuantityError(key string, quantity int) *DomainError {
	return &DomainError{
		Code:    CodeInvalidQuantity,
		Message: fmt.Sprintf("quantity for %s must be greater than zero, got %d", key, quantity),
		Details: map[string]any{"product_key": key, "quantity": quantity},
	}
}

// TransientError marks a failure worth one more attempt
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as retryable. A nil err stays nil.
func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err (or anything it wraps) is a TransientError
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
