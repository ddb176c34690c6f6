package player

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the player service.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrCategoryMismatch     = errors.New("item category mismatch")
	ErrItemUnavailable      = errors.New("item not available for purchase")
	ErrAlreadyOwned         = errors.New("item already owned")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNotOwned             = errors.New("item not owned")
	ErrHandleTaken          = errors.New("handle already taken")
	ErrStarterWeaponMissing = errors.New("starter weapon missing from catalog")
	ErrInvalidHandle        = errors.New("invalid handle")
	ErrInvalidItemID        = errors.New("invalid item id")
	ErrInvalidWeaponName    = errors.New("invalid weapon name")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidStats         = errors.New("invalid stats")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
